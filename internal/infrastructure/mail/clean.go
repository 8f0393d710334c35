package mail

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	inlineURLExpr     = regexp.MustCompile(`\s*\(https?://[^\s)]+\)`)
	standaloneURLExpr = regexp.MustCompile(`https?://\S+`)
	bracketExpr       = regexp.MustCompile(`\[[^\]]*\]`)
	symbolLineExpr    = regexp.MustCompile(`^[()\[\]{}\-=+*\s]+$`)
	blankRunsExpr     = regexp.MustCompile(`\n{3,}`)
	spaceRunsExpr     = regexp.MustCompile(`[ \t]{2,}`)

	navLineExprs = []*regexp.Regexp{
		regexp.MustCompile(`(?i)View in browser.*\n?`),
		regexp.MustCompile(`(?i)Subscribe.*\n?`),
		regexp.MustCompile(`(?i)Unsubscribe.*\n?`),
		regexp.MustCompile(`(?i)Submit a tip.*\n?`),
		regexp.MustCompile(`(?i)Manage preferences.*\n?`),
		regexp.MustCompile(`(?i)Click here.*\n?`),
	}

	navKeywords = []string{"view", "browser", "subscribe", "unsubscribe", "click", "here", "manage", "preferences", "tip"}
)

// CleanText strips URLs, newsletter navigation noise and excess whitespace
// from a plain-text body.
func CleanText(text string) string {
	text = html.UnescapeString(text)

	text = inlineURLExpr.ReplaceAllString(text, "")
	text = standaloneURLExpr.ReplaceAllString(text, "")
	text = bracketExpr.ReplaceAllString(text, "")
	for _, expr := range navLineExprs {
		text = expr.ReplaceAllString(text, "")
	}

	var lines []string
	prevEmpty := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)

		if line == "" {
			if !prevEmpty && len(lines) > 0 {
				lines = append(lines, "")
				prevEmpty = true
			}
			continue
		}
		prevEmpty = false

		if len(line) < 20 && containsNavKeyword(line) {
			continue
		}
		if symbolLineExpr.MatchString(line) {
			continue
		}

		lines = append(lines, line)
	}

	result := strings.Join(lines, "\n")
	result = blankRunsExpr.ReplaceAllString(result, "\n\n")
	result = spaceRunsExpr.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

func containsNavKeyword(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range navKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// HTMLToText converts an HTML newsletter body into cleaned plain text.
func HTMLToText(htmlContent string) string {
	htmlContent = html.UnescapeString(htmlContent)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return CleanText(stripTags(htmlContent))
	}

	doc.Find("script, style, head, meta, link, img, svg, noscript, iframe").Remove()

	// Keep meaningful anchor text, drop link-only anchors.
	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text != "" && !strings.HasPrefix(text, "http") && !strings.HasPrefix(text, "www") && len(text) > 3 {
			sel.ReplaceWithHtml(text + " ")
		} else {
			sel.Remove()
		}
	})

	// Drop short footer/navigation blocks.
	doc.Find("div, table, td").Each(func(_ int, sel *goquery.Selection) {
		text := strings.ToLower(strings.TrimSpace(sel.Text()))
		if len(text) >= 100 {
			return
		}
		for _, marker := range []string{"unsubscribe", "view in browser", "manage preferences", "submit a tip"} {
			if strings.Contains(text, marker) {
				sel.Remove()
				return
			}
		}
	})

	return CleanText(doc.Text())
}

var tagExpr = regexp.MustCompile(`<[^<>]+>`)

func stripTags(s string) string {
	return tagExpr.ReplaceAllString(s, "")
}
