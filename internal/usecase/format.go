package usecase

import (
	"fmt"
	"sort"
	"strings"

	"newsagent/internal/domain"
)

const (
	postPreviewChars  = 300
	postContentChars  = 1000
	commentChars      = 500
	replyChars        = 300
	maxCharsPerEmail  = 10000
	minAnalysisLength = 100
)

var sectionSeparator = strings.Repeat("=", 80)

// truncate caps s at max characters. Cutting on a rune boundary keeps
// artifacts valid UTF-8.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

func previewText(s string, max int) string {
	return truncate(strings.ReplaceAll(s, "\n", " "), max)
}

// formatBoardSection renders the listing block for one board's top posts.
func formatBoardSection(board string, filter domain.TimeFilter, posts []domain.Post) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== TOP POSTS from r/%s (%s) ===\n\n", board, filter)

	for i, p := range posts {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p.Title)
		fmt.Fprintf(&b, "   r/%s | %d upvotes | %d comments\n", p.Board, p.Score, p.NumComments)
		if p.SelfText != "" {
			fmt.Fprintf(&b, "   %s\n", previewText(p.SelfText, postPreviewChars))
		}
		fmt.Fprintf(&b, "   %s\n\n", p.Link())
	}

	return strings.TrimSpace(b.String())
}

// rankComments orders by score descending; ties keep provider encounter order.
func rankComments(comments []domain.Comment, limit int) []domain.Comment {
	ranked := make([]domain.Comment, len(comments))
	copy(ranked, comments)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func rankReplies(replies []domain.Reply, limit int) []domain.Reply {
	ranked := make([]domain.Reply, len(replies))
	copy(ranked, replies)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// formatThread renders a post with its ranked comments and replies.
func formatThread(t *domain.Thread, topComments, repliesPerComment int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "POST: %s\n", t.Post.Title)
	fmt.Fprintf(&b, "r/%s | %d upvotes | %d comments\n", t.Post.Board, t.Post.Score, t.Post.NumComments)
	fmt.Fprintf(&b, "%s\n", t.Post.Link())

	if t.Post.SelfText != "" {
		fmt.Fprintf(&b, "\nPost Content:\n%s\n", previewText(t.Post.SelfText, postContentChars))
	}

	comments := rankComments(t.Comments, topComments)
	fmt.Fprintf(&b, "\nTOP %d COMMENTS\n\n", len(comments))

	for i, c := range comments {
		fmt.Fprintf(&b, "%d. (%d) %s\n", i+1, c.Score, truncate(c.Body, commentChars))

		replies := rankReplies(c.Replies, repliesPerComment)
		if len(replies) > 0 {
			fmt.Fprintf(&b, "   Replies (%d):\n", len(replies))
			for j, reply := range replies {
				fmt.Fprintf(&b, "   %d.%d. (%d) %s\n", i+1, j+1, reply.Score, truncate(reply.Body, replyChars))
			}
		}
		b.WriteString("\n")
	}

	return strings.TrimSpace(b.String())
}

// formatEmailsForAnalysis flattens fetched newsletters into one text block.
func formatEmailsForAnalysis(emails []domain.Email) string {
	if len(emails) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# NEWSLETTER EMAILS (%d total)\n\n", len(emails))

	for i, e := range emails {
		fmt.Fprintf(&b, "## EMAIL %d\n", i+1)
		fmt.Fprintf(&b, "Subject: %s\n", e.Subject)
		fmt.Fprintf(&b, "From: %s\n", e.Sender)
		fmt.Fprintf(&b, "Date: %s\n\n", e.Date)

		body := e.Body
		if runes := []rune(body); len(runes) > maxCharsPerEmail {
			original := len(runes)
			body = string(runes[:maxCharsPerEmail])
			if idx := strings.LastIndex(body, "."); idx > maxCharsPerEmail*8/10 {
				body = body[:idx+1]
			}
			body += fmt.Sprintf("\n\n[Truncated: %d characters total]", original)
		}

		b.WriteString(body)
		b.WriteString("\n\n")
		if i < len(emails)-1 {
			b.WriteString("---\n\n")
		}
	}

	return b.String()
}

// buildSummaryMessage is the notification text sent before the attachments.
func buildSummaryMessage(postCount int, boards []string, filter domain.TimeFilter, hasAudio bool) string {
	var b strings.Builder
	b.WriteString("*Reddit AI Analysis Complete*\n\n")
	fmt.Fprintf(&b, "*Analyzed:* %d posts\n", postCount)
	fmt.Fprintf(&b, "*Subreddits:* %s\n", strings.Join(boards, ", "))
	fmt.Fprintf(&b, "*Time Filter:* %s\n\n", filter)
	if hasAudio {
		b.WriteString("*Audio narration included*\n\n")
	}
	b.WriteString("*Full analysis file attached below*")
	return b.String()
}
