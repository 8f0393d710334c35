package usecase

import (
	"strings"
	"testing"
	"unicode/utf8"

	"newsagent/internal/domain"
)

func TestTruncate(t *testing.T) {
	t.Parallel()

	if got := truncate("short", 10); got != "short" {
		t.Fatalf("short input must pass through, got %q", got)
	}
	got := truncate(strings.Repeat("a", 20), 10)
	if got != strings.Repeat("a", 10)+"..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
}

func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	t.Parallel()

	in := strings.Repeat("日本語テキスト", 10)
	got := truncate(in, 50)

	if !utf8.ValidString(got) {
		t.Fatalf("truncation produced invalid utf-8: %q", got)
	}
	if got != string([]rune(in)[:50])+"..." {
		t.Fatalf("truncation must count characters, got %d bytes", len(got))
	}

	// A string over max bytes but under max characters passes through whole.
	short := strings.Repeat("é", 40)
	if got := truncate(short, 50); got != short {
		t.Fatalf("character-count limit must apply, got %q", got)
	}
}

func TestRankCommentsStableTies(t *testing.T) {
	t.Parallel()

	comments := []domain.Comment{
		{Body: "first", Score: 5},
		{Body: "second", Score: 10},
		{Body: "third", Score: 5},
		{Body: "fourth", Score: 1},
	}

	ranked := rankComments(comments, 3)
	if len(ranked) != 3 {
		t.Fatalf("expected 3 comments, got %d", len(ranked))
	}
	if ranked[0].Body != "second" {
		t.Fatalf("highest score must rank first, got %q", ranked[0].Body)
	}
	if ranked[1].Body != "first" || ranked[2].Body != "third" {
		t.Fatalf("ties must keep encounter order, got %q then %q", ranked[1].Body, ranked[2].Body)
	}
}

func TestFormatThread(t *testing.T) {
	t.Parallel()

	thread := &domain.Thread{
		Post: domain.Post{
			Title:       "Interesting result",
			Board:       "testboard",
			Permalink:   "/r/testboard/comments/abc",
			SelfText:    "Some context",
			Score:       42,
			NumComments: 2,
		},
		Comments: []domain.Comment{
			{Body: "top comment", Score: 10, Replies: []domain.Reply{
				{Body: "low reply", Score: 1},
				{Body: "high reply", Score: 7},
			}},
			{Body: "other comment", Score: 3},
		},
	}

	out := formatThread(thread, 10, 5)

	if !strings.HasPrefix(out, "POST: Interesting result\n") {
		t.Fatalf("missing post header: %q", out)
	}
	if !strings.Contains(out, "r/testboard | 42 upvotes | 2 comments") {
		t.Fatalf("missing post stats: %q", out)
	}
	if !strings.Contains(out, "https://reddit.com/r/testboard/comments/abc") {
		t.Fatalf("missing post link: %q", out)
	}
	if !strings.Contains(out, "TOP 2 COMMENTS") {
		t.Fatalf("missing comment count header: %q", out)
	}
	if !strings.Contains(out, "1. (10) top comment") {
		t.Fatalf("missing ranked comment: %q", out)
	}
	if !strings.Contains(out, "1.1. (7) high reply") {
		t.Fatalf("replies must rank by score: %q", out)
	}
	if !strings.Contains(out, "Replies (2):") {
		t.Fatalf("missing reply count: %q", out)
	}
}

func TestFormatBoardSection(t *testing.T) {
	t.Parallel()

	posts := []domain.Post{
		{Title: "Alpha", Board: "testboard", Permalink: "/r/testboard/comments/a", SelfText: strings.Repeat("x", 400), Score: 7, NumComments: 4},
	}

	out := formatBoardSection("testboard", domain.FilterWeek, posts)

	if !strings.HasPrefix(out, "=== TOP POSTS from r/testboard (week) ===") {
		t.Fatalf("missing section header: %q", out)
	}
	if !strings.Contains(out, "1. Alpha") {
		t.Fatalf("missing numbered post: %q", out)
	}
	if strings.Contains(out, strings.Repeat("x", 301)) {
		t.Fatal("post preview must be truncated to 300 characters")
	}
	if !strings.Contains(out, strings.Repeat("x", 300)+"...") {
		t.Fatal("truncated preview must carry ellipsis")
	}
}

func TestFormatEmailsForAnalysis(t *testing.T) {
	t.Parallel()

	emails := []domain.Email{
		{Subject: "Weekly digest", Sender: "news@example.com", Date: "2026-08-28", Body: "Short body."},
		{Subject: "Another one", Sender: "other@example.com", Date: "2026-08-28", Body: strings.Repeat("Long sentence here. ", 600)},
	}

	out := formatEmailsForAnalysis(emails)

	if !strings.HasPrefix(out, "# NEWSLETTER EMAILS (2 total)") {
		t.Fatalf("missing email header: %q", out[:60])
	}
	if !strings.Contains(out, "## EMAIL 1") || !strings.Contains(out, "## EMAIL 2") {
		t.Fatal("missing per-email headers")
	}
	if !strings.Contains(out, "Subject: Weekly digest") {
		t.Fatal("missing subject line")
	}
	if !strings.Contains(out, "[Truncated: 12000 characters total]") {
		t.Fatal("oversized body must carry a truncation marker")
	}
	if !strings.Contains(out, "---") {
		t.Fatal("emails must be separated")
	}
}

func TestFormatEmailsTruncationKeepsRuneBoundaries(t *testing.T) {
	t.Parallel()

	emails := []domain.Email{
		{Subject: "s", Sender: "a@example.com", Date: "2026-08-28", Body: strings.Repeat("観測結果の報告です。", 1500)},
	}

	out := formatEmailsForAnalysis(emails)

	if !utf8.ValidString(out) {
		t.Fatal("email truncation produced invalid utf-8")
	}
	if !strings.Contains(out, "[Truncated: 15000 characters total]") {
		t.Fatal("truncation marker must count characters")
	}
}

func TestFormatEmailsEmpty(t *testing.T) {
	t.Parallel()

	if out := formatEmailsForAnalysis(nil); out != "" {
		t.Fatalf("no emails must produce empty content, got %q", out)
	}
}

func TestBuildSummaryMessage(t *testing.T) {
	t.Parallel()

	msg := buildSummaryMessage(7, []string{"a", "b"}, domain.FilterDay, true)

	if !strings.Contains(msg, "*Analyzed:* 7 posts") {
		t.Fatalf("missing post count: %q", msg)
	}
	if !strings.Contains(msg, "*Subreddits:* a, b") {
		t.Fatalf("missing boards: %q", msg)
	}
	if !strings.Contains(msg, "Audio narration included") {
		t.Fatalf("missing audio note: %q", msg)
	}

	noAudio := buildSummaryMessage(1, []string{"a"}, domain.FilterDay, false)
	if strings.Contains(noAudio, "Audio narration") {
		t.Fatalf("audio note must be conditional: %q", noAudio)
	}
}
