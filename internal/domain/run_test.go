package domain

import (
	"reflect"
	"testing"
)

func TestParseBoards(t *testing.T) {
	t.Parallel()

	got := ParseBoards("LocalLLaMA:10, artificial:5 , MachineLearning:2")
	want := []BoardLimit{
		{Name: "LocalLLaMA", Limit: 10},
		{Name: "artificial", Limit: 5},
		{Name: "MachineLearning", Limit: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseBoards mismatch: %v", got)
	}
}

func TestParseBoardsSkipsMalformedEntries(t *testing.T) {
	t.Parallel()

	got := ParseBoards("good:3, nolimit, bad:x, :5, other:1")
	if len(got) != 3 {
		t.Fatalf("expected 3 parsed entries, got %v", got)
	}
	if got[0].Name != "good" || got[2].Name != "other" {
		t.Fatalf("valid entries must survive in order: %v", got)
	}
}

func TestFormatBoardsRoundTrip(t *testing.T) {
	t.Parallel()

	boards := []BoardLimit{{Name: "a", Limit: 1}, {Name: "b", Limit: 7}}
	s := FormatBoards(boards)
	if s != "a:1, b:7" {
		t.Fatalf("unexpected serialized form: %q", s)
	}
	if !reflect.DeepEqual(ParseBoards(s), boards) {
		t.Fatalf("round trip mismatch: %v", ParseBoards(s))
	}
}

func TestClamp(t *testing.T) {
	t.Parallel()

	cfg := RunConfig{
		Boards:            []BoardLimit{{Name: "a", Limit: 100}, {Name: "b", Limit: 0}},
		TimeFilter:        "fortnight",
		TopComments:       25,
		RepliesPerComment: 9,
	}
	cfg.Clamp()

	if cfg.Boards[0].Limit != MaxPostsPerBoard {
		t.Fatalf("board limit must clamp to %d, got %d", MaxPostsPerBoard, cfg.Boards[0].Limit)
	}
	if cfg.Boards[1].Limit != 1 {
		t.Fatalf("zero limit must floor at 1, got %d", cfg.Boards[1].Limit)
	}
	if cfg.TopComments != MaxTopComments {
		t.Fatalf("comments must clamp to %d, got %d", MaxTopComments, cfg.TopComments)
	}
	if cfg.RepliesPerComment != MaxRepliesPerComment {
		t.Fatalf("replies must clamp to %d, got %d", MaxRepliesPerComment, cfg.RepliesPerComment)
	}
	if cfg.TimeFilter != FilterDay {
		t.Fatalf("invalid filter must fall back to day, got %s", cfg.TimeFilter)
	}
}

func TestPostLink(t *testing.T) {
	t.Parallel()

	p := Post{Permalink: "/r/testboard/comments/abc/title/"}
	if got := p.Link(); got != "https://reddit.com/r/testboard/comments/abc/title/" {
		t.Fatalf("unexpected link: %s", got)
	}
}

func TestBoardNames(t *testing.T) {
	t.Parallel()

	cfg := RunConfig{Boards: []BoardLimit{{Name: "x", Limit: 1}, {Name: "y", Limit: 2}}}
	if got := cfg.BoardNames(); !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Fatalf("unexpected board names: %v", got)
	}
}
