package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeFilter selects the period used to rank top posts.
type TimeFilter string

const (
	FilterHour  TimeFilter = "hour"
	FilterDay   TimeFilter = "day"
	FilterWeek  TimeFilter = "week"
	FilterMonth TimeFilter = "month"
	FilterYear  TimeFilter = "year"
	FilterAll   TimeFilter = "all"
)

// Provider-imposed ceilings. Reddit caps listing pages at 10 items for the
// unauthenticated-style top queries this tool issues, and comment expansion
// past these depths requires extra replace-more round trips.
const (
	MaxPostsPerBoard     = 10
	MaxTopComments       = 10
	MaxRepliesPerComment = 5
)

// Valid reports whether the filter is one of the accepted enum values.
func (f TimeFilter) Valid() bool {
	switch f {
	case FilterHour, FilterDay, FilterWeek, FilterMonth, FilterYear, FilterAll:
		return true
	}
	return false
}

// BoardLimit pairs a community name with its post limit. Boards are kept in
// a slice so configured order survives into fetch order.
type BoardLimit struct {
	Name  string
	Limit int
}

// RunConfig is the complete, immutable parameter set for one pipeline run.
// Clamp it once at construction; downstream code assumes limits are in range.
type RunConfig struct {
	Boards            []BoardLimit
	TimeFilter        TimeFilter
	TopComments       int
	RepliesPerComment int

	Model           string
	MaxOutputTokens int
	Temperature     float64
	TopP            float64
	TopK            int
	ThinkingBudget  int

	SystemPrompt string
	UserPrompt   string

	Notify bool

	Narrate          bool
	TTSModel         string
	Voice            string
	ToneInstructions string

	FetchEmails    bool
	EmailAddress   string
	EmailPassword  string
	AllowedSenders []string
	EmailHoursBack int
	MaxEmails      int
}

// Clamp enforces provider ceilings and fills zero values with sane floors.
func (c *RunConfig) Clamp() {
	for i := range c.Boards {
		if c.Boards[i].Limit > MaxPostsPerBoard {
			c.Boards[i].Limit = MaxPostsPerBoard
		}
		if c.Boards[i].Limit < 1 {
			c.Boards[i].Limit = 1
		}
	}
	if c.TopComments > MaxTopComments {
		c.TopComments = MaxTopComments
	}
	if c.TopComments < 1 {
		c.TopComments = 1
	}
	if c.RepliesPerComment > MaxRepliesPerComment {
		c.RepliesPerComment = MaxRepliesPerComment
	}
	if c.RepliesPerComment < 0 {
		c.RepliesPerComment = 0
	}
	if !c.TimeFilter.Valid() {
		c.TimeFilter = FilterDay
	}
}

// BoardNames returns the configured community names in order.
func (c RunConfig) BoardNames() []string {
	names := make([]string, 0, len(c.Boards))
	for _, b := range c.Boards {
		names = append(names, b.Name)
	}
	return names
}

// ParseBoards parses the serialized board form "name:limit, name:limit".
// Entries with a malformed limit are skipped rather than failing the whole
// string, matching how the persisted schedule record has always been read.
func ParseBoards(s string) []BoardLimit {
	var boards []BoardLimit
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, rawLimit, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		limit, err := strconv.Atoi(strings.TrimSpace(rawLimit))
		if err != nil {
			continue
		}
		boards = append(boards, BoardLimit{Name: strings.TrimSpace(name), Limit: limit})
	}
	return boards
}

// FormatBoards is the inverse of ParseBoards.
func FormatBoards(boards []BoardLimit) string {
	parts := make([]string, 0, len(boards))
	for _, b := range boards {
		parts = append(parts, fmt.Sprintf("%s:%d", b.Name, b.Limit))
	}
	return strings.Join(parts, ", ")
}
