// Package schedule owns the persisted daily-trigger state and the background
// timer loop that fires the run pipeline.
package schedule

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"newsagent/internal/domain"
)

// Config is the run configuration embedded in the persisted schedule record.
// Fields are plain strings, ints and bools so the record round-trips
// losslessly; boards use the serialized "name:limit, name:limit" form.
type Config struct {
	Boards            string  `json:"subreddits"`
	TimeFilter        string  `json:"time_filter"`
	TopComments       int     `json:"top_comments"`
	RepliesPerComment int     `json:"replies_per_comment"`
	Model             string  `json:"model"`
	MaxOutputTokens   int     `json:"max_output_tokens"`
	Temperature       float64 `json:"temperature"`
	TopP              float64 `json:"top_p"`
	TopK              int     `json:"top_k"`
	ThinkingBudget    int     `json:"thinking_budget"`
	SystemPrompt      string  `json:"system_prompt"`
	UserPrompt        string  `json:"user_prompt"`
	Narrate           bool    `json:"generate_tts"`
	TTSModel          string  `json:"tts_model"`
	Voice             string  `json:"voice_name"`
	ToneInstructions  string  `json:"tone_instructions"`
	FetchEmails       bool    `json:"fetch_emails"`
	AllowedSenders    string  `json:"allowed_senders"`
	EmailHoursBack    int     `json:"email_hours_back"`
	MaxEmails         int     `json:"max_emails"`
}

// RunConfig materializes the persisted record into a clamped domain value.
func (c Config) RunConfig() domain.RunConfig {
	cfg := domain.RunConfig{
		Boards:            domain.ParseBoards(c.Boards),
		TimeFilter:        domain.TimeFilter(c.TimeFilter),
		TopComments:       c.TopComments,
		RepliesPerComment: c.RepliesPerComment,
		Model:             c.Model,
		MaxOutputTokens:   c.MaxOutputTokens,
		Temperature:       c.Temperature,
		TopP:              c.TopP,
		TopK:              c.TopK,
		ThinkingBudget:    c.ThinkingBudget,
		SystemPrompt:      c.SystemPrompt,
		UserPrompt:        c.UserPrompt,
		Narrate:           c.Narrate,
		TTSModel:          c.TTSModel,
		Voice:             c.Voice,
		ToneInstructions:  c.ToneInstructions,
		FetchEmails:       c.FetchEmails,
		AllowedSenders:    splitTrim(c.AllowedSenders),
		EmailHoursBack:    c.EmailHoursBack,
		MaxEmails:         c.MaxEmails,
	}
	cfg.Clamp()
	return cfg
}

// ConfigFromRun is the inverse of Config.RunConfig, used when a caller saves
// a schedule built from an in-memory run configuration.
func ConfigFromRun(cfg domain.RunConfig) Config {
	return Config{
		Boards:            domain.FormatBoards(cfg.Boards),
		TimeFilter:        string(cfg.TimeFilter),
		TopComments:       cfg.TopComments,
		RepliesPerComment: cfg.RepliesPerComment,
		Model:             cfg.Model,
		MaxOutputTokens:   cfg.MaxOutputTokens,
		Temperature:       cfg.Temperature,
		TopP:              cfg.TopP,
		TopK:              cfg.TopK,
		ThinkingBudget:    cfg.ThinkingBudget,
		SystemPrompt:      cfg.SystemPrompt,
		UserPrompt:        cfg.UserPrompt,
		Narrate:           cfg.Narrate,
		TTSModel:          cfg.TTSModel,
		Voice:             cfg.Voice,
		ToneInstructions:  cfg.ToneInstructions,
		FetchEmails:       cfg.FetchEmails,
		AllowedSenders:    joinTrim(cfg.AllowedSenders),
		EmailHoursBack:    cfg.EmailHoursBack,
		MaxEmails:         cfg.MaxEmails,
	}
}

// State is the process-wide schedule record persisted across restarts.
type State struct {
	Enabled  bool   `json:"enabled"`
	Hour     int    `json:"hour"`
	Minute   int    `json:"minute"`
	Timezone string `json:"timezone"`
	Config   Config `json:"config"`
}

// DefaultState matches the record created on first load when no file exists.
func DefaultState() State {
	return State{
		Enabled:  false,
		Hour:     7,
		Minute:   0,
		Timezone: "Etc/UTC",
	}
}

// Store reads and writes the schedule record on disk. The disk copy is the
// source of truth; in-memory scheduler fields cache the last saved/loaded
// record.
type Store struct {
	path string
}

// NewStore locates the persisted record.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted state. A missing file returns the defaults with
// no error; a malformed file returns defaults plus the parse error so the
// caller can log and carry on.
func (s *Store) Load() (State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultState(), nil
		}
		return DefaultState(), fmt.Errorf("read schedule state: %w", err)
	}

	state := DefaultState()
	if err := json.Unmarshal(data, &state); err != nil {
		return DefaultState(), fmt.Errorf("parse schedule state: %w", err)
	}
	return state, nil
}

// Save atomically overwrites the record with the full new state. Callers
// changing a subset of fields must load first and pass back a merged record.
func (s *Store) Save(state State) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create schedule directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schedule state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write schedule state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename schedule state: %w", err)
	}
	return nil
}

func splitTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func joinTrim(items []string) string {
	return strings.Join(items, ", ")
}
