package ports

import (
	"context"

	"newsagent/internal/domain"
)

// ForumClient pulls posts and comment threads from the forum provider.
type ForumClient interface {
	TopPosts(ctx context.Context, board string, limit int, filter domain.TimeFilter) ([]domain.Post, error)
	Thread(ctx context.Context, permalink string) (*domain.Thread, error)
}

// NewsletterClient retrieves recent messages from an allow-list of senders.
type NewsletterClient interface {
	FetchEmails(ctx context.Context, senders []string, hoursBack, maxEmails int) ([]domain.Email, error)
}

// AnalysisRequest carries one complete inference call.
type AnalysisRequest struct {
	Model           string
	SystemPrompt    string
	UserPrompt      string
	Payload         string
	MaxOutputTokens int
	Temperature     float64
	TopP            float64
	TopK            int
	ThinkingBudget  int
}

// Analyzer sends the composed payload to the hosted language model.
type Analyzer interface {
	Analyze(ctx context.Context, req AnalysisRequest) (string, error)
}

// NarrationRequest describes one speech-synthesis call.
type NarrationRequest struct {
	Model            string
	Voice            string
	ToneInstructions string
	Text             string
}

// Narrator converts analysis text into a playable audio payload.
type Narrator interface {
	Synthesize(ctx context.Context, req NarrationRequest) ([]byte, error)
}

// Notifier pushes results to the fixed messaging destination.
type Notifier interface {
	SendMessage(ctx context.Context, text string) error
	SendDocument(ctx context.Context, path, caption string) error
	SendAudio(ctx context.Context, path, caption string) error
}

// RunRepository records completed runs for history queries.
type RunRepository interface {
	SaveRun(ctx context.Context, rec domain.RunRecord) error
	RecentRuns(ctx context.Context, limit int) ([]domain.RunRecord, error)
}
