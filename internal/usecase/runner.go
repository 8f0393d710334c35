package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"newsagent/internal/domain"
	"newsagent/internal/ports"
)

// defaultFetchDelay spaces per-post comment fetches apart. A courtesy to the
// provider, not a correctness requirement.
const defaultFetchDelay = 1 * time.Second

// Credentials are the environment-provided secrets a run depends on. The
// mailbox pair is optional and gated by the newsletter flag instead.
type Credentials struct {
	RedditClientID     string
	RedditClientSecret string
	TelegramBotToken   string
	TelegramChatID     string
}

func (c Credentials) missing() []string {
	var names []string
	if c.RedditClientID == "" {
		names = append(names, "REDDIT_CLIENT_ID")
	}
	if c.RedditClientSecret == "" {
		names = append(names, "REDDIT_CLIENT_SECRET")
	}
	if c.TelegramBotToken == "" {
		names = append(names, "TELEGRAM_BOT_TOKEN")
	}
	if c.TelegramChatID == "" {
		names = append(names, "TELEGRAM_CHAT_ID")
	}
	return names
}

// RunnerDeps wires all driven adapters into the orchestration pipeline.
// Newsletter, Narrator and History may be nil; their steps are skipped.
type RunnerDeps struct {
	Forum       ports.ForumClient
	Newsletter  ports.NewsletterClient
	Analyzer    ports.Analyzer
	Narrator    ports.Narrator
	Notifier    ports.Notifier
	History     ports.RunRepository
	Credentials Credentials
	OutputsDir  string
	Logger      *slog.Logger
}

// Runner sequences one complete pipeline execution: fetch, merge, analyze,
// persist, narrate, notify. Steps run strictly in order.
type Runner struct {
	forum      ports.ForumClient
	newsletter ports.NewsletterClient
	analyzer   ports.Analyzer
	narrator   ports.Narrator
	notifier   ports.Notifier
	history    ports.RunRepository
	creds      Credentials
	outputsDir string
	logger     *slog.Logger

	fetchDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	now        func() time.Time
}

// NewRunner constructs the orchestration component.
func NewRunner(deps RunnerDeps) *Runner {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		forum:      deps.Forum,
		newsletter: deps.Newsletter,
		analyzer:   deps.Analyzer,
		narrator:   deps.Narrator,
		notifier:   deps.Notifier,
		history:    deps.History,
		creds:      deps.Credentials,
		outputsDir: deps.OutputsDir,
		logger:     logger,
		fetchDelay: defaultFetchDelay,
		sleep:      sleepCtx,
		now:        time.Now,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Execute runs the full pipeline once. It returns either a complete artifact
// bundle or a RunError; callers never see partial paths.
func (r *Runner) Execute(ctx context.Context, cfg domain.RunConfig) (*domain.RunArtifacts, error) {
	cfg.Clamp()

	if err := r.validate(cfg); err != nil {
		return nil, err
	}

	artifacts, err := r.run(ctx, cfg)
	if err != nil {
		r.logger.Error("run failed", "error", err)
		if cfg.Notify {
			r.notifyError(ctx, err)
		}
		return nil, err
	}
	return artifacts, nil
}

// validate fails fast before any network call is attempted.
func (r *Runner) validate(cfg domain.RunConfig) error {
	if len(cfg.Boards) == 0 {
		return newError(KindConfig, "board configuration is empty")
	}
	if missing := r.creds.missing(); len(missing) > 0 {
		return newError(KindConfig, "missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (r *Runner) run(ctx context.Context, cfg domain.RunConfig) (*domain.RunArtifacts, error) {
	startedAt := r.now()
	runID := uuid.NewString()

	rawData, postCount, err := r.fetchForumData(ctx, cfg)
	if err != nil {
		return nil, err
	}

	emails, emailContent := r.fetchNewsletters(ctx, cfg)

	combined := rawData
	if emailContent != "" {
		combined = rawData + "\n\n---\n\n" + emailContent
	}

	r.logger.Info("running analysis", "model", cfg.Model, "payload_chars", len(combined))
	analysis, err := r.analyzer.Analyze(ctx, ports.AnalysisRequest{
		Model:           cfg.Model,
		SystemPrompt:    cfg.SystemPrompt,
		UserPrompt:      cfg.UserPrompt,
		Payload:         combined,
		MaxOutputTokens: cfg.MaxOutputTokens,
		Temperature:     cfg.Temperature,
		TopP:            cfg.TopP,
		TopK:            cfg.TopK,
		ThinkingBudget:  cfg.ThinkingBudget,
	})
	if err != nil {
		return nil, wrapError(KindAnalysis, err, "analysis request failed")
	}
	if len(strings.TrimSpace(analysis)) < minAnalysisLength {
		return nil, newError(KindAnalysis, "analysis too short or empty (%d characters)", len(strings.TrimSpace(analysis)))
	}

	artifacts, err := r.persist(cfg, runID, startedAt, analysis, rawData, emailContent, combined, emails, postCount)
	if err != nil {
		return nil, err
	}

	r.narrate(ctx, cfg, analysis, artifacts)
	r.notifyResults(ctx, cfg, artifacts)
	r.recordRun(ctx, cfg, artifacts, startedAt)

	r.logger.Info("run complete", "dir", artifacts.Dir, "posts", artifacts.PostCount)
	return artifacts, nil
}

// fetchForumData walks boards in configured order, then fetches each
// discovered post's comment thread with a fixed delay in between. Per-board
// and per-post failures degrade to inline error markers; zero links overall
// is a hard abort.
func (r *Runner) fetchForumData(ctx context.Context, cfg domain.RunConfig) (string, int, error) {
	type linkRef struct {
		link      string
		permalink string
	}

	var links []linkRef
	var boardSections []string
	for _, board := range cfg.Boards {
		r.logger.Info("fetching top posts", "board", board.Name, "limit", board.Limit, "filter", cfg.TimeFilter)
		posts, err := r.forum.TopPosts(ctx, board.Name, board.Limit, cfg.TimeFilter)
		if err != nil {
			r.logger.Warn("board fetch failed", "board", board.Name, "error", err)
			boardSections = append(boardSections, fmt.Sprintf("Error fetching posts from r/%s: %v", board.Name, err))
			continue
		}
		boardSections = append(boardSections, formatBoardSection(board.Name, cfg.TimeFilter, posts))
		for _, p := range posts {
			links = append(links, linkRef{link: p.Link(), permalink: p.Permalink})
		}
	}

	if len(links) == 0 {
		return "", 0, newError(KindFetch, "no posts found from any board")
	}

	var b strings.Builder
	b.WriteString("REDDIT RAW DATA - POSTS AND COMMENTS\n")
	b.WriteString(sectionSeparator + "\n\n")
	b.WriteString(strings.Join(boardSections, "\n\n"))
	b.WriteString("\n\n" + sectionSeparator + "\n\n")

	for i, ref := range links {
		var block string
		thread, err := r.forum.Thread(ctx, ref.permalink)
		if err != nil {
			r.logger.Warn("thread fetch failed", "link", ref.link, "error", err)
			block = fmt.Sprintf("Error fetching comments from %s: %v", ref.link, err)
		} else {
			block = formatThread(thread, cfg.TopComments, cfg.RepliesPerComment)
		}

		fmt.Fprintf(&b, "LINK: %s\n\n%s\n\n%s\n\n", ref.link, block, sectionSeparator)

		if i < len(links)-1 {
			if err := r.sleep(ctx, r.fetchDelay); err != nil {
				return "", 0, wrapError(KindFetch, err, "interrupted between post fetches")
			}
		}
	}

	return b.String(), len(links), nil
}

// fetchNewsletters is best-effort: any failure degrades to empty content.
func (r *Runner) fetchNewsletters(ctx context.Context, cfg domain.RunConfig) ([]domain.Email, string) {
	if !cfg.FetchEmails || r.newsletter == nil {
		return nil, ""
	}
	if cfg.EmailAddress == "" || cfg.EmailPassword == "" || len(cfg.AllowedSenders) == 0 {
		r.logger.Info("newsletter fetch skipped, mailbox not configured")
		return nil, ""
	}

	r.logger.Info("fetching newsletters", "senders", len(cfg.AllowedSenders), "hours_back", cfg.EmailHoursBack)
	emails, err := r.newsletter.FetchEmails(ctx, cfg.AllowedSenders, cfg.EmailHoursBack, cfg.MaxEmails)
	if err != nil {
		r.logger.Warn("newsletter fetch failed, continuing without emails", "error", err)
		return nil, ""
	}
	if len(emails) == 0 {
		r.logger.Info("no newsletters found")
		return nil, ""
	}

	return emails, formatEmailsForAnalysis(emails)
}

func (r *Runner) persist(cfg domain.RunConfig, runID string, startedAt time.Time, analysis, rawData, emailContent, combined string, emails []domain.Email, postCount int) (*domain.RunArtifacts, error) {
	dir, err := createRunDir(r.outputsDir, startedAt, runID)
	if err != nil {
		return nil, wrapError(KindPersist, err, "create run directory")
	}

	analysisPath, err := writeAnalysis(dir, cfg, analysis, postCount, r.now())
	if err != nil {
		return nil, wrapError(KindPersist, err, "save analysis")
	}
	rawPath, err := writeRawData(dir, rawData)
	if err != nil {
		return nil, wrapError(KindPersist, err, "save raw data")
	}
	llmPath, err := writeLLMInput(dir, cfg, rawData, emailContent, combined, r.now())
	if err != nil {
		return nil, wrapError(KindPersist, err, "save llm input")
	}

	emailsPath := ""
	if len(emails) > 0 {
		emailsPath, err = writeEmails(dir, emails)
		if err != nil {
			return nil, wrapError(KindPersist, err, "save emails")
		}
	}

	return &domain.RunArtifacts{
		RunID:        runID,
		Dir:          dir,
		AnalysisPath: analysisPath,
		RawDataPath:  rawPath,
		LLMInputPath: llmPath,
		EmailsPath:   emailsPath,
		PostCount:    postCount,
	}, nil
}

// narrate is optional; failure degrades to "no audio" without failing the run.
func (r *Runner) narrate(ctx context.Context, cfg domain.RunConfig, analysis string, artifacts *domain.RunArtifacts) {
	if !cfg.Narrate || cfg.TTSModel == "" || cfg.Voice == "" || r.narrator == nil {
		return
	}

	r.logger.Info("generating narration", "model", cfg.TTSModel, "voice", cfg.Voice)
	audio, err := r.narrator.Synthesize(ctx, ports.NarrationRequest{
		Model:            cfg.TTSModel,
		Voice:            cfg.Voice,
		ToneInstructions: cfg.ToneInstructions,
		Text:             analysis,
	})
	if err != nil {
		r.logger.Warn("narration failed, continuing without audio", "error", err)
		return
	}

	path := filepath.Join(artifacts.Dir, audioFileName)
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		r.logger.Warn("saving narration failed, continuing without audio", "error", err)
		return
	}
	artifacts.AudioPath = path
}

// notifyResults pushes the summary, the analysis file and the optional audio
// independently. Notification failure never invalidates the returned bundle.
func (r *Runner) notifyResults(ctx context.Context, cfg domain.RunConfig, artifacts *domain.RunArtifacts) {
	if !cfg.Notify || r.notifier == nil {
		return
	}

	message := buildSummaryMessage(artifacts.PostCount, cfg.BoardNames(), cfg.TimeFilter, artifacts.AudioPath != "")

	ok := true
	if err := r.notifier.SendMessage(ctx, message); err != nil {
		r.logger.Warn("notification message failed", "error", err)
		ok = false
	}
	if err := r.notifier.SendDocument(ctx, artifacts.AnalysisPath, "Full AI Analysis Report"); err != nil {
		r.logger.Warn("notification document failed", "error", err)
		ok = false
	}
	if artifacts.AudioPath != "" {
		if err := r.notifier.SendAudio(ctx, artifacts.AudioPath, "Audio Narration of Analysis"); err != nil {
			r.logger.Warn("notification audio failed", "error", err)
			ok = false
		}
	}

	if ok {
		r.logger.Info("results sent to notification channel")
	} else {
		r.logger.Warn("notification partially failed")
	}
}

// notifyError is guarded so a notification failure cannot mask the original
// run error.
func (r *Runner) notifyError(ctx context.Context, runErr error) {
	if r.notifier == nil {
		return
	}
	message := fmt.Sprintf("*Error in analysis run*\n\n```%v```", runErr)
	if err := r.notifier.SendMessage(ctx, message); err != nil {
		r.logger.Warn("error notification failed", "error", err)
	}
}

// recordRun is a best-effort audit write; failures are logged only.
func (r *Runner) recordRun(ctx context.Context, cfg domain.RunConfig, artifacts *domain.RunArtifacts, startedAt time.Time) {
	if r.history == nil {
		return
	}
	rec := domain.RunRecord{
		ID:           artifacts.RunID,
		StartedAt:    startedAt,
		TimeFilter:   string(cfg.TimeFilter),
		Model:        cfg.Model,
		Boards:       cfg.BoardNames(),
		PostCount:    artifacts.PostCount,
		AnalysisPath: artifacts.AnalysisPath,
		Status:       "completed",
	}
	if err := r.history.SaveRun(ctx, rec); err != nil {
		r.logger.Warn("saving run record failed", "error", err)
	}
}
