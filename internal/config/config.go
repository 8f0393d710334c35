package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"newsagent/internal/domain"
)

const (
	defaultTimezone = "Etc/UTC"

	configPathEnv    = "NEWSAGENT_CONFIG"
	databaseDSNEnv   = "DATABASE_DSN"
	redditIDEnv      = "REDDIT_CLIENT_ID"
	redditSecretEnv  = "REDDIT_CLIENT_SECRET"
	telegramTokenEnv = "TELEGRAM_BOT_TOKEN"
	telegramChatEnv  = "TELEGRAM_CHAT_ID"
	googleKeyEnv     = "GOOGLE_API_KEY"
	emailAddressEnv  = "EMAIL_ADDRESS"
	emailPasswordEnv = "EMAIL_PASSWORD"
	imapServerEnv    = "IMAP_SERVER"
	imapPortEnv      = "IMAP_PORT"
	outputsDirEnv    = "NEWSAGENT_OUTPUTS_DIR"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Database  DatabaseConfig  `yaml:"database"`
	Outputs   OutputsConfig   `yaml:"outputs"`
	Reddit    RedditConfig    `yaml:"reddit"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Email     EmailConfig     `yaml:"email"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Run       RunDefaults     `yaml:"run"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig describes the optional Postgres run-history store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// OutputsConfig locates run artifacts and the persisted schedule record.
type OutputsConfig struct {
	Dir          string `yaml:"dir"`
	ScheduleFile string `yaml:"scheduleFile"`
}

// RedditConfig wires the forum provider credentials.
type RedditConfig struct {
	ClientID     string `yaml:"clientId"`
	ClientSecret string `yaml:"clientSecret"`
	UserAgent    string `yaml:"userAgent"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// GeminiConfig defines how to contact the hosted model APIs.
type GeminiConfig struct {
	APIKey   string `yaml:"apiKey"`
	Endpoint string `yaml:"endpoint"`
}

// EmailConfig holds the optional newsletter mailbox.
type EmailConfig struct {
	Address    string `yaml:"address"`
	Password   string `yaml:"password"`
	IMAPServer string `yaml:"imapServer"`
	IMAPPort   int    `yaml:"imapPort"`
}

// SchedulerConfig defines the default trigger timezone.
type SchedulerConfig struct {
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// RunDefaults seeds a RunConfig for interactive runs that do not override
// every knob. Boards use the serialized "name:limit, name:limit" form.
type RunDefaults struct {
	Boards            string   `yaml:"boards"`
	TimeFilter        string   `yaml:"timeFilter"`
	TopComments       int      `yaml:"topComments"`
	RepliesPerComment int      `yaml:"repliesPerComment"`
	Model             string   `yaml:"model"`
	MaxOutputTokens   int      `yaml:"maxOutputTokens"`
	Temperature       float64  `yaml:"temperature"`
	TopP              float64  `yaml:"topP"`
	TopK              int      `yaml:"topK"`
	ThinkingBudget    int      `yaml:"thinkingBudget"`
	SystemPrompt      string   `yaml:"systemPrompt"`
	UserPrompt        string   `yaml:"userPrompt"`
	TTSModel          string   `yaml:"ttsModel"`
	Voice             string   `yaml:"voice"`
	ToneInstructions  string   `yaml:"toneInstructions"`
	AllowedSenders    []string `yaml:"allowedSenders"`
	EmailHoursBack    int      `yaml:"emailHoursBack"`
	MaxEmails         int      `yaml:"maxEmails"`
}

// RunConfig materializes the defaults into a clamped domain.RunConfig.
func (r RunDefaults) RunConfig() domain.RunConfig {
	cfg := domain.RunConfig{
		Boards:            domain.ParseBoards(r.Boards),
		TimeFilter:        domain.TimeFilter(r.TimeFilter),
		TopComments:       r.TopComments,
		RepliesPerComment: r.RepliesPerComment,
		Model:             r.Model,
		MaxOutputTokens:   r.MaxOutputTokens,
		Temperature:       r.Temperature,
		TopP:              r.TopP,
		TopK:              r.TopK,
		ThinkingBudget:    r.ThinkingBudget,
		SystemPrompt:      r.SystemPrompt,
		UserPrompt:        r.UserPrompt,
		TTSModel:          r.TTSModel,
		Voice:             r.Voice,
		ToneInstructions:  r.ToneInstructions,
		AllowedSenders:    r.AllowedSenders,
		EmailHoursBack:    r.EmailHoursBack,
		MaxEmails:         r.MaxEmails,
	}
	cfg.Clamp()
	return cfg
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	setString := func(env string, target *string) {
		if v := os.Getenv(env); v != "" {
			*target = v
		}
	}

	setString(databaseDSNEnv, &c.Database.DSN)
	setString(redditIDEnv, &c.Reddit.ClientID)
	setString(redditSecretEnv, &c.Reddit.ClientSecret)
	setString(telegramTokenEnv, &c.Telegram.BotToken)
	setString(telegramChatEnv, &c.Telegram.ChatID)
	setString(googleKeyEnv, &c.Gemini.APIKey)
	setString(emailAddressEnv, &c.Email.Address)
	setString(emailPasswordEnv, &c.Email.Password)
	setString(imapServerEnv, &c.Email.IMAPServer)
	setString(outputsDirEnv, &c.Outputs.Dir)

	if v := os.Getenv(imapPortEnv); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Email.IMAPPort = port
		} else {
			log.Printf("config: invalid %s value %q, keeping %d", imapPortEnv, v, c.Email.IMAPPort)
		}
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
		tz = defaultTimezone
	}
	c.Scheduler.Timezone = tz
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}

	if override.Outputs.Dir != "" {
		base.Outputs.Dir = override.Outputs.Dir
	}
	if override.Outputs.ScheduleFile != "" {
		base.Outputs.ScheduleFile = override.Outputs.ScheduleFile
	}

	if override.Reddit.ClientID != "" {
		base.Reddit.ClientID = override.Reddit.ClientID
	}
	if override.Reddit.ClientSecret != "" {
		base.Reddit.ClientSecret = override.Reddit.ClientSecret
	}
	if override.Reddit.UserAgent != "" {
		base.Reddit.UserAgent = override.Reddit.UserAgent
	}

	if override.Telegram.BotToken != "" {
		base.Telegram.BotToken = override.Telegram.BotToken
	}
	if override.Telegram.ChatID != "" {
		base.Telegram.ChatID = override.Telegram.ChatID
	}

	if override.Gemini.APIKey != "" {
		base.Gemini.APIKey = override.Gemini.APIKey
	}
	if override.Gemini.Endpoint != "" {
		base.Gemini.Endpoint = override.Gemini.Endpoint
	}

	if override.Email.Address != "" {
		base.Email.Address = override.Email.Address
	}
	if override.Email.Password != "" {
		base.Email.Password = override.Email.Password
	}
	if override.Email.IMAPServer != "" {
		base.Email.IMAPServer = override.Email.IMAPServer
	}
	if override.Email.IMAPPort != 0 {
		base.Email.IMAPPort = override.Email.IMAPPort
	}

	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	base.Run = mergeRunDefaults(base.Run, override.Run)

	return base
}

func mergeRunDefaults(base, override RunDefaults) RunDefaults {
	if override.Boards != "" {
		base.Boards = override.Boards
	}
	if override.TimeFilter != "" {
		base.TimeFilter = override.TimeFilter
	}
	if override.TopComments != 0 {
		base.TopComments = override.TopComments
	}
	if override.RepliesPerComment != 0 {
		base.RepliesPerComment = override.RepliesPerComment
	}
	if override.Model != "" {
		base.Model = override.Model
	}
	if override.MaxOutputTokens != 0 {
		base.MaxOutputTokens = override.MaxOutputTokens
	}
	if override.Temperature != 0 {
		base.Temperature = override.Temperature
	}
	if override.TopP != 0 {
		base.TopP = override.TopP
	}
	if override.TopK != 0 {
		base.TopK = override.TopK
	}
	if override.ThinkingBudget != 0 {
		base.ThinkingBudget = override.ThinkingBudget
	}
	if override.SystemPrompt != "" {
		base.SystemPrompt = override.SystemPrompt
	}
	if override.UserPrompt != "" {
		base.UserPrompt = override.UserPrompt
	}
	if override.TTSModel != "" {
		base.TTSModel = override.TTSModel
	}
	if override.Voice != "" {
		base.Voice = override.Voice
	}
	if override.ToneInstructions != "" {
		base.ToneInstructions = override.ToneInstructions
	}
	if len(override.AllowedSenders) > 0 {
		base.AllowedSenders = override.AllowedSenders
	}
	if override.EmailHoursBack != 0 {
		base.EmailHoursBack = override.EmailHoursBack
	}
	if override.MaxEmails != 0 {
		base.MaxEmails = override.MaxEmails
	}
	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Outputs: OutputsConfig{
			Dir:          "outputs",
			ScheduleFile: "scheduler/schedule_config.json",
		},
		Reddit: RedditConfig{
			UserAgent: "newsagent/1.0",
		},
		Gemini: GeminiConfig{
			Endpoint: "https://generativelanguage.googleapis.com/v1beta",
		},
		Email: EmailConfig{
			IMAPServer: "imap.gmail.com",
			IMAPPort:   993,
		},
		Scheduler: SchedulerConfig{Timezone: defaultTimezone, location: tz},
		Run: RunDefaults{
			Boards:            "LocalLLaMA:10, artificial:5, MachineLearning:2, OpenAI:2",
			TimeFilter:        string(domain.FilterDay),
			TopComments:       10,
			RepliesPerComment: 5,
			Model:             "gemini-2.5-pro",
			MaxOutputTokens:   65535,
			Temperature:       1.0,
			TopP:              0.95,
			TopK:              64,
			ThinkingBudget:    8192,
			SystemPrompt:      defaultSystemPrompt,
			UserPrompt:        "Analyze the following data and generate your report.",
			TTSModel:          "gemini-2.5-flash-preview-tts",
			Voice:             "Sadaltager",
			AllowedSenders: []string{
				"thebatch@deeplearning.ai",
				"newsletter@openai.com",
			},
			EmailHoursBack: 24,
			MaxEmails:      20,
		},
	}
}

const defaultSystemPrompt = `You are an expert AI research analyst, tasked with filtering and summarizing community discussions and email news for an AI engineer. Deliver a concise, insightful, well-structured report.

For each relevant post, create a section with:

1. Topic: a short, descriptive title for the main discussion.
2. Key Insights: 3-5 clear bullet points distilling takeaways, trends, or conflicting opinions.
3. Most Insightful Comment: quote the single most valuable comment.
4. Source: the direct URL.

Be concise and objective. Summarize findings without adding external opinions.`
