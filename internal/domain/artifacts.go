package domain

import "time"

// RunArtifacts are the file paths produced by one completed run. Every path
// lives under Dir; optional steps leave their path empty.
type RunArtifacts struct {
	RunID        string
	Dir          string
	AnalysisPath string
	RawDataPath  string
	LLMInputPath string
	EmailsPath   string
	AudioPath    string
	PostCount    int
}

// RunRecord is the audit row persisted per completed run.
type RunRecord struct {
	ID           string
	StartedAt    time.Time
	TimeFilter   string
	Model        string
	Boards       []string
	PostCount    int
	AnalysisPath string
	Status       string
}
