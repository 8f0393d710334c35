package usecase

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"newsagent/internal/domain"
)

const (
	analysisFileName = "analysis.txt"
	rawDataFileName  = "raw_data.txt"
	llmInputFileName = "llm_input.txt"
	emailsFileName   = "emails.json"
	audioFileName    = "audio.wav"
)

// createRunDir makes the run-scoped directory. It is called only after
// analysis succeeds, so aborted runs leave nothing on disk. The runID suffix
// resolves the rare case of two runs starting within the same second.
func createRunDir(outputsDir string, startedAt time.Time, runID string) (string, error) {
	dir := filepath.Join(outputsDir, "run_"+startedAt.Format("2006-01-02_15-04-05"))
	if _, err := os.Stat(dir); err == nil {
		dir = dir + "_" + runID[:8]
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create run directory: %w", err)
	}
	return dir, nil
}

// writeAnalysis writes the report with its header metadata block.
func writeAnalysis(dir string, cfg domain.RunConfig, analysis string, postCount int, generatedAt time.Time) (string, error) {
	var b strings.Builder
	b.WriteString("AI ANALYSIS REPORT\n\n")
	fmt.Fprintf(&b, "Generated: %s\n", generatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Time Filter: %s\n", cfg.TimeFilter)
	fmt.Fprintf(&b, "Model: %s\n", cfg.Model)
	fmt.Fprintf(&b, "Posts Analyzed: %d\n", postCount)
	fmt.Fprintf(&b, "Subreddits: %s\n\n", strings.Join(cfg.BoardNames(), ", "))
	b.WriteString("---\n\n")
	b.WriteString(analysis)

	path := filepath.Join(dir, analysisFileName)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write analysis: %w", err)
	}
	return path, nil
}

func writeRawData(dir, rawData string) (string, error) {
	path := filepath.Join(dir, rawDataFileName)
	if err := os.WriteFile(path, []byte(rawData), 0o644); err != nil {
		return "", fmt.Errorf("write raw data: %w", err)
	}
	return path, nil
}

// writeLLMInput records the exact model payload with byte-length accounting.
func writeLLMInput(dir string, cfg domain.RunConfig, forumData, emailData, combined string, generatedAt time.Time) (string, error) {
	var b strings.Builder
	b.WriteString("LLM INPUT - EXACT PAYLOAD FOR ANALYSIS\n\n")
	fmt.Fprintf(&b, "Generated: %s\n", generatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Model: %s\n", cfg.Model)
	fmt.Fprintf(&b, "Reddit Data Length: %d characters\n", len(forumData))
	fmt.Fprintf(&b, "Email Data Length: %d characters\n", len(emailData))
	fmt.Fprintf(&b, "Combined Length: %d characters\n", len(combined))
	fmt.Fprintf(&b, "Has Email Data: %t\n\n", emailData != "")
	b.WriteString("---\n\n")

	b.WriteString("SYSTEM PROMPT:\n\n")
	b.WriteString(cfg.SystemPrompt)
	b.WriteString("\n\n---\n\n")

	b.WriteString("USER PROMPT:\n\n")
	b.WriteString(cfg.UserPrompt)
	b.WriteString("\n\n---\n\n")

	b.WriteString("REDDIT DATA:\n\n")
	b.WriteString(forumData)
	b.WriteString("\n\n")

	if emailData != "" {
		b.WriteString("---\n\nEMAIL DATA:\n\n")
		b.WriteString(emailData)
		b.WriteString("\n\n")
	}

	b.WriteString("---\n\nFINAL COMBINED CONTENT:\n\n")
	b.WriteString(combined)

	path := filepath.Join(dir, llmInputFileName)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write llm input: %w", err)
	}
	return path, nil
}

func writeEmails(dir string, emails []domain.Email) (string, error) {
	data, err := json.MarshalIndent(emails, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal emails: %w", err)
	}
	path := filepath.Join(dir, emailsFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write emails: %w", err)
	}
	return path, nil
}
