package usecase

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"newsagent/internal/domain"
)

func TestCreateRunDirCollisionGetsSuffix(t *testing.T) {
	t.Parallel()

	outputs := t.TempDir()
	startedAt := time.Date(2026, time.August, 29, 7, 0, 0, 0, time.UTC)

	first, err := createRunDir(outputs, startedAt, "aaaaaaaa-1111-2222-3333-444444444444")
	if err != nil {
		t.Fatalf("first createRunDir: %v", err)
	}
	second, err := createRunDir(outputs, startedAt, "bbbbbbbb-1111-2222-3333-444444444444")
	if err != nil {
		t.Fatalf("second createRunDir: %v", err)
	}

	if first == second {
		t.Fatalf("same-second runs must get distinct directories: %s", first)
	}
	if filepath.Base(first) != "run_2026-08-29_07-00-00" {
		t.Fatalf("unexpected first dir name: %s", first)
	}
	if !strings.HasSuffix(second, "_bbbbbbbb") {
		t.Fatalf("collision must append the run id prefix: %s", second)
	}
}

func TestWriteAnalysisHeader(t *testing.T) {
	t.Parallel()

	cfg := domain.RunConfig{
		Boards:     []domain.BoardLimit{{Name: "a", Limit: 1}, {Name: "b", Limit: 2}},
		TimeFilter: domain.FilterWeek,
		Model:      "test-model",
	}
	generatedAt := time.Date(2026, time.August, 29, 7, 0, 30, 0, time.UTC)

	path, err := writeAnalysis(t.TempDir(), cfg, "the analysis body", 3, generatedAt)
	if err != nil {
		t.Fatalf("writeAnalysis: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read analysis: %v", err)
	}
	got := string(data)

	for _, want := range []string{
		"AI ANALYSIS REPORT\n",
		"Generated: 2026-08-29 07:00:30\n",
		"Time Filter: week\n",
		"Model: test-model\n",
		"Posts Analyzed: 3\n",
		"Subreddits: a, b\n",
		"---\n\nthe analysis body",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("analysis file missing %q:\n%s", want, got)
		}
	}
}

func TestWriteLLMInputAccounting(t *testing.T) {
	t.Parallel()

	cfg := domain.RunConfig{Model: "test-model", SystemPrompt: "sys", UserPrompt: "usr"}
	forumData := "forum payload"
	emailData := "email payload"
	combined := forumData + "\n\n---\n\n" + emailData

	path, err := writeLLMInput(t.TempDir(), cfg, forumData, emailData, combined, time.Now())
	if err != nil {
		t.Fatalf("writeLLMInput: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read llm input: %v", err)
	}
	got := string(data)

	if !strings.Contains(got, "Reddit Data Length: 13 characters") {
		t.Fatalf("missing forum accounting:\n%s", got)
	}
	if !strings.Contains(got, "Has Email Data: true") {
		t.Fatalf("missing email flag:\n%s", got)
	}
	for _, section := range []string{"SYSTEM PROMPT:", "USER PROMPT:", "REDDIT DATA:", "EMAIL DATA:", "FINAL COMBINED CONTENT:"} {
		if !strings.Contains(got, section) {
			t.Fatalf("missing section %q:\n%s", section, got)
		}
	}
}

func TestWriteLLMInputWithoutEmails(t *testing.T) {
	t.Parallel()

	cfg := domain.RunConfig{Model: "test-model"}
	path, err := writeLLMInput(t.TempDir(), cfg, "forum", "", "forum", time.Now())
	if err != nil {
		t.Fatalf("writeLLMInput: %v", err)
	}

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "EMAIL DATA:") {
		t.Fatal("email section must be omitted without email data")
	}
	if !strings.Contains(string(data), "Has Email Data: false") {
		t.Fatal("email flag must be false")
	}
}

func TestWriteEmails(t *testing.T) {
	t.Parallel()

	emails := []domain.Email{{Subject: "s", Sender: "a@example.com", Date: "2026-08-29", Body: "b"}}
	path, err := writeEmails(t.TempDir(), emails)
	if err != nil {
		t.Fatalf("writeEmails: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read emails: %v", err)
	}

	var decoded []domain.Email
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("emails file must be valid json: %v", err)
	}
	if len(decoded) != 1 || decoded[0].Subject != "s" {
		t.Fatalf("unexpected decoded emails: %+v", decoded)
	}
}
