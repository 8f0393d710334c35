package app

import (
	"context"
	"testing"

	"newsagent/internal/domain"
	"newsagent/internal/schedule"
)

type recordingExecutor struct {
	got domain.RunConfig
}

func (r *recordingExecutor) Execute(_ context.Context, cfg domain.RunConfig) (*domain.RunArtifacts, error) {
	r.got = cfg
	return &domain.RunArtifacts{}, nil
}

func TestMailboxRunnerFillsCredentials(t *testing.T) {
	t.Parallel()

	exec := &recordingExecutor{}
	runner := mailboxRunner{runner: exec, address: "inbox@example.com", password: "app-password"}

	_, err := runner.Execute(context.Background(), domain.RunConfig{FetchEmails: true})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	if exec.got.EmailAddress != "inbox@example.com" {
		t.Fatalf("address not filled: %q", exec.got.EmailAddress)
	}
	if exec.got.EmailPassword != "app-password" {
		t.Fatalf("password not filled: %q", exec.got.EmailPassword)
	}
}

func TestMailboxRunnerKeepsCallerCredentials(t *testing.T) {
	t.Parallel()

	exec := &recordingExecutor{}
	runner := mailboxRunner{runner: exec, address: "inbox@example.com", password: "app-password"}

	_, err := runner.Execute(context.Background(), domain.RunConfig{
		EmailAddress:  "other@example.com",
		EmailPassword: "other-password",
	})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	if exec.got.EmailAddress != "other@example.com" || exec.got.EmailPassword != "other-password" {
		t.Fatalf("caller credentials must win, got %q / %q", exec.got.EmailAddress, exec.got.EmailPassword)
	}
}

func TestMailboxRunnerCoversScheduledConfigs(t *testing.T) {
	t.Parallel()

	// The persisted schedule record carries the newsletter flags but never
	// the mailbox credentials; a run materialized from it must still reach
	// the pipeline with them filled.
	stored := schedule.Config{
		Boards:         "testboard:2",
		TimeFilter:     "day",
		FetchEmails:    true,
		AllowedSenders: "news@example.com",
		EmailHoursBack: 24,
		MaxEmails:      5,
	}

	exec := &recordingExecutor{}
	runner := mailboxRunner{runner: exec, address: "inbox@example.com", password: "app-password"}

	if _, err := runner.Execute(context.Background(), stored.RunConfig()); err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	if !exec.got.FetchEmails {
		t.Fatal("newsletter flag lost")
	}
	if exec.got.EmailAddress == "" || exec.got.EmailPassword == "" {
		t.Fatalf("scheduled run reached the pipeline without mailbox credentials: %q / %q",
			exec.got.EmailAddress, exec.got.EmailPassword)
	}
	if len(exec.got.AllowedSenders) != 1 || exec.got.AllowedSenders[0] != "news@example.com" {
		t.Fatalf("allowed senders lost: %v", exec.got.AllowedSenders)
	}
}
