// Package mail implements the newsletter adapter over IMAP.
package mail

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	gomail "github.com/emersion/go-message/mail"

	"newsagent/internal/domain"
	"newsagent/internal/ports"
)

// Fetcher retrieves recent messages from an allow-list of senders. A fresh
// IMAP connection is made per fetch; runs are minutes apart at their most
// frequent, so there is nothing to pool.
type Fetcher struct {
	server   string
	port     int
	username string
	password string
	logger   *slog.Logger
}

var _ ports.NewsletterClient = (*Fetcher)(nil)

// NewFetcher wires mailbox credentials and the IMAP endpoint.
func NewFetcher(server string, port int, username, password string, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		server:   server,
		port:     port,
		username: username,
		password: password,
		logger:   logger,
	}
}

// FetchEmails connects, filters the inbox by sender and recency, and returns
// cleaned plain-text messages. Per-sender failures are logged and skipped;
// only connection-level failures surface as errors.
func (f *Fetcher) FetchEmails(ctx context.Context, senders []string, hoursBack, maxEmails int) ([]domain.Email, error) {
	if f.username == "" || f.password == "" {
		return nil, fmt.Errorf("mailbox credentials not configured")
	}

	addr := fmt.Sprintf("%s:%d", f.server, f.port)
	c, err := client.DialTLS(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	defer c.Logout()

	if err := c.Login(f.username, f.password); err != nil {
		return nil, fmt.Errorf("login as %s: %w", f.username, err)
	}

	if _, err := c.Select("INBOX", true); err != nil {
		return nil, fmt.Errorf("select inbox: %w", err)
	}

	since := time.Now().Add(-time.Duration(hoursBack) * time.Hour)

	var emails []domain.Email
	for _, sender := range senders {
		if err := ctx.Err(); err != nil {
			return emails, err
		}

		msgs, err := f.fetchFromSender(c, sender, since, maxEmails)
		if err != nil {
			f.logger.Warn("sender fetch failed", "sender", sender, "error", err)
			continue
		}
		f.logger.Info("sender fetched", "sender", sender, "count", len(msgs))
		emails = append(emails, msgs...)
	}

	return emails, nil
}

func (f *Fetcher) fetchFromSender(c *client.Client, sender string, since time.Time, maxEmails int) ([]domain.Email, error) {
	criteria := imap.NewSearchCriteria()
	criteria.Since = since
	criteria.Header.Add("From", sender)

	ids, err := c.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > maxEmails {
		ids = ids[len(ids)-maxEmails:]
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{section.FetchItem()}

	messages := make(chan *imap.Message, len(ids))
	fetchErr := make(chan error, 1)
	go func() {
		fetchErr <- c.Fetch(seqset, items, messages)
	}()

	var emails []domain.Email
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		email, err := parseMessage(body)
		if err != nil {
			f.logger.Warn("message parse failed", "sender", sender, "error", err)
			continue
		}
		emails = append(emails, email)
	}

	if err := <-fetchErr; err != nil {
		return emails, fmt.Errorf("fetch: %w", err)
	}
	return emails, nil
}

// parseMessage extracts headers and a cleaned text body, preferring the
// text/plain part and falling back to stripped HTML.
func parseMessage(r io.Reader) (domain.Email, error) {
	mr, err := gomail.CreateReader(r)
	if err != nil {
		return domain.Email{}, fmt.Errorf("create reader: %w", err)
	}

	email := domain.Email{Subject: "No Subject"}
	if subject, err := mr.Header.Subject(); err == nil && subject != "" {
		email.Subject = subject
	}
	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		email.Sender = from[0].String()
	}
	if date, err := mr.Header.Date(); err == nil {
		email.Date = date.Format(time.RFC1123Z)
	}

	var plain, html string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		header, ok := part.Header.(*gomail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, err := header.ContentType()
		if err != nil {
			continue
		}

		payload, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}

		switch contentType {
		case "text/plain":
			plain = string(payload)
		case "text/html":
			html = string(payload)
		}
	}

	switch {
	case plain != "":
		email.Body = CleanText(plain)
	case html != "":
		email.Body = HTMLToText(html)
	default:
		email.Body = "Could not extract email content"
	}

	return email, nil
}
