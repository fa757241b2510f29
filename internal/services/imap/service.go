// -----------------------------------------------------------------------
// IMAP Service - fetch raw RFC 822 messages for extraction
// -----------------------------------------------------------------------

package imap

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mailticket/internal/common"
)

// MessageSummary identifies a message in the mailbox listing
type MessageSummary struct {
	UID     uint32 `json:"uid" yaml:"uid"`
	Subject string `json:"subject" yaml:"subject"`
	From    string `json:"from" yaml:"from"`
	Date    string `json:"date" yaml:"date"`
}

// Service reads messages from the mailbox configured under [imap]
type Service struct {
	config common.IMAPConfig
	logger arbor.ILogger
}

func NewService(config common.IMAPConfig, logger arbor.ILogger) *Service {
	if config.Mailbox == "" {
		config.Mailbox = "INBOX"
	}
	return &Service{
		config: config,
		logger: logger,
	}
}

// IsConfigured checks if IMAP is configured with minimum required settings
func (s *Service) IsConfigured() bool {
	return s.config.Host != "" && s.config.Username != "" && s.config.Password != ""
}

// connect dials, logs in and selects the mailbox. The connection is dropped when ctx ends.
func (s *Service) connect(ctx context.Context) (*client.Client, *imap.MailboxStatus, func(), error) {
	if !s.IsConfigured() {
		return nil, nil, nil, fmt.Errorf("IMAP not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, nil, err
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	var (
		c   *client.Client
		err error
	)
	if s.config.UseTLS {
		c, err = client.DialTLS(addr, nil)
	} else {
		c, err = client.Dial(addr)
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to IMAP server: %w", err)
	}

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = c.Terminate()
		case <-stop:
		}
	}()
	closeFn := func() {
		close(stop)
		_ = c.Logout()
	}

	if err := c.Login(s.config.Username, s.config.Password); err != nil {
		closeFn()
		return nil, nil, nil, fmt.Errorf("IMAP login failed: %w", err)
	}

	mbox, err := c.Select(s.config.Mailbox, true)
	if err != nil {
		closeFn()
		return nil, nil, nil, fmt.Errorf("failed to select %s: %w", s.config.Mailbox, err)
	}

	return c, mbox, closeFn, nil
}

// Recent lists up to limit of the newest messages, newest first
func (s *Service) Recent(ctx context.Context, limit int) ([]MessageSummary, error) {
	c, mbox, closeFn, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	if mbox.Messages == 0 {
		return []MessageSummary{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	from := uint32(1)
	if mbox.Messages > uint32(limit) {
		from = mbox.Messages - uint32(limit) + 1
	}
	seqSet := new(imap.SeqSet)
	seqSet.AddRange(from, mbox.Messages)

	messages := make(chan *imap.Message, limit)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqSet, []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid}, messages)
	}()

	var out []MessageSummary
	for msg := range messages {
		if msg == nil || msg.Envelope == nil {
			continue
		}
		summary := MessageSummary{UID: msg.Uid, Subject: msg.Envelope.Subject}
		if len(msg.Envelope.From) > 0 {
			summary.From = msg.Envelope.From[0].Address()
		}
		if !msg.Envelope.Date.IsZero() {
			summary.Date = msg.Envelope.Date.Format("2006-01-02 15:04")
		}
		out = append(out, summary)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	// newest first
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Fetch returns the raw RFC 822 source of the message with the given UID,
// or of the newest message when uid is zero
func (s *Service) Fetch(ctx context.Context, uid uint32) ([]byte, error) {
	c, mbox, closeFn, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	if mbox.Messages == 0 {
		return nil, fmt.Errorf("mailbox %s is empty", s.config.Mailbox)
	}

	seqSet := new(imap.SeqSet)
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	if uid == 0 {
		seqSet.AddNum(mbox.Messages)
		go func() {
			done <- c.Fetch(seqSet, items, messages)
		}()
	} else {
		seqSet.AddNum(uid)
		go func() {
			done <- c.UidFetch(seqSet, items, messages)
		}()
	}

	var (
		raw     []byte
		readErr error
	)
	// keep draining so Fetch can finish
	for msg := range messages {
		if msg == nil || raw != nil || readErr != nil {
			continue
		}
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, body); err != nil {
			readErr = err
			continue
		}
		raw = buf.Bytes()
		s.logger.Debug().Uint32("uid", msg.Uid).Int("bytes", len(raw)).Msg("Fetched message")
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch message: %w", err)
	}
	if readErr != nil {
		return nil, fmt.Errorf("failed to read message body: %w", readErr)
	}
	if raw == nil {
		return nil, fmt.Errorf("message %d not found in %s", uid, s.config.Mailbox)
	}

	return raw, nil
}
