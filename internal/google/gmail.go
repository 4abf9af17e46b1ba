package google

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/mail"
	"time"

	"github.com/jhillyerd/enmime"
	"golang.org/x/sync/errgroup"
	gm "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/capitalize-ai/workspace-assistant/internal/model"
)

// GmailClient lists and sends messages for the token holder.
type GmailClient struct {
	opts []option.ClientOption
}

// NewGmailClient creates a client. opts apply to every underlying service.
func NewGmailClient(opts ...option.ClientOption) *GmailClient {
	return &GmailClient{opts: opts}
}

func (c *GmailClient) service(ctx context.Context, token *model.AccessToken) (*gm.Service, error) {
	svc, err := gm.NewService(ctx, clientOptions(c.opts, token)...)
	if err != nil {
		return nil, fmt.Errorf("gmail service: %w", err)
	}
	return svc, nil
}

// ListMessages returns summaries for the newest messages matching query,
// newest first. Individual detail failures are skipped.
func (c *GmailClient) ListMessages(ctx context.Context, token *model.AccessToken, query string, limit int) ([]model.EmailSummary, error) {
	svc, err := c.service(ctx, token)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Users.Messages.List("me").
		Q(query).
		MaxResults(int64(limit)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if len(resp.Messages) == 0 {
		return nil, nil
	}

	details := make([]*model.EmailSummary, len(resp.Messages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(detailConcurrency)
	for i, msg := range resp.Messages {
		i, msg := i, msg
		g.Go(func() error {
			detail, err := svc.Users.Messages.Get("me", msg.Id).
				Format("metadata").
				MetadataHeaders("From", "Subject", "Date").
				Context(gctx).
				Do()
			if err != nil {
				return nil
			}
			headers := headerMap(detail.Payload)
			details[i] = &model.EmailSummary{
				ID:       detail.Id,
				ThreadID: detail.ThreadId,
				From:     headers["From"],
				Subject:  defaultStr(headers["Subject"], "(no subject)"),
				Date:     headers["Date"],
				Snippet:  detail.Snippet,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summaries := make([]model.EmailSummary, 0, len(details))
	for _, d := range details {
		if d != nil {
			summaries = append(summaries, *d)
		}
	}
	return summaries, nil
}

// SendMessage composes a plain-text message and sends it from the token
// holder's mailbox.
func (c *GmailClient) SendMessage(ctx context.Context, token *model.AccessToken, intent model.SendEmailIntent) (*model.SendResult, error) {
	svc, err := c.service(ctx, token)
	if err != nil {
		return nil, err
	}

	from := token.AccountEmail
	if from == "" {
		profile, err := svc.Users.GetProfile("me").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("get profile: %w", err)
		}
		from = profile.EmailAddress
	}

	raw, err := composeMessage(from, intent, time.Now())
	if err != nil {
		return nil, err
	}

	sent, err := svc.Users.Messages.Send("me", &gm.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	return &model.SendResult{ID: sent.Id, ThreadID: sent.ThreadId}, nil
}

// AccountEmail returns the mailbox address the token belongs to.
func (c *GmailClient) AccountEmail(ctx context.Context, token *model.AccessToken) (string, error) {
	svc, err := c.service(ctx, token)
	if err != nil {
		return "", err
	}
	profile, err := svc.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get profile: %w", err)
	}
	return profile.EmailAddress, nil
}

// composeMessage builds an RFC 2822 message encoded as unpadded base64url,
// the form Gmail expects in Message.Raw.
func composeMessage(from string, intent model.SendEmailIntent, date time.Time) (string, error) {
	to, err := mail.ParseAddress(intent.To)
	if err != nil {
		return "", fmt.Errorf("parse recipient %q: %w", intent.To, err)
	}

	part, err := enmime.Builder().
		From("", from).
		To(to.Name, to.Address).
		Subject(intent.Subject).
		Date(date).
		Text([]byte(intent.Body)).
		Build()
	if err != nil {
		return "", fmt.Errorf("build message: %w", err)
	}

	var buf bytes.Buffer
	if err := part.Encode(&buf); err != nil {
		return "", fmt.Errorf("encode message: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// headerMap converts Gmail API headers into a simple key-value map.
func headerMap(payload *gm.MessagePart) map[string]string {
	if payload == nil {
		return map[string]string{}
	}
	m := make(map[string]string, len(payload.Headers))
	for _, h := range payload.Headers {
		m[h.Name] = h.Value
	}
	return m
}

func defaultStr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
