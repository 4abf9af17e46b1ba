package nats

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/capitalize-ai/workspace-assistant/internal/model"
)

const (
	// StreamName is the name of the action audit stream.
	StreamName = "ASSISTANT_ACTIONS"

	// SubjectPrefix is the prefix for all audit subjects.
	SubjectPrefix = "assistant"

	// fetchBatch is how many audit records one page reads.
	fetchBatch = 256

	// maxRecent bounds how many events one listing returns.
	maxRecent = 1000
)

// AuditLog publishes action results to JetStream and reads them back.
type AuditLog struct {
	client *Client
}

// NewAuditLog creates a new audit log.
func NewAuditLog(client *Client) *AuditLog {
	return &AuditLog{client: client}
}

// EnsureStream ensures the audit stream exists with proper configuration.
func (a *AuditLog) EnsureStream(ctx context.Context) error {
	js := a.client.JetStream()

	if _, err := js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      90 * 24 * time.Hour,
		MaxBytes:    1024 * 1024 * 1024,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		DenyDelete:  true,
		Description: "Send-email and create-event action results",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// ActionSubject returns the subject an action result is published on.
func ActionSubject(userID string, kind model.ActionKind) string {
	return fmt.Sprintf("%s.%s.action.%s", SubjectPrefix, subjectToken(userID), kind)
}

// UserFilter returns the filter subject for every action of one user.
func UserFilter(userID string) string {
	return fmt.Sprintf("%s.%s.action.>", SubjectPrefix, subjectToken(userID))
}

// subjectToken hex-encodes an id so any two distinct ids map to distinct,
// wildcard-free subject tokens.
func subjectToken(id string) string {
	if id == "" {
		return "_"
	}
	return hex.EncodeToString([]byte(id))
}

// RecordAction publishes one action event.
func (a *AuditLog) RecordAction(ctx context.Context, event *model.ActionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal action: %w", err)
	}

	subject := ActionSubject(event.UserID, event.Result.Kind)
	if _, err := a.client.JetStream().Publish(ctx, subject, data, jetstream.WithMsgID(event.ID)); err != nil {
		return fmt.Errorf("failed to publish action: %w", err)
	}
	return nil
}

// Recent returns up to limit of the user's newest action events, newest first.
func (a *AuditLog) Recent(ctx context.Context, userID string, limit int) ([]model.ActionEvent, error) {
	consumer, err := a.client.JetStream().CreateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		FilterSubject:     UserFilter(userID),
		AckPolicy:         jetstream.AckNonePolicy,
		DeliverPolicy:     jetstream.DeliverAllPolicy,
		InactiveThreshold: 30 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}
	return readNewest(ctx, consumer, limit)
}

// batchFetcher is the part of a JetStream consumer readNewest pages through.
type batchFetcher interface {
	FetchNoWait(batch int) (jetstream.MessageBatch, error)
}

// readNewest pages through every pending message and keeps the last limit
// events, returned newest first.
func readNewest(ctx context.Context, f batchFetcher, limit int) ([]model.ActionEvent, error) {
	if limit <= 0 || limit > maxRecent {
		limit = maxRecent
	}

	newest := make([]model.ActionEvent, 0, limit)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batch, err := f.FetchNoWait(fetchBatch)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch actions: %w", err)
		}

		received := 0
		for msg := range batch.Messages() {
			received++
			var event model.ActionEvent
			if err := json.Unmarshal(msg.Data(), &event); err != nil {
				continue
			}
			if len(newest) == limit {
				copy(newest, newest[1:])
				newest = newest[:limit-1]
			}
			newest = append(newest, event)
		}
		if err := batch.Error(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("batch error: %w", err)
		}
		if received == 0 {
			break
		}
	}

	slices.Reverse(newest)
	return newest, nil
}
