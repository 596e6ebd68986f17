// Package ingest implements the mbox ingestion pipeline: it streams a
// mailbox file message by message, decodes each into a normalized email
// record, persists attachment payloads to the blob store and the record to
// the database. A run replaces all prior state; it is not additive.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/emersion/go-mbox"
	"github.com/google/uuid"
	"github.com/tebohomanyeli/Timeline-App-Fullstack/db"
	"github.com/tebohomanyeli/Timeline-App-Fullstack/idgen"
	"github.com/tebohomanyeli/Timeline-App-Fullstack/logger"
	"github.com/tebohomanyeli/Timeline-App-Fullstack/pkg/metrics"
)

// RecordStore is the subset of the database used by the pipeline.
type RecordStore interface {
	InsertEmail(ctx context.Context, email *db.Email) error
	DeleteAllEmails(ctx context.Context) (int64, error)
}

// BlobStore is the subset of the attachment store used by the pipeline.
type BlobStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	DeleteAll(ctx context.Context) error
}

// Outcome records what happened to one message of a run.
type Outcome struct {
	Index   int    // zero-based position in the mbox stream
	EmailID string // assigned record id, empty when skipped
	Subject string
	Err     error // nil on success
}

// Skipped reports whether the message was dropped.
func (o Outcome) Skipped() bool { return o.Err != nil }

// Summary aggregates the per-message outcomes of one run.
type Summary struct {
	Ingested int
	Skipped  int
	Outcomes []Outcome
}

// Pipeline orchestrates one ingestion run at a time. Store handles are
// injected at construction; the pipeline never reaches for ambient state.
type Pipeline struct {
	records RecordStore
	blobs   BlobStore

	// Serializes runs: the reset step of one run must not race the inserts
	// of another.
	mu sync.Mutex
}

func NewPipeline(records RecordStore, blobs BlobStore) *Pipeline {
	return &Pipeline{
		records: records,
		blobs:   blobs,
	}
}

// Run ingests one mbox stream. All existing records and attachment blobs are
// deleted first; then messages are processed strictly sequentially, one fully
// persisted before the next begins. A failure confined to a single message
// skips that message and the run continues. Failures of the reset step or of
// the mbox stream itself abort the run.
func (p *Pipeline) Run(ctx context.Context, r io.Reader) (*Summary, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()

	summary, err := p.run(ctx, r)
	if err != nil {
		metrics.IngestRunsTotal.WithLabelValues("failure").Inc()
		return nil, err
	}

	metrics.IngestRunsTotal.WithLabelValues("success").Inc()
	metrics.IngestRunDuration.Observe(time.Since(start).Seconds())

	logger.Info("INGEST: Run complete",
		"ingested", summary.Ingested,
		"skipped", summary.Skipped,
		"duration", time.Since(start))
	return summary, nil
}

func (p *Pipeline) run(ctx context.Context, r io.Reader) (*Summary, error) {
	if err := p.reset(ctx); err != nil {
		return nil, err
	}

	summary := &Summary{}
	reader := mbox.NewReader(r)

	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		msgReader, err := reader.NextMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("mbox stream failed at message %d: %w", index, err)
		}

		raw, err := io.ReadAll(msgReader)
		if err != nil {
			return nil, fmt.Errorf("failed to read message %d: %w", index, err)
		}
		if len(bytes.TrimSpace(raw)) == 0 {
			// Empty segment between delimiters, not a message
			index--
			continue
		}

		outcome := p.processMessage(ctx, index, raw)
		summary.Outcomes = append(summary.Outcomes, outcome)
		if outcome.Skipped() {
			summary.Skipped++
			metrics.IngestMessagesTotal.WithLabelValues("skipped").Inc()
			logger.Warn("INGEST: Skipped message",
				"index", outcome.Index, "subject", outcome.Subject, "error", outcome.Err)
		} else {
			summary.Ingested++
			metrics.IngestMessagesTotal.WithLabelValues("ingested").Inc()
		}
	}

	return summary, nil
}

// reset deletes all existing records and attachment blobs. An already-empty
// blob namespace is a success, so re-running reset is harmless.
func (p *Pipeline) reset(ctx context.Context) error {
	deleted, err := p.records.DeleteAllEmails(ctx)
	if err != nil {
		return fmt.Errorf("reset: failed to clear email records: %w", err)
	}
	if err := p.blobs.DeleteAll(ctx); err != nil {
		return fmt.Errorf("reset: failed to clear attachment store: %w", err)
	}
	logger.Info("INGEST: Cleared prior state", "records_deleted", deleted)
	return nil
}

// processMessage decodes one raw message, persists its attachments, then the
// record itself. Any failure yields a skipped outcome; blobs already written
// for the message are removed again so no orphaned blob carries a reference
// from a record that was never inserted.
func (p *Pipeline) processMessage(ctx context.Context, index int, raw []byte) Outcome {
	decoded, err := DecodeMessage(raw)
	if err != nil {
		return Outcome{Index: index, Err: err}
	}

	email := decoded.Email
	email.ID = uuid.NewString()

	written := []string{}
	for _, payload := range decoded.Attachments {
		fileID := idgen.New()
		err := p.blobs.Put(ctx, fileID, bytes.NewReader(payload.Content), int64(len(payload.Content)), payload.ContentType)
		if err != nil {
			p.discardBlobs(ctx, written)
			return Outcome{
				Index:   index,
				Subject: email.Subject,
				Err:     fmt.Errorf("failed to store attachment %q: %w", payload.Filename, err),
			}
		}
		written = append(written, fileID)

		email.Attachments = append(email.Attachments, db.Attachment{
			Filename:    payload.Filename,
			ContentType: payload.ContentType,
			Size:        int64(len(payload.Content)),
			FileID:      fileID,
			Disposition: payload.Disposition,
		})
	}

	if err := p.records.InsertEmail(ctx, &email); err != nil {
		p.discardBlobs(ctx, written)
		return Outcome{Index: index, Subject: email.Subject, Err: err}
	}

	return Outcome{Index: index, EmailID: email.ID, Subject: email.Subject}
}

// discardBlobs removes blobs written for a message that was ultimately
// skipped. Best effort: the run continues even if removal fails.
func (p *Pipeline) discardBlobs(ctx context.Context, fileIDs []string) {
	for _, fileID := range fileIDs {
		if err := p.blobs.Delete(ctx, fileID); err != nil {
			logger.Warn("INGEST: Failed to discard orphaned blob", "file_id", fileID, "error", err)
		}
	}
}
