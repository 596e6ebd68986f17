package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Attachment describes one attachment of an email record. The payload itself
// lives in the blob store under FileID; the record only carries the reference.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	FileID      string `json:"fileId"`
	Disposition string `json:"disposition,omitempty"` // "inline" or "attachment"
}

// Email is the normalized record for one timeline entry, either parsed from
// an mbox archive or entered manually. The JSON tags are the wire shape
// consumed by the frontend.
type Email struct {
	ID          string       `json:"id"`
	Type        string       `json:"type"`
	SourceName  string       `json:"sourceName"`
	Timestamp   time.Time    `json:"timestamp"`
	From        string       `json:"from"`
	To          []string     `json:"to"`
	CC          []string     `json:"cc"`
	BCC         []string     `json:"bcc"`
	Subject     string       `json:"subject"`
	Title       string       `json:"title"`
	ThreadID    string       `json:"threadId,omitempty"`
	MessageID   string       `json:"messageId,omitempty"`
	InReplyTo   string       `json:"inReplyTo,omitempty"`
	GmailLabels []string     `json:"gmailLabels"`
	Content     string       `json:"content"`
	HTML        string       `json:"html"`
	Tags        []string     `json:"tags"`
	Attachments []Attachment `json:"attachments"`
}

// Normalize fills defaults so that slice fields marshal as [] and the
// type/source discriminators are never empty.
func (e *Email) Normalize() {
	if e.Type == "" {
		e.Type = "email"
	}
	if e.SourceName == "" {
		e.SourceName = "Email"
	}
	if e.To == nil {
		e.To = []string{}
	}
	if e.CC == nil {
		e.CC = []string{}
	}
	if e.BCC == nil {
		e.BCC = []string{}
	}
	if e.GmailLabels == nil {
		e.GmailLabels = []string{}
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
	if e.Attachments == nil {
		e.Attachments = []Attachment{}
	}
}

const emailColumns = `id, type, source_name, timestamp, from_addr, to_addrs, cc_addrs, bcc_addrs,
	subject, title, thread_id, message_id, in_reply_to, gmail_labels, content, html, tags, attachments`

// InsertEmail persists one email record.
func (db *Database) InsertEmail(ctx context.Context, email *Email) error {
	email.Normalize()

	toJSON, ccJSON, bccJSON, labelsJSON, tagsJSON, attJSON, err := marshalEmailFields(email)
	if err != nil {
		return err
	}

	_, err = db.timedExec(ctx, "insert_email", `
		INSERT INTO emails (`+emailColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		email.ID, email.Type, email.SourceName, email.Timestamp, email.From,
		toJSON, ccJSON, bccJSON,
		email.Subject, email.Title, email.ThreadID, email.MessageID, email.InReplyTo,
		labelsJSON, email.Content, email.HTML, tagsJSON, attJSON)
	if err != nil {
		return fmt.Errorf("failed to insert email %s: %w", email.ID, err)
	}
	return nil
}

// UpdateEmail replaces an existing record wholesale. Returns ErrEmailNotFound
// if no record with the given id exists.
func (db *Database) UpdateEmail(ctx context.Context, email *Email) error {
	email.Normalize()

	toJSON, ccJSON, bccJSON, labelsJSON, tagsJSON, attJSON, err := marshalEmailFields(email)
	if err != nil {
		return err
	}

	affected, err := db.timedExec(ctx, "update_email", `
		UPDATE emails SET
			type = $2, source_name = $3, timestamp = $4, from_addr = $5,
			to_addrs = $6, cc_addrs = $7, bcc_addrs = $8,
			subject = $9, title = $10, thread_id = $11, message_id = $12, in_reply_to = $13,
			gmail_labels = $14, content = $15, html = $16, tags = $17, attachments = $18
		WHERE id = $1`,
		email.ID, email.Type, email.SourceName, email.Timestamp, email.From,
		toJSON, ccJSON, bccJSON,
		email.Subject, email.Title, email.ThreadID, email.MessageID, email.InReplyTo,
		labelsJSON, email.Content, email.HTML, tagsJSON, attJSON)
	if err != nil {
		return fmt.Errorf("failed to update email %s: %w", email.ID, err)
	}
	if affected == 0 {
		return ErrEmailNotFound
	}
	return nil
}

// ListEmails returns all records sorted by timestamp, newest first.
func (db *Database) ListEmails(ctx context.Context) ([]*Email, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+emailColumns+`
		FROM emails
		ORDER BY timestamp DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}
	defer rows.Close()

	emails := []*Email{}
	for rows.Next() {
		email, err := scanEmail(rows)
		if err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

// GetEmailByID returns one record or ErrEmailNotFound.
func (db *Database) GetEmailByID(ctx context.Context, id string) (*Email, error) {
	row := db.Pool.QueryRow(ctx, `
		SELECT `+emailColumns+`
		FROM emails
		WHERE id = $1`, id)

	email, err := scanEmail(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEmailNotFound
		}
		return nil, fmt.Errorf("failed to get email %s: %w", id, err)
	}
	return email, nil
}

// DeleteEmailByID removes one record and returns it, so the caller can
// cascade-delete its attachment blobs. Returns ErrEmailNotFound if absent.
func (db *Database) DeleteEmailByID(ctx context.Context, id string) (*Email, error) {
	email, err := db.GetEmailByID(ctx, id)
	if err != nil {
		return nil, err
	}

	affected, err := db.timedExec(ctx, "delete_email", `DELETE FROM emails WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete email %s: %w", id, err)
	}
	if affected == 0 {
		return nil, ErrEmailNotFound
	}
	return email, nil
}

// DeleteAllEmails removes every record and reports how many were removed.
func (db *Database) DeleteAllEmails(ctx context.Context) (int64, error) {
	affected, err := db.timedExec(ctx, "delete_all_emails", `DELETE FROM emails`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete all emails: %w", err)
	}
	return affected, nil
}

func marshalEmailFields(email *Email) (to, cc, bcc, labels, tags, atts []byte, err error) {
	if to, err = json.Marshal(email.To); err != nil {
		return
	}
	if cc, err = json.Marshal(email.CC); err != nil {
		return
	}
	if bcc, err = json.Marshal(email.BCC); err != nil {
		return
	}
	if labels, err = json.Marshal(email.GmailLabels); err != nil {
		return
	}
	if tags, err = json.Marshal(email.Tags); err != nil {
		return
	}
	atts, err = json.Marshal(email.Attachments)
	return
}

func scanEmail(row pgx.Row) (*Email, error) {
	var email Email
	var toJSON, ccJSON, bccJSON, labelsJSON, tagsJSON, attJSON []byte

	err := row.Scan(&email.ID, &email.Type, &email.SourceName, &email.Timestamp, &email.From,
		&toJSON, &ccJSON, &bccJSON,
		&email.Subject, &email.Title, &email.ThreadID, &email.MessageID, &email.InReplyTo,
		&labelsJSON, &email.Content, &email.HTML, &tagsJSON, &attJSON)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(toJSON, &email.To); err != nil {
		return nil, fmt.Errorf("failed to decode to_addrs for %s: %w", email.ID, err)
	}
	if err := json.Unmarshal(ccJSON, &email.CC); err != nil {
		return nil, fmt.Errorf("failed to decode cc_addrs for %s: %w", email.ID, err)
	}
	if err := json.Unmarshal(bccJSON, &email.BCC); err != nil {
		return nil, fmt.Errorf("failed to decode bcc_addrs for %s: %w", email.ID, err)
	}
	if err := json.Unmarshal(labelsJSON, &email.GmailLabels); err != nil {
		return nil, fmt.Errorf("failed to decode gmail_labels for %s: %w", email.ID, err)
	}
	if err := json.Unmarshal(tagsJSON, &email.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags for %s: %w", email.ID, err)
	}
	if err := json.Unmarshal(attJSON, &email.Attachments); err != nil {
		return nil, fmt.Errorf("failed to decode attachments for %s: %w", email.ID, err)
	}

	email.Normalize()
	return &email, nil
}
