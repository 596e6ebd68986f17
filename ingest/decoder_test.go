package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const simpleMessage = "From: Alice <alice@example.com>\r\n" +
	"To: bob@example.com, Carol <carol@example.com>\r\n" +
	"Cc: dave@example.com\r\n" +
	"Subject: Quarterly report\r\n" +
	"Date: Thu, 01 Jan 2015 10:00:00 +0000\r\n" +
	"Message-Id: <msg-1@example.com>\r\n" +
	"In-Reply-To: <msg-0@example.com>\r\n" +
	"X-GM-THRID: 1490000000000000000\r\n" +
	"X-Gmail-Labels: Inbox, Important,,Archived\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"Please find the report attached.\r\n"

func TestDecodeMessage_HeaderMappings(t *testing.T) {
	decoded, err := DecodeMessage([]byte(simpleMessage))
	require.NoError(t, err)

	email := decoded.Email
	assert.Equal(t, "Alice <alice@example.com>", email.From)
	assert.Equal(t, []string{"bob@example.com", "Carol <carol@example.com>"}, email.To)
	assert.Equal(t, []string{"dave@example.com"}, email.CC)
	assert.Equal(t, []string{}, email.BCC)
	assert.Equal(t, "Quarterly report", email.Subject)
	assert.Equal(t, email.Subject, email.Title)
	assert.Equal(t, "1490000000000000000", email.ThreadID)
	assert.Equal(t, "<msg-1@example.com>", email.MessageID)
	assert.Equal(t, "<msg-0@example.com>", email.InReplyTo)
	assert.Equal(t, []string{"Inbox", "Important", "Archived"}, email.GmailLabels)
	assert.Contains(t, email.Content, "Please find the report attached.")

	expected := time.Date(2015, 1, 1, 10, 0, 0, 0, time.UTC)
	assert.True(t, email.Timestamp.Equal(expected), "timestamp %v != %v", email.Timestamp, expected)
}

func TestDecodeMessage_Defaults(t *testing.T) {
	raw := "From: someone@example.com\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"no subject, no date\r\n"

	before := time.Now()
	decoded, err := DecodeMessage([]byte(raw))
	require.NoError(t, err)
	after := time.Now()

	email := decoded.Email
	assert.Equal(t, "No Subject", email.Subject)
	assert.Equal(t, "No Subject", email.Title)
	assert.Empty(t, email.ThreadID)
	assert.Equal(t, []string{}, email.To)
	assert.Equal(t, []string{}, email.CC)
	assert.Equal(t, []string{}, email.BCC)
	assert.Equal(t, []string{}, email.GmailLabels)
	assert.NotNil(t, email.Tags)
	assert.NotNil(t, email.Attachments)

	// Missing Date header falls back to the time of decoding
	assert.False(t, email.Timestamp.Before(before))
	assert.False(t, email.Timestamp.After(after))
}

func TestDecodeMessage_HTMLBodyFallback(t *testing.T) {
	raw := "From: someone@example.com\r\n" +
		"Subject: HTML only\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<p>Hello <b>World</b></p>\r\n"

	decoded, err := DecodeMessage([]byte(raw))
	require.NoError(t, err)

	email := decoded.Email
	assert.Contains(t, email.HTML, "<b>World</b>")
	// Plain content is derived from the HTML body when no text part exists
	assert.Contains(t, email.Content, "Hello")
	assert.Contains(t, email.Content, "World")
	assert.NotContains(t, email.Content, "<b>")
}

const multipartMessage = "From: Alice <alice@example.com>\r\n" +
	"To: bob@example.com\r\n" +
	"Subject: With attachment\r\n" +
	"Date: Fri, 02 Jan 2015 10:00:00 +0000\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=\"XYZZY\"\r\n" +
	"\r\n" +
	"--XYZZY\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"See attachment.\r\n" +
	"--XYZZY\r\n" +
	"Content-Type: application/pdf; name=\"doc.pdf\"\r\n" +
	"Content-Disposition: attachment; filename=\"doc.pdf\"\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"aGVsbG8gd29ybGQ=\r\n" +
	"--XYZZY--\r\n"

func TestDecodeMessage_Attachments(t *testing.T) {
	decoded, err := DecodeMessage([]byte(multipartMessage))
	require.NoError(t, err)

	assert.Contains(t, decoded.Email.Content, "See attachment.")
	require.Len(t, decoded.Attachments, 1)

	att := decoded.Attachments[0]
	assert.Equal(t, "doc.pdf", att.Filename)
	assert.Equal(t, "application/pdf", att.ContentType)
	assert.Equal(t, "attachment", att.Disposition)
	assert.Equal(t, []byte("hello world"), att.Content)

	// Payloads are not carried on the record itself
	assert.Empty(t, decoded.Email.Attachments)
}

func TestDecodeMessage_SanitizesNullBytes(t *testing.T) {
	raw := "From: someone@example.com\r\n" +
		"Subject: bad\x00subject\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"body\r\n"

	decoded, err := DecodeMessage([]byte(raw))
	require.NoError(t, err)
	assert.False(t, strings.ContainsRune(decoded.Email.Subject, '\x00'))
}
