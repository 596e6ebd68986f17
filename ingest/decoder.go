package ingest

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jhillyerd/enmime"
	"github.com/k3a/html2text"
	"github.com/tebohomanyeli/Timeline-App-Fullstack/db"
	"github.com/tebohomanyeli/Timeline-App-Fullstack/helpers"
)

// Gmail Takeout writes provider metadata into these headers.
const (
	headerThreadID    = "X-GM-THRID"
	headerGmailLabels = "X-Gmail-Labels"
)

// defaultSubject is used when a message carries no Subject header.
const defaultSubject = "No Subject"

// AttachmentPayload is one decoded attachment before it has been written to
// the blob store.
type AttachmentPayload struct {
	Filename    string
	ContentType string
	Disposition string
	Content     []byte
}

// DecodedMessage is the output of decoding one raw message: the normalized
// record fields (without id and attachment references, which are assigned at
// persistence time) plus the raw attachment payloads.
type DecodedMessage struct {
	Email       db.Email
	Attachments []AttachmentPayload
}

// DecodeMessage parses one raw RFC 822 message into a DecodedMessage. Header
// lookups are case-insensitive. Missing fields get their documented defaults:
// "No Subject" for the subject/title, time.Now() for the timestamp, empty
// sequences for the address lists and labels.
func DecodeMessage(raw []byte) (*DecodedMessage, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse MIME envelope: %w", err)
	}

	subject := helpers.SanitizeUTF8(env.GetHeader("Subject"))
	if subject == "" {
		subject = defaultSubject
	}

	timestamp, err := env.Date()
	if err != nil || timestamp.IsZero() {
		timestamp = time.Now()
	}

	content := helpers.SanitizeUTF8(env.Text)
	html := helpers.SanitizeUTF8(env.HTML)
	if content == "" && html != "" {
		content = html2text.HTML2Text(html)
	}

	decoded := &DecodedMessage{
		Email: db.Email{
			Timestamp:   timestamp,
			From:        helpers.SanitizeUTF8(env.GetHeader("From")),
			To:          helpers.SplitAddressList(env.GetHeader("To")),
			CC:          helpers.SplitAddressList(env.GetHeader("Cc")),
			BCC:         helpers.SplitAddressList(env.GetHeader("Bcc")),
			Subject:     subject,
			Title:       subject,
			ThreadID:    env.GetHeader(headerThreadID),
			MessageID:   env.GetHeader("Message-Id"),
			InReplyTo:   env.GetHeader("In-Reply-To"),
			GmailLabels: helpers.SplitLabels(env.GetHeader(headerGmailLabels)),
			Content:     content,
			HTML:        html,
		},
	}
	decoded.Email.Normalize()

	for _, part := range env.Attachments {
		decoded.Attachments = append(decoded.Attachments, payloadFromPart(part, "attachment"))
	}
	// Inline parts with a filename (embedded images and the like) are kept
	// too; the disposition distinguishes them on the read path.
	for _, part := range env.Inlines {
		if part.FileName == "" {
			continue
		}
		decoded.Attachments = append(decoded.Attachments, payloadFromPart(part, "inline"))
	}

	return decoded, nil
}

func payloadFromPart(part *enmime.Part, disposition string) AttachmentPayload {
	contentType := part.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return AttachmentPayload{
		Filename:    part.FileName,
		ContentType: contentType,
		Disposition: disposition,
		Content:     part.Content,
	}
}
