// Package export renders email records to print-styled HTML documents for
// PDF export and JSON download.
package export

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/tebohomanyeli/Timeline-App-Fullstack/db"
)

// Renderer converts one HTML document into a PDF byte stream. The production
// implementation drives a headless browser; tests substitute a stub.
type Renderer interface {
	RenderPDF(ctx context.Context, html []byte) ([]byte, error)
}

const pageStyle = `
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; margin: 20px; }
.email-container { border-bottom: 2px solid #000; padding-bottom: 20px; }
.email-header { padding-bottom: 15px; border-bottom: 1px solid #e0e0e0; margin-bottom: 15px; }
h1 { font-size: 24px; margin: 0 0 10px; }
p { margin: 0 0 5px; color: #333; }
.email-body { margin-top: 20px; font-size: 16px; line-height: 1.6; }
`

var documentTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>{{.Style}}</style>
</head>
<body>
{{- range .Emails}}
<div class="email-container"{{if $.PageBreaks}} style="page-break-after: always;"{{end}}>
	<div class="email-header">
		<h1>{{.Subject}}</h1>
		<p><strong>From:</strong> {{.From}}</p>
		<p><strong>To:</strong> {{.To}}</p>
		<p><strong>Date:</strong> {{.Date}}</p>
	</div>
	<div class="email-body">{{.Body}}</div>
</div>
{{- end}}
</body>
</html>
`))

type documentData struct {
	Style      template.CSS
	PageBreaks bool
	Emails     []emailData
}

type emailData struct {
	Subject string
	From    string
	To      string
	Date    string
	Body    template.HTML
}

// EmailHTML renders one record as a standalone print-styled document.
func EmailHTML(email *db.Email) ([]byte, error) {
	return renderDocument([]*db.Email{email}, false)
}

// EmailsHTML renders all records into one document, one page per record.
func EmailsHTML(emails []*db.Email) ([]byte, error) {
	return renderDocument(emails, true)
}

func renderDocument(emails []*db.Email, pageBreaks bool) ([]byte, error) {
	data := documentData{
		Style:      template.CSS(pageStyle),
		PageBreaks: pageBreaks,
	}
	for _, email := range emails {
		data.Emails = append(data.Emails, emailData{
			Subject: email.Subject,
			From:    email.From,
			To:      strings.Join(email.To, ", "),
			Date:    email.Timestamp.UTC().Format("Mon, 02 Jan 2006 15:04:05 MST"),
			Body:    bodyHTML(email),
		})
	}

	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render export document: %w", err)
	}
	return buf.Bytes(), nil
}

// bodyHTML picks the rendering source for a record: the HTML body when
// present, otherwise the plain content with newlines as line breaks.
func bodyHTML(email *db.Email) template.HTML {
	if email.HTML != "" {
		return template.HTML(email.HTML)
	}
	escaped := template.HTMLEscapeString(email.Content)
	return template.HTML("<p>" + strings.ReplaceAll(escaped, "\n", "<br>") + "</p>")
}
