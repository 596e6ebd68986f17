package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tebohomanyeli/Timeline-App-Fullstack/db"
	"github.com/tebohomanyeli/Timeline-App-Fullstack/ingest"
	"github.com/tebohomanyeli/Timeline-App-Fullstack/testutils"
)

// stubRenderer returns a fixed byte stream instead of driving a browser.
type stubRenderer struct {
	err error
}

func (r *stubRenderer) RenderPDF(_ context.Context, html []byte) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return append([]byte("%PDF-1.4\n"), html...), nil
}

type testEnv struct {
	router *mux.Router
	emails *testutils.MemoryEmailStore
	blobs  *testutils.FileBasedBlobStore
}

func newTestEnv(t *testing.T, renderer *stubRenderer) *testEnv {
	t.Helper()

	emails := testutils.NewMemoryEmailStore()
	blobs, err := testutils.NewFileBasedBlobStore(t.TempDir())
	require.NoError(t, err)

	options := ServerOptions{Addr: ":0", MaxUploadSize: 1 << 20}
	if renderer != nil {
		options.Renderer = renderer
	}

	server, err := New(emails, blobs, ingest.NewPipeline(emails, blobs), options)
	require.NoError(t, err)

	return &testEnv{
		router: server.setupRoutes(),
		emails: emails,
		blobs:  blobs,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) seedEmail(t *testing.T, email *db.Email) {
	t.Helper()
	email.Normalize()
	require.NoError(t, e.emails.InsertEmail(context.Background(), email))
}

func decodeEmail(t *testing.T, body *bytes.Buffer) db.Email {
	t.Helper()
	var email db.Email
	require.NoError(t, json.NewDecoder(body).Decode(&email))
	return email
}

func TestServerNewRequiresStores(t *testing.T) {
	_, err := New(nil, nil, nil, ServerOptions{})
	assert.Error(t, err)
}

func TestListEmails_Empty(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, "GET", "/api/emails", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestGetEmail_NotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, "GET", "/api/emails/nope", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"Email not found"}`, w.Body.String())
}

func TestCreateAndGetEmail(t *testing.T) {
	env := newTestEnv(t, nil)

	payload := `{"subject":"Manual entry","from":"me@example.com","content":"typed in by hand"}`
	w := env.do(t, "POST", "/api/emails", strings.NewReader(payload))
	require.Equal(t, http.StatusCreated, w.Code)

	created := decodeEmail(t, w.Body)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Manual entry", created.Subject)
	assert.Equal(t, "Manual entry", created.Title)
	assert.Equal(t, "email", created.Type)
	assert.False(t, created.Timestamp.IsZero())

	w = env.do(t, "GET", "/api/emails/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	fetched := decodeEmail(t, w.Body)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "typed in by hand", fetched.Content)
}

func TestCreateEmail_InvalidBody(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, "POST", "/api/emails", strings.NewReader("{not json"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateEmail(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedEmail(t, &db.Email{
		ID:        "e1",
		Subject:   "Before",
		Timestamp: time.Date(2015, 1, 1, 10, 0, 0, 0, time.UTC),
		Attachments: []db.Attachment{
			{Filename: "doc.pdf", FileID: "file-1", ContentType: "application/pdf"},
		},
	})

	payload := `{"id":"ignored","subject":"After","title":"After","attachments":[]}`
	w := env.do(t, "PUT", "/api/emails/e1", strings.NewReader(payload))
	require.Equal(t, http.StatusOK, w.Code)

	updated := decodeEmail(t, w.Body)
	assert.Equal(t, "e1", updated.ID)
	assert.Equal(t, "After", updated.Subject)
	// Attachment references survive edits and cannot be detached via PUT
	require.Len(t, updated.Attachments, 1)
	assert.Equal(t, "file-1", updated.Attachments[0].FileID)
	// Missing timestamp in the body keeps the stored one
	assert.Equal(t, time.Date(2015, 1, 1, 10, 0, 0, 0, time.UTC), updated.Timestamp.UTC())
}

func TestUpdateEmail_NotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, "PUT", "/api/emails/nope", strings.NewReader(`{"subject":"x"}`))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteEmail_CascadesToAttachments(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	require.NoError(t, env.blobs.Put(ctx, "file-1", strings.NewReader("hello"), 5, "text/plain"))
	env.seedEmail(t, &db.Email{
		ID:      "e1",
		Subject: "With attachment",
		Attachments: []db.Attachment{
			{Filename: "a.txt", FileID: "file-1", ContentType: "text/plain", Size: 5},
		},
	})

	w := env.do(t, "DELETE", "/api/emails/e1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 0, env.emails.Count())
	exists, err := env.blobs.Exists(ctx, "file-1")
	require.NoError(t, err)
	assert.False(t, exists, "attachment blob should be removed with its record")
}

func TestDeleteEmail_NotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, "DELETE", "/api/emails/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteAllEmails(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	require.NoError(t, env.blobs.Put(ctx, "file-1", strings.NewReader("hello"), 5, "text/plain"))
	env.seedEmail(t, &db.Email{ID: "e1", Subject: "One"})
	env.seedEmail(t, &db.Email{ID: "e2", Subject: "Two"})

	w := env.do(t, "DELETE", "/api/emails", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, env.emails.Count())
	assert.Empty(t, env.blobs.Keys())

	// Clearing an already-empty system succeeds the same way
	w = env.do(t, "DELETE", "/api/emails", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetAttachment(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	require.NoError(t, env.blobs.Put(ctx, "file-1", strings.NewReader("hello world"), 11, "text/plain"))

	w := env.do(t, "GET", "/api/attachments/file-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "inline")
	assert.Equal(t, "hello world", w.Body.String())
}

func TestGetAttachment_NotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, "GET", "/api/attachments/nope", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"No file exists"}`, w.Body.String())
}

func uploadRequest(t *testing.T, mboxContent string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("mboxfile", "archive.mbox")
	require.NoError(t, err)
	_, err = part.Write([]byte(mboxContent))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestUpload(t *testing.T) {
	env := newTestEnv(t, nil)

	mboxContent := "From alice@example.com Thu Jan  1 00:00:00 2015\n" +
		"From: alice@example.com\n" +
		"Subject: Uploaded\n" +
		"Date: Thu, 01 Jan 2015 10:00:00 +0000\n" +
		"\n" +
		"Body.\n"

	body, contentType := uploadRequest(t, mboxContent)
	req := httptest.NewRequest("POST", "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, float64(1), response["ingested"])
	assert.Equal(t, float64(0), response["skipped"])
	assert.Equal(t, 1, env.emails.Count())
}

func TestUpload_MissingFile(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest("POST", "/api/upload", strings.NewReader("not multipart"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpload_RunFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.emails.SetDeleteAllError(errors.New("database down"))

	body, contentType := uploadRequest(t, "From a@b Thu Jan  1 00:00:00 2015\nFrom: a@b\n\nx\n")
	req := httptest.NewRequest("POST", "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"Error parsing file"}`, w.Body.String())
}

func TestExportJSON(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedEmail(t, &db.Email{ID: "e1", Subject: "One"})

	w := env.do(t, "GET", "/api/emails/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=emails.json", w.Header().Get("Content-Disposition"))

	var emails []db.Email
	require.NoError(t, json.NewDecoder(w.Body).Decode(&emails))
	require.Len(t, emails, 1)
	assert.Equal(t, "One", emails[0].Subject)
}

func TestExportPDF_DisabledWithoutRenderer(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedEmail(t, &db.Email{ID: "e1", Subject: "One"})

	w := env.do(t, "GET", "/api/emails/export-all", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = env.do(t, "GET", "/api/emails/export/e1", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestExportAllPDF(t *testing.T) {
	env := newTestEnv(t, &stubRenderer{})
	env.seedEmail(t, &db.Email{ID: "e1", Subject: "One"})
	env.seedEmail(t, &db.Email{ID: "e2", Subject: "Two"})

	w := env.do(t, "GET", "/api/emails/export-all", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=all-emails.pdf", w.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
	assert.Contains(t, w.Body.String(), "One")
	assert.Contains(t, w.Body.String(), "Two")
}

func TestExportPDF_SingleEmail(t *testing.T) {
	env := newTestEnv(t, &stubRenderer{})
	env.seedEmail(t, &db.Email{ID: "e1", Subject: "One"})

	w := env.do(t, "GET", "/api/emails/export/e1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "attachment; filename=email-e1.pdf", w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Body.String(), "One")
}

func TestExportPDF_NotFound(t *testing.T) {
	env := newTestEnv(t, &stubRenderer{})

	w := env.do(t, "GET", "/api/emails/export/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportPDF_RenderFailure(t *testing.T) {
	env := newTestEnv(t, &stubRenderer{err: errors.New("browser crashed")})
	env.seedEmail(t, &db.Email{ID: "e1", Subject: "One"})

	w := env.do(t, "GET", "/api/emails/export/e1", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
