package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/tebohomanyeli/Timeline-App-Fullstack/consts"
	"github.com/tebohomanyeli/Timeline-App-Fullstack/db"
	"github.com/tebohomanyeli/Timeline-App-Fullstack/export"
	"github.com/tebohomanyeli/Timeline-App-Fullstack/logger"
)

// Utility functions

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("HTTP API: Error encoding JSON response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"message": message})
}

// Handler functions

// handleUpload accepts one mbox file as a multipart upload and runs the
// ingestion pipeline synchronously. The response is not sent until the run
// completes or fails at the file level.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize)
	}

	file, header, err := r.FormFile("mboxfile")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Multipart field 'mboxfile' is required")
		return
	}
	defer file.Close()

	logger.Info("HTTP API: Ingesting mbox upload", "filename", header.Filename, "size", header.Size)

	summary, err := s.ingestor.Run(r.Context(), file)
	if err != nil {
		logger.Error("HTTP API: Ingestion run failed", "filename", header.Filename, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Error parsing file")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "File uploaded and parsed successfully",
		"ingested": summary.Ingested,
		"skipped":  summary.Skipped,
	})
}

func (s *Server) handleListEmails(w http.ResponseWriter, r *http.Request) {
	emails, err := s.emails.ListEmails(r.Context())
	if err != nil {
		logger.Error("HTTP API: Error fetching emails", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Error fetching emails")
		return
	}
	s.writeJSON(w, http.StatusOK, emails)
}

func (s *Server) handleGetEmail(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	email, err := s.emails.GetEmailByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrEmailNotFound) {
			s.writeError(w, http.StatusNotFound, "Email not found")
			return
		}
		logger.Error("HTTP API: Error fetching email", "id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Error fetching email")
		return
	}
	s.writeJSON(w, http.StatusOK, email)
}

// handleCreateEmail persists one manually entered timeline record.
func (s *Server) handleCreateEmail(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var email db.Email
	if err := json.NewDecoder(r.Body).Decode(&email); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	email.ID = uuid.NewString()
	if email.Timestamp.IsZero() {
		email.Timestamp = time.Now()
	}
	if email.Title == "" {
		email.Title = email.Subject
	}
	if email.Subject == "" {
		email.Subject = email.Title
	}
	email.Normalize()

	if err := s.emails.InsertEmail(r.Context(), &email); err != nil {
		logger.Error("HTTP API: Error creating email", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Error creating email")
		return
	}
	s.writeJSON(w, http.StatusCreated, &email)
}

// handleUpdateEmail replaces one record wholesale. The id in the path wins
// over any id in the body; attachments references are carried over from the
// stored record so a manual edit can never detach blobs silently.
func (s *Server) handleUpdateEmail(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	id := mux.Vars(r)["id"]

	existing, err := s.emails.GetEmailByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrEmailNotFound) {
			s.writeError(w, http.StatusNotFound, "Email not found")
			return
		}
		logger.Error("HTTP API: Error fetching email for update", "id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Error updating email")
		return
	}

	var email db.Email
	if err := json.NewDecoder(r.Body).Decode(&email); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	email.ID = id
	email.Attachments = existing.Attachments
	if email.Timestamp.IsZero() {
		email.Timestamp = existing.Timestamp
	}
	email.Normalize()

	if err := s.emails.UpdateEmail(r.Context(), &email); err != nil {
		if errors.Is(err, db.ErrEmailNotFound) {
			s.writeError(w, http.StatusNotFound, "Email not found")
			return
		}
		logger.Error("HTTP API: Error updating email", "id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Error updating email")
		return
	}
	s.writeJSON(w, http.StatusOK, &email)
}

// handleDeleteEmail removes one record and cascades to its attachment blobs.
func (s *Server) handleDeleteEmail(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	email, err := s.emails.DeleteEmailByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrEmailNotFound) {
			s.writeError(w, http.StatusNotFound, "Email not found")
			return
		}
		logger.Error("HTTP API: Error deleting email", "id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Error deleting email")
		return
	}

	for _, att := range email.Attachments {
		if err := s.blobs.Delete(r.Context(), att.FileID); err != nil {
			logger.Error("HTTP API: Error deleting attachment blob", "id", id, "file_id", att.FileID, "error", err)
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Email deleted successfully"})
}

// handleDeleteAllEmails clears every record and the whole attachment
// namespace. An already-empty blob store is not an error.
func (s *Server) handleDeleteAllEmails(w http.ResponseWriter, r *http.Request) {
	if _, err := s.emails.DeleteAllEmails(r.Context()); err != nil {
		logger.Error("HTTP API: Error clearing all emails", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Error clearing database")
		return
	}
	if err := s.blobs.DeleteAll(r.Context()); err != nil {
		logger.Error("HTTP API: Error clearing attachment store", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Error clearing attachments")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "All emails and attachments cleared successfully"})
}

// handleGetAttachment streams one attachment blob, with a content-disposition
// hint so browsers can display inline-capable types directly.
func (s *Server) handleGetAttachment(w http.ResponseWriter, r *http.Request) {
	fileID := mux.Vars(r)["fileId"]

	contentType, body, err := s.blobs.Get(r.Context(), fileID)
	if err != nil {
		if errors.Is(err, consts.ErrAttachmentNotFound) {
			s.writeError(w, http.StatusNotFound, "No file exists")
			return
		}
		logger.Error("HTTP API: Error fetching attachment", "file_id", fileID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Error fetching attachment")
		return
	}
	defer body.Close()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", fileID))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		logger.Error("HTTP API: Error streaming attachment", "file_id", fileID, "error", err)
	}
}

// handleExportJSON serves all records as a downloadable JSON document.
func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	emails, err := s.emails.ListEmails(r.Context())
	if err != nil {
		logger.Error("HTTP API: Error exporting emails", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Error exporting emails")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=emails.json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(emails); err != nil {
		logger.Error("HTTP API: Error encoding email export", "error", err)
	}
}

// handleExportAllPDF renders every record into one print-styled document and
// converts it to PDF.
func (s *Server) handleExportAllPDF(w http.ResponseWriter, r *http.Request) {
	if s.renderer == nil {
		s.writeError(w, http.StatusServiceUnavailable, "PDF export is disabled")
		return
	}

	emails, err := s.emails.ListEmails(r.Context())
	if err != nil {
		logger.Error("HTTP API: Error exporting all emails as PDF", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Error exporting all emails")
		return
	}

	html, err := export.EmailsHTML(emails)
	if err != nil {
		logger.Error("HTTP API: Error rendering export document", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Error exporting all emails")
		return
	}

	s.servePDF(w, r, html, "all-emails.pdf")
}

// handleExportPDF renders one record to PDF.
func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	if s.renderer == nil {
		s.writeError(w, http.StatusServiceUnavailable, "PDF export is disabled")
		return
	}
	id := mux.Vars(r)["id"]

	email, err := s.emails.GetEmailByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrEmailNotFound) {
			s.writeError(w, http.StatusNotFound, "Email not found")
			return
		}
		logger.Error("HTTP API: Error exporting email as PDF", "id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Error exporting email")
		return
	}

	html, err := export.EmailHTML(email)
	if err != nil {
		logger.Error("HTTP API: Error rendering export document", "id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Error exporting email")
		return
	}

	s.servePDF(w, r, html, fmt.Sprintf("email-%s.pdf", id))
}

func (s *Server) servePDF(w http.ResponseWriter, r *http.Request, html []byte, filename string) {
	pdf, err := s.renderer.RenderPDF(r.Context(), html)
	if err != nil {
		logger.Error("HTTP API: PDF rendering failed", "filename", filename, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Error rendering PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		logger.Error("HTTP API: Error writing PDF response", "filename", filename, "error", err)
	}
}
