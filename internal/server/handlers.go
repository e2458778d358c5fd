package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/raaihank/bias-auditor/internal/audit"
	"github.com/raaihank/bias-auditor/internal/extract"
	"github.com/raaihank/bias-auditor/internal/history"
	"github.com/raaihank/bias-auditor/internal/upload"
	"go.uber.org/zap"
)

// multipartOverhead is the allowance for boundaries and part headers on top of the file limit
const multipartOverhead = 64 << 10

// uploadFields are the accepted multipart field names for the document
var uploadFields = map[string]bool{"pdf": true, "document": true}

var (
	errMissingFile      = errors.New("no document was uploaded")
	errMalformedRequest = errors.New("malformed request")
)

// ScanRequest is the JSON body accepted by the text scan endpoint
type ScanRequest struct {
	Text string `json:"text"`
}

// ErrorResponse is the JSON body of every failed API call
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// handleIndex serves the upload form
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderer.RenderIndex(w, http.StatusOK, nil, "")
}

// handleUploadForm scans a document posted from the upload form and renders the dashboard
func (s *Server) handleUploadForm(w http.ResponseWriter, r *http.Request) {
	result, err := s.scanMultipart(w, r)
	if err != nil {
		status, msg := s.classifyError(r, err)
		s.renderer.RenderIndex(w, status, nil, msg)
		return
	}
	s.renderer.RenderIndex(w, http.StatusOK, result, "")
}

// handleScanUpload scans a multipart document and returns the report as JSON
func (s *Server) handleScanUpload(w http.ResponseWriter, r *http.Request) {
	result, err := s.scanMultipart(w, r)
	if err != nil {
		status, msg := s.classifyError(r, err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleScanText scans text posted as JSON
func (s *Server) handleScanText(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.Upload.MaxBytes)

	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if !errors.As(err, &maxErr) {
			err = fmt.Errorf("%w: %v", errMalformedRequest, err)
		}
		status, msg := s.classifyError(r, err)
		writeError(w, status, msg)
		return
	}

	result, err := s.service.ScanText(r.Context(), req.Text)
	if err != nil {
		status, msg := s.classifyError(r, err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleDictionary lists the active bias categories
func (s *Server) handleDictionary(w http.ResponseWriter, r *http.Request) {
	dict := s.service.Dictionary()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"categories":  dict,
		"fingerprint": dict.Fingerprint(),
	})
}

// handleHistory lists recent scans, newest first. ?limit= bounds the result.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := history.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		status, msg := s.classifyError(r, err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scans": entries,
		"count": len(entries),
	})
}

// scanMultipart streams the first document part straight into the upload store
func (s *Server) scanMultipart(w http.ResponseWriter, r *http.Request) (*audit.Result, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.Upload.MaxBytes+multipartOverhead)

	reader, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedRequest, err)
	}

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			return nil, errMissingFile
		}
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", errMalformedRequest, err)
		}

		if !uploadFields[part.FormName()] {
			part.Close()
			continue
		}

		defer part.Close()
		if part.FileName() == "" {
			return nil, errMissingFile
		}
		return s.service.ScanUpload(r.Context(), part.FileName(), part)
	}
}

// classifyError maps a scan failure to an HTTP status and a client-safe message
func (s *Server) classifyError(r *http.Request, err error) (int, string) {
	var maxErr *http.MaxBytesError

	switch {
	case errors.Is(err, extract.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType, "unsupported document format"
	case errors.Is(err, upload.ErrTooLarge), errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge, fmt.Sprintf("document exceeds the %d byte limit", s.config.Upload.MaxBytes)
	case errors.Is(err, audit.ErrTextTooLong):
		return http.StatusRequestEntityTooLarge, "text exceeds the length limit"
	case errors.Is(err, upload.ErrEmptyFile):
		return http.StatusBadRequest, "uploaded document is empty"
	case errors.Is(err, errMissingFile):
		return http.StatusBadRequest, "no document was uploaded"
	case errors.Is(err, errMalformedRequest):
		return http.StatusBadRequest, "malformed request"
	case errors.Is(err, extract.ErrUnreadable):
		return http.StatusUnprocessableEntity, "document could not be read"
	}

	s.logger.WithRequestID(audit.RequestID(r.Context())).Error("Scan failed", zap.Error(err))
	return http.StatusInternalServerError, "internal server error"
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Status: status})
}
