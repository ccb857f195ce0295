package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/dealdesk/prospectus/internal/parse"
	"github.com/dealdesk/prospectus/pkg/utils"
)

// uploadedFile walks the multipart parts looking for the "file" field and
// buffers its content. ok is false when no such part exists (including
// non-multipart requests).
func uploadedFile(r *http.Request) (content []byte, filename string, ok bool, err error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, "", false, nil
	}
	for {
		part, perr := mr.NextPart()
		if perr == io.EOF {
			return nil, "", false, nil
		}
		if perr != nil {
			return nil, "", false, perr
		}
		if part.FormName() != "file" {
			continue
		}
		content, err = io.ReadAll(part)
		if err != nil {
			return nil, "", false, err
		}
		return content, part.FileName(), true, nil
	}
}

func (s *Server) handleParsePDF(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes())

	content, filename, ok, err := uploadedFile(r)
	if err != nil {
		// The multipart reader does not always wrap the limit error from
		// MaxBytesReader, so match on the message as well.
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			s.respondError(w, http.StatusRequestEntityTooLarge, "Uploaded file is too large.")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		s.respondError(w, http.StatusBadRequest, "No file part in the request.")
		return
	}
	if filename == "" {
		s.respondError(w, http.StatusBadRequest, "No selected file.")
		return
	}

	text, err := s.extractor.ExtractBytes(content)
	if err != nil {
		s.logger.Error("pdf extraction failed",
			zap.String("filename", filename),
			zap.Int("size", len(content)),
			zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Debug("text extracted",
		zap.String("filename", filename),
		zap.Int("size", len(content)),
		zap.String("preview", utils.Truncate(text, 120)))

	result := parse.ParseKeyData(text)
	if !result.Complete() {
		s.respondJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":     "Could not reliably extract all key information.",
			"extracted": result,
		})
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
