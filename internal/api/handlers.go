package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rohmanhakim/beu-result-proxy/internal/extractor"
	"github.com/rohmanhakim/beu-result-proxy/internal/render"
	"github.com/rohmanhakim/beu-result-proxy/internal/result"
	"github.com/rohmanhakim/beu-result-proxy/pkg/failure"
	"github.com/rohmanhakim/beu-result-proxy/pkg/hashutil"
)

const (
	msgServiceRunning = "BEU Universal Result Backend Running"
	msgInvalidJSON    = "invalid JSON body"
	msgRenderFailed   = "failed to render document"
	msgInternal       = "internal error"
)

type Renderer interface {
	Render(regNo, examTitle string, rows []extractor.ResultRow) ([]byte, failure.ClassifiedError)
}

func (s *Server) HandleHome(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, statusResponse{Status: msgServiceRunning})
}

func (s *Server) HandleExams(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.ListExams(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, examsResponse{
		Success: true,
		Cached:  res.Cached,
		Exams:   res.Exams,
	})
}

func (s *Server) HandleResult(w http.ResponseWriter, r *http.Request) {
	var req resultRequest
	if _, err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	res, err := s.service.FetchResult(r.Context(), string(req.RegNo), req.Link)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resultResponse{
		Success: true,
		Cached:  res.Cached,
		Result:  res.Result.Rows(),
	})
}

func (s *Server) HandleDownloadPdf(w http.ResponseWriter, r *http.Request) {
	var req pdfRequest
	raw, err := decodeBody(w, r, &req)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	regNo := string(req.RegNo)
	doc, renderErr := s.renderer.Render(regNo, req.ExamTitle, req.Result)
	if renderErr != nil {
		s.logger.Error("render failed", "reg_no", regNo, "error", renderErr)
		s.writeError(w, http.StatusInternalServerError, msgRenderFailed)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+render.FileName(regNo)+`"`)
	w.Header().Set("ETag", hashutil.ETag(raw))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc); err != nil {
		s.logger.Warn("failed to write document", "reg_no", regNo, "error", err)
	}
}

func (s *Server) HandleCacheStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.service.Stats())
}

func (s *Server) HandleCachePurge(w http.ResponseWriter, r *http.Request) {
	purged := s.service.PurgeExpired()
	s.logger.Info("purged expired cache entries", "purged", purged)
	s.writeJSON(w, http.StatusOK, purgeResponse{Purged: purged})
}

// writeServiceError maps the result service error taxonomy onto responses.
// A missing result is a normal answer for a wrong registration number and
// keeps status 200; upstream failures are reported as a bad gateway.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err failure.ClassifiedError) {
	var validationErr *result.ValidationError
	var notFoundErr *result.NotFoundError

	switch {
	case errors.As(err, &validationErr):
		s.writeError(w, http.StatusBadRequest, validationErr.Message)
	case errors.As(err, &notFoundErr):
		s.writeError(w, http.StatusOK, result.MsgResultNotFound)
	case isUpstreamError(err):
		s.logger.Warn("upstream request failed",
			"path", r.URL.Path,
			"recoverable", failure.IsRecoverable(err),
			"error", err,
		)
		s.writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		s.writeError(w, http.StatusInternalServerError, msgInternal)
	}
}

// decodeBody decodes a JSON object into dst and returns the raw body.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) ([]byte, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.New("empty body")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return nil, err
	}
	return raw, nil
}
