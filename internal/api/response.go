package api

import (
	"encoding/json"
	"net/http"

	"github.com/rohmanhakim/beu-result-proxy/internal/extractor"
)

type statusResponse struct {
	Status string `json:"status"`
}

type examsResponse struct {
	Success bool                    `json:"success"`
	Cached  bool                    `json:"cached"`
	Exams   []extractor.ExamListing `json:"exams"`
}

type resultResponse struct {
	Success bool                  `json:"success"`
	Cached  bool                  `json:"cached"`
	Result  []extractor.ResultRow `json:"result"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type purgeResponse struct {
	Purged int `json:"purged"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Success: false, Error: message})
}
