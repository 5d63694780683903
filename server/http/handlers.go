package http

import (
	"encoding/json"
	"net/http"
)

type askRequest struct {
	Question string `json:"question"`
}

type sourceResponse struct {
	Excerpt  string         `json:"excerpt"`
	Metadata map[string]any `json:"metadata"`
	Rank     int            `json:"rank"`
}

type askResponse struct {
	Answer  string           `json:"answer"`
	Sources []sourceResponse `json:"sources"`
	Success bool             `json:"success"`
	Error   string           `json:"error,omitempty"`
}

type ingestRequest struct {
	Paths     []string `json:"paths,omitempty"`
	Directory string   `json:"directory,omitempty"`
}

type skippedResponse struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

type ingestResponse struct {
	Chunks  int               `json:"chunks"`
	Skipped []skippedResponse `json:"skipped,omitempty"`
}

type collectionResponse struct {
	Collection string `json:"collection"`
	Records    int    `json:"records"`
}

type memoryResponse struct {
	Turns  int `json:"turns"`
	Window int `json:"window"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answer := s.session.Ask(r.Context(), req.Question)

	rsp := askResponse{
		Answer:  answer.Answer,
		Success: answer.Success,
		Error:   answer.Error,
		Sources: make([]sourceResponse, 0, len(answer.Sources)),
	}
	for _, src := range answer.Sources {
		rsp.Sources = append(rsp.Sources, sourceResponse{
			Excerpt:  src.Excerpt,
			Metadata: src.Metadata,
			Rank:     src.Rank,
		})
	}

	writeJSON(w, http.StatusOK, rsp)
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result := s.session.IngestFiles(r.Context(), req.Paths)

	if len(req.Directory) > 0 {
		fromDir := s.session.IngestDirectory(r.Context(), req.Directory)
		result.Chunks += fromDir.Chunks
		result.Skipped = append(result.Skipped, fromDir.Skipped...)
	}

	rsp := ingestResponse{
		Chunks: result.Chunks,
	}
	for _, skipped := range result.Skipped {
		rsp.Skipped = append(rsp.Skipped, skippedResponse{
			Path:   skipped.Path,
			Reason: skipped.Reason,
		})
	}

	writeJSON(w, http.StatusOK, rsp)
}

func (s *Server) handleCollectionInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.session.CollectionInfo(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, collectionResponse{
		Collection: info.Collection,
		Records:    info.Records,
	})
}

func (s *Server) handleClearCollection(w http.ResponseWriter, r *http.Request) {
	if err := s.session.ClearCollection(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearConversation(w http.ResponseWriter, r *http.Request) {
	s.session.ClearConversation()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMemory(w http.ResponseWriter, r *http.Request) {
	summary := s.session.MemorySummary()

	writeJSON(w, http.StatusOK, memoryResponse{
		Turns:  summary.Turns,
		Window: summary.Window,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"error": detail})
}
