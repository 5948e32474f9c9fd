package server

import (
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jmorgan/careerpath-coach/internal/pipeline"
)

// maxUploadBytes caps the multipart form size for /analyze.
const maxUploadBytes = 10 << 20 // 10 MiB

// analyzeRequest is the decoded /analyze form.
type analyzeRequest struct {
	CareerGoal string `validate:"required,min=2"`
	ResumeText string
}

// handleAnalyze runs the full pipeline for an uploaded resume and career
// goal.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeAnalyzeRequest(r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	resp, err := s.analyzer.Run(r.Context(), pipeline.Request{
		CareerGoal: req.CareerGoal,
		ResumeText: req.ResumeText,
	})
	if err != nil {
		s.log.Error().Err(err).Str("career_goal", req.CareerGoal).Msg("analysis failed")
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, resp)
}

// decodeAnalyzeRequest reads the multipart form: a career_goal field and a
// resume file whose bytes are treated as UTF-8 text.
func (s *Server) decodeAnalyzeRequest(r *http.Request) (*analyzeRequest, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, &ErrBadUpload{Message: "expected multipart form: " + err.Error()}
	}

	req := &analyzeRequest{
		CareerGoal: r.FormValue("career_goal"),
	}

	file, _, err := r.FormFile("resume")
	if err != nil {
		return nil, &ErrBadUpload{Message: "resume file is required"}
	}
	defer file.Close()

	text, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return nil, &ErrBadUpload{Message: "could not read resume file"}
	}
	req.ResumeText = string(text)

	if err := s.validate.Struct(req); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return nil, &ErrValidation{Field: verrs[0].Field(), Message: verrs[0].Tag()}
		}
		return nil, &ErrValidation{Field: "request", Message: err.Error()}
	}

	return req, nil
}

// handleCacheClear drops cached recommendations. With a career_goal query
// parameter only that goal's entries are dropped; without one the whole
// namespace goes.
func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	goal := r.URL.Query().Get("career_goal")
	cleared := s.cache.Invalidate(r.Context(), goal)

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"cleared":     cleared,
		"career_goal": goal,
		"cache_type":  s.cache.Kind(),
	})
}

// handleCacheStats reports the active cache backend and entry count.
func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.cache.Stats(r.Context()))
}
