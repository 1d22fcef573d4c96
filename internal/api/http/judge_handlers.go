package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-judging/internal/evaluation"
	"github.com/mind-engage/mindengage-judging/internal/projects"
)

type judgeProject struct {
	projects.Project
	Title string           `json:"title"`
	State evaluation.State `json:"state"`
}

// GET /judge/projects
func JudgeProjectsHandler(ps projects.Store, evals evaluation.Store, defLang string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorOr401(w, r)
		if !ok {
			return
		}
		list, err := ps.ForJudge(r.Context(), actor.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		lang := Lang(r, defLang)
		out := make([]judgeProject, 0, len(list))
		for _, p := range list {
			jp := judgeProject{Project: p, Title: p.Title(lang), State: evaluation.StateAbsent}
			if e, err := evals.Find(r.Context(), p.ID, actor.ID); err == nil {
				jp.State = e.State()
			}
			out = append(out, jp)
		}
		respondJSON(w, http.StatusOK, out)
	}
}

// GET /projects/{projectID}/evaluation
func GetEvaluationHandler(svc *evaluation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorOr401(w, r)
		if !ok {
			return
		}
		v, err := svc.Get(r.Context(), actor, chi.URLParam(r, "projectID"))
		if err != nil {
			writeError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, v)
	}
}

// PUT /projects/{projectID}/evaluation  { "general_notes": "...", "scores": [...] }
func SaveEvaluationHandler(svc *evaluation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorOr401(w, r)
		if !ok {
			return
		}
		var in evaluation.SaveInput
		if !decodeJSON(w, r, &in) {
			return
		}
		v, err := svc.Save(r.Context(), actor, chi.URLParam(r, "projectID"), in)
		if err != nil {
			writeError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, v)
	}
}

// POST /projects/{projectID}/evaluation/submit
// An empty body submits what is stored; a body replaces it first.
func SubmitEvaluationHandler(svc *evaluation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorOr401(w, r)
		if !ok {
			return
		}
		var in *evaluation.SaveInput
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
		if err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		if len(bytes.TrimSpace(body)) > 0 {
			in = &evaluation.SaveInput{}
			if err := json.Unmarshal(body, in); err != nil {
				http.Error(w, "bad json", http.StatusBadRequest)
				return
			}
		}
		v, err := svc.Submit(r.Context(), actor, chi.URLParam(r, "projectID"), in)
		if err != nil {
			writeError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, v)
	}
}

// POST /projects/{projectID}/evaluation/reopen
func ReopenEvaluationHandler(svc *evaluation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorOr401(w, r)
		if !ok {
			return
		}
		v, err := svc.Reopen(r.Context(), actor, chi.URLParam(r, "projectID"))
		if err != nil {
			writeError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, v)
	}
}
