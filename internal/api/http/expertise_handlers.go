package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-judging/internal/expertise"
)

type expertiseReq struct {
	Name string `json:"name"`
}

type judgeExpertiseReq struct {
	Areas []string `json:"areas"`
}

// GET /conferences/{conferenceID}/expertise
func ListExpertiseHandler(store expertise.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.List(r.Context(), chi.URLParam(r, "conferenceID"))
		if err != nil {
			writeError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}

// POST /conferences/{conferenceID}/expertise  {"name": "..."}
func AddExpertiseHandler(store expertise.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req expertiseReq
		if !decodeJSON(w, r, &req) {
			return
		}
		name, err := store.Add(r.Context(), chi.URLParam(r, "conferenceID"), req.Name)
		if err != nil {
			writeError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, map[string]string{"name": name})
	}
}

// DELETE /conferences/{conferenceID}/expertise?name=...
func RemoveExpertiseHandler(store expertise.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		if name == "" {
			http.Error(w, "name required", http.StatusBadRequest)
			return
		}
		if err := store.Remove(r.Context(), chi.URLParam(r, "conferenceID"), name); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /conferences/{conferenceID}/judges/{judgeID}/expertise
func JudgeExpertiseHandler(store expertise.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.JudgeAreas(r.Context(), chi.URLParam(r, "conferenceID"), chi.URLParam(r, "judgeID"))
		if err != nil {
			writeError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}

// PUT /conferences/{conferenceID}/judges/{judgeID}/expertise  {"areas": [...]}
func SetJudgeExpertiseHandler(store expertise.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req judgeExpertiseReq
		if !decodeJSON(w, r, &req) {
			return
		}
		list, err := store.SetJudgeAreas(r.Context(), chi.URLParam(r, "conferenceID"), chi.URLParam(r, "judgeID"), req.Areas)
		if err != nil {
			writeError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}
