package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-judging/internal/criteria"
)

type criterionView struct {
	criteria.Criterion
	Name string `json:"name"`
}

func localizeCriteria(list []criteria.Criterion, lang string) []criterionView {
	out := make([]criterionView, len(list))
	for i, c := range list {
		out[i] = criterionView{Criterion: c, Name: c.Name(lang)}
	}
	return out
}

// GET /conferences/{conferenceID}/criteria
func ListCriteriaHandler(store criteria.Store, defLang string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ForConference(r.Context(), chi.URLParam(r, "conferenceID"))
		if err != nil {
			writeError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, localizeCriteria(list, Lang(r, defLang)))
	}
}

// POST /conferences/{conferenceID}/criteria
func CreateCriterionHandler(store criteria.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in criteria.Input
		if !decodeJSON(w, r, &in) {
			return
		}
		c, err := store.Create(r.Context(), chi.URLParam(r, "conferenceID"), in)
		if err != nil {
			writeError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, c)
	}
}

// PUT /criteria/{criterionID}
func UpdateCriterionHandler(store criteria.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in criteria.Input
		if !decodeJSON(w, r, &in) {
			return
		}
		c, err := store.Update(r.Context(), chi.URLParam(r, "criterionID"), in)
		if err != nil {
			writeError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, c)
	}
}

// DELETE /criteria/{criterionID}; stored scores for it go with it.
func DeleteCriterionHandler(store criteria.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Delete(r.Context(), chi.URLParam(r, "criterionID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
