package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"golang.org/x/text/language"

	"github.com/mind-engage/mindengage-judging/internal/domain"
	"github.com/mind-engage/mindengage-judging/internal/rbac"
	"github.com/mind-engage/mindengage-judging/internal/report"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

type errorBody struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// writeError maps the domain error vocabulary onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "validation failed", Details: ve.Errors})
	case errors.Is(err, report.ErrUnsupportedFormat):
		respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		respondJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		respondJSON(w, http.StatusForbidden, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrPrecondition), errors.Is(err, domain.ErrConflict):
		respondJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	default:
		log.Printf("http: internal error: %v", err)
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return false
	}
	return true
}

func actorOr401(w http.ResponseWriter, r *http.Request) (rbac.Actor, bool) {
	a, ok := rbac.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
	}
	return a, ok
}

var langMatcher = language.NewMatcher([]language.Tag{language.English, language.Hebrew})

// Lang picks "en" or "he" from ?lang= or Accept-Language, else def.
func Lang(r *http.Request, def string) string {
	candidates := []string{r.URL.Query().Get("lang"), r.Header.Get("Accept-Language")}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		tags, _, err := language.ParseAcceptLanguage(c)
		if err != nil || len(tags) == 0 {
			continue
		}
		_, idx, conf := langMatcher.Match(tags...)
		if conf == language.No {
			continue
		}
		if idx == 1 {
			return "he"
		}
		return "en"
	}
	if def == "he" {
		return "he"
	}
	return "en"
}
