package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-judging/internal/report"
)

// GET /student/grades
func StudentGradesHandler(g *report.Grades) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorOr401(w, r)
		if !ok {
			return
		}
		list, err := g.StudentGrades(r.Context(), actor)
		if err != nil {
			writeError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}

// GET /student/projects/{projectID}/grade
func StudentGradeHandler(g *report.Grades) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorOr401(w, r)
		if !ok {
			return
		}
		sg, err := g.StudentGrade(r.Context(), actor, chi.URLParam(r, "projectID"))
		if err != nil {
			writeError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, sg)
	}
}
