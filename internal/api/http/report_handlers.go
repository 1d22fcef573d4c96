package http

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-judging/internal/report"
)

// GET /conferences/{conferenceID}/report
func ReportHandler(b *report.Builder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, err := b.Build(r.Context(), chi.URLParam(r, "conferenceID"))
		if err != nil {
			writeError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, rep)
	}
}

// GET /conferences/{conferenceID}/report/export?format=csv|json
func ExportReportHandler(b *report.Builder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := report.ParseFormat(r.URL.Query().Get("format"))
		if err != nil {
			writeError(w, err)
			return
		}
		confID := chi.URLParam(r, "conferenceID")
		rep, err := b.Build(r.Context(), confID)
		if err != nil {
			writeError(w, err)
			return
		}
		// buffer so a failed export still gets a proper error status
		var buf bytes.Buffer
		if err := report.Export(&buf, f, rep); err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", f.ContentType())
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="report-%s.%s"`, confID, f))
		_, _ = w.Write(buf.Bytes())
	}
}

// GET /conferences/{conferenceID}/summary
func SummaryHandler(b *report.Builder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := b.Summary(r.Context(), chi.URLParam(r, "conferenceID"))
		if err != nil {
			writeError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, s)
	}
}

// GET /projects/{projectID}/evaluations
func ProjectEvaluationsHandler(b *report.Builder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := b.ProjectDetail(r.Context(), chi.URLParam(r, "projectID"))
		if err != nil {
			writeError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, d)
	}
}
