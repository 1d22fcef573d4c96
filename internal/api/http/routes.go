package http

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/mind-engage/mindengage-judging/internal/auth/middleware"
	"github.com/mind-engage/mindengage-judging/internal/criteria"
	"github.com/mind-engage/mindengage-judging/internal/evaluation"
	"github.com/mind-engage/mindengage-judging/internal/expertise"
	"github.com/mind-engage/mindengage-judging/internal/projects"
	"github.com/mind-engage/mindengage-judging/internal/rbac"
	"github.com/mind-engage/mindengage-judging/internal/report"
	syncx "github.com/mind-engage/mindengage-judging/internal/sync"
)

// Deps is everything the judging API needs.
type Deps struct {
	DB          *sql.DB
	Auth        *authmw.AuthService
	Criteria    criteria.Store
	Expertise   expertise.Store
	Projects    projects.Store
	Evaluations evaluation.Store
	Service     *evaluation.Service
	Reports     *report.Builder
	Grades      *report.Grades
	Events      *syncx.EventRepo
	DefaultLang string
	// RoleFromDB re-reads the role on every request; ClaimFallback keeps the
	// token role if that lookup fails.
	RoleFromDB    bool
	ClaimFallback bool
}

// Mount registers the public login and the protected API on r.
func Mount(r chi.Router, d Deps) {
	r.Post("/auth/login", authmw.LoginHandler(d.Auth, d.DB))

	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(d.Auth))
		if d.RoleFromDB {
			pr.Use(authmw.AttachRoleFromDB(d.DB, d.ClaimFallback))
		}
		pr.Use(authmw.RequireActor)

		// criteria
		pr.With(rbac.Require("criteria:view")).
			Get("/conferences/{conferenceID}/criteria", ListCriteriaHandler(d.Criteria, d.DefaultLang))
		pr.With(rbac.Require("criteria:manage")).
			Post("/conferences/{conferenceID}/criteria", CreateCriterionHandler(d.Criteria))
		pr.With(rbac.Require("criteria:manage")).
			Put("/criteria/{criterionID}", UpdateCriterionHandler(d.Criteria))
		pr.With(rbac.Require("criteria:manage")).
			Delete("/criteria/{criterionID}", DeleteCriterionHandler(d.Criteria))

		// expertise areas
		pr.With(rbac.Require("criteria:view")).
			Get("/conferences/{conferenceID}/expertise", ListExpertiseHandler(d.Expertise))
		pr.With(rbac.Require("criteria:manage")).
			Post("/conferences/{conferenceID}/expertise", AddExpertiseHandler(d.Expertise))
		pr.With(rbac.Require("criteria:manage")).
			Delete("/conferences/{conferenceID}/expertise", RemoveExpertiseHandler(d.Expertise))
		pr.With(rbac.Require("criteria:view")).
			Get("/conferences/{conferenceID}/judges/{judgeID}/expertise", JudgeExpertiseHandler(d.Expertise))
		pr.With(rbac.Require("criteria:manage")).
			Put("/conferences/{conferenceID}/judges/{judgeID}/expertise", SetJudgeExpertiseHandler(d.Expertise))

		// judge flow
		pr.With(rbac.Require("evaluation:write")).
			Get("/judge/projects", JudgeProjectsHandler(d.Projects, d.Evaluations, d.DefaultLang))
		pr.With(rbac.Require("evaluation:write")).
			Get("/projects/{projectID}/evaluation", GetEvaluationHandler(d.Service))
		pr.With(rbac.Require("evaluation:write")).
			Put("/projects/{projectID}/evaluation", SaveEvaluationHandler(d.Service))
		pr.With(rbac.Require("evaluation:write")).
			Post("/projects/{projectID}/evaluation/submit", SubmitEvaluationHandler(d.Service))
		pr.With(rbac.Require("evaluation:write")).
			Post("/projects/{projectID}/evaluation/reopen", ReopenEvaluationHandler(d.Service))

		// manager reports
		pr.With(rbac.Require("report:view")).
			Get("/projects/{projectID}/evaluations", ProjectEvaluationsHandler(d.Reports))
		pr.With(rbac.Require("report:view")).
			Get("/conferences/{conferenceID}/report", ReportHandler(d.Reports))
		pr.With(rbac.Require("report:export")).
			Get("/conferences/{conferenceID}/report/export", ExportReportHandler(d.Reports))
		pr.With(rbac.Require("report:view")).
			Get("/conferences/{conferenceID}/summary", SummaryHandler(d.Reports))
		pr.With(rbac.Require("report:view")).
			Get("/evaluations/{evaluationID}/history", EvaluationHistoryHandler(d.Events))
		pr.With(rbac.Require("report:view")).
			Get("/audit", AuditSearchHandler(d.DB))

		// students
		pr.With(rbac.Require("grade:view-own")).
			Get("/student/grades", StudentGradesHandler(d.Grades))
		pr.With(rbac.Require("grade:view-own")).
			Get("/student/projects/{projectID}/grade", StudentGradeHandler(d.Grades))

		// users
		pr.With(rbac.Require("users:bulk_upsert")).
			Post("/users/bulk", BulkUpsertUsersHandler(d.DB))
		pr.With(rbac.Require("users:list")).
			Get("/users", ListUsersHandler(d.DB))
		pr.With(rbac.Require("users:update_role")).
			Put("/users/{userID}/role", UpdateUserRoleHandler(d.DB))
		pr.With(rbac.Require("user:change_password")).
			Post("/users/change-password", ChangePasswordHandler(d.DB))
	})
}

// Health registers liveness and a readiness check that pings the store.
func Health(r chi.Router, db *sql.DB) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}
