package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mind-engage/mindengage-judging/internal/domain"
)

// Project is owned by the conference CRUD surface; this package only reads it.
type Project struct {
	ID           string `json:"id"`
	ConferenceID string `json:"conference_id"`
	TitleEN      string `json:"title_en"`
	TitleHE      string `json:"title_he"`
	Department   string `json:"department,omitempty"`
	Room         string `json:"room,omitempty"`
	CreatedAt    int64  `json:"created_at,omitempty"`
}

func (p Project) Title(lang string) string {
	if lang == "he" && p.TitleHE != "" {
		return p.TitleHE
	}
	return p.TitleEN
}

type Member struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
}

type Store interface {
	Get(ctx context.Context, id string) (Project, error)
	ListByConference(ctx context.Context, conferenceID string) ([]Project, error)
	TeamMembers(ctx context.Context, projectID string) ([]Member, error)
	IsTeamMember(ctx context.Context, projectID, studentID string) (bool, error)
	IsAssigned(ctx context.Context, projectID, judgeID string) (bool, error)
	AssignedJudgeCount(ctx context.Context, projectID string) (int, error)
	ForJudge(ctx context.Context, judgeID string) ([]Project, error)
	ForStudent(ctx context.Context, studentID string) ([]Project, error)
	Judges(ctx context.Context, projectID string) ([]Member, error)
	Assignments(ctx context.Context, conferenceID string) ([]Assignment, error)
}

// Assignment is one judge on one project.
type Assignment struct {
	ProjectID string `json:"project_id"`
	JudgeID   string `json:"judge_id"`
	JudgeName string `json:"judge_name"`
}

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

const projectCols = `p.id, p.conference_id, p.title_en, p.title_he, p.department, p.room, p.created_at`

func (s *SQLStore) list(ctx context.Context, q string, args ...any) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Project{}
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.ConferenceID, &p.TitleEN, &p.TitleHE, &p.Department, &p.Room, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLStore) Get(ctx context.Context, id string) (Project, error) {
	list, err := s.list(ctx, `SELECT `+projectCols+` FROM projects p WHERE p.id=$1`, id)
	if err != nil {
		return Project{}, err
	}
	if len(list) == 0 {
		return Project{}, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	return list[0], nil
}

// ListByConference orders by project id so reports are stable across refreshes.
func (s *SQLStore) ListByConference(ctx context.Context, conferenceID string) ([]Project, error) {
	return s.list(ctx, `SELECT `+projectCols+` FROM projects p WHERE p.conference_id=$1 ORDER BY p.id`, conferenceID)
}

func (s *SQLStore) ForJudge(ctx context.Context, judgeID string) ([]Project, error) {
	return s.list(ctx, `SELECT `+projectCols+` FROM projects p
		JOIN judge_assignments a ON a.project_id=p.id
		WHERE a.judge_id=$1 ORDER BY p.id`, judgeID)
}

func (s *SQLStore) ForStudent(ctx context.Context, studentID string) ([]Project, error) {
	return s.list(ctx, `SELECT `+projectCols+` FROM projects p
		JOIN project_members m ON m.project_id=p.id
		WHERE m.student_id=$1 ORDER BY p.id`, studentID)
}

// TeamMembers returns the team ordered by full name (locale-aware).
func (s *SQLStore) TeamMembers(ctx context.Context, projectID string) ([]Member, error) {
	return s.members(ctx, `SELECT u.id, u.full_name FROM project_members m
		JOIN users u ON u.id=m.student_id WHERE m.project_id=$1`, projectID)
}

// Judges returns the judges assigned to a project, ordered like TeamMembers.
func (s *SQLStore) Judges(ctx context.Context, projectID string) ([]Member, error) {
	return s.members(ctx, `SELECT u.id, u.full_name FROM judge_assignments a
		JOIN users u ON u.id=a.judge_id WHERE a.project_id=$1`, projectID)
}

// Assignments lists every judge assignment of a conference by project, judge.
func (s *SQLStore) Assignments(ctx context.Context, conferenceID string) ([]Assignment, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT a.project_id, a.judge_id, COALESCE(u.full_name, '')
		FROM judge_assignments a
		JOIN projects p ON p.id=a.project_id
		LEFT JOIN users u ON u.id=a.judge_id
		WHERE p.conference_id=$1 ORDER BY a.project_id, a.judge_id`, conferenceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Assignment{}
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ProjectID, &a.JudgeID, &a.JudgeName); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) members(ctx context.Context, q string, args ...any) ([]Member, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Member{}
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.FullName); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	SortMembers(out)
	return out, nil
}

// SortMembers orders by full name with the root collation, ties by id.
func SortMembers(ms []Member) {
	col := collate.New(language.Und)
	sort.SliceStable(ms, func(i, j int) bool {
		if c := col.CompareString(ms[i].FullName, ms[j].FullName); c != 0 {
			return c < 0
		}
		return ms[i].ID < ms[j].ID
	})
}

func (s *SQLStore) exists(ctx context.Context, q string, args ...any) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, q, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *SQLStore) IsTeamMember(ctx context.Context, projectID, studentID string) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM project_members WHERE project_id=$1 AND student_id=$2`, projectID, studentID)
}

func (s *SQLStore) IsAssigned(ctx context.Context, projectID, judgeID string) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM judge_assignments WHERE project_id=$1 AND judge_id=$2`, projectID, judgeID)
}

func (s *SQLStore) AssignedJudgeCount(ctx context.Context, projectID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM judge_assignments WHERE project_id=$1`, projectID).Scan(&n)
	return n, err
}
