package evaluation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-judging/internal/domain"
)

// Store is the persistence boundary for evaluations and the score ledger.
// Callers resolve authorization before calling any write.
type Store interface {
	Get(ctx context.Context, id string) (Evaluation, error)
	Find(ctx context.Context, projectID, judgeID string) (Evaluation, error)
	ScoresForEvaluation(ctx context.Context, evaluationID string) ([]Score, error)
	CompleteForProject(ctx context.Context, projectID string) ([]Evaluation, error)
	ForProject(ctx context.Context, projectID string) ([]Evaluation, error)
	ForConference(ctx context.Context, conferenceID string) ([]Evaluation, error)

	UpsertEvaluation(ctx context.Context, projectID, judgeID, notes string, complete bool) (Evaluation, error)
	ReplaceScores(ctx context.Context, evaluationID string, scores []Score) error
	// Save upserts the evaluation and replaces its scores in one transaction.
	Save(ctx context.Context, projectID, judgeID, notes string, complete bool, scores []Score) (Evaluation, error)
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

const evalCols = `id, project_id, judge_id, is_complete, general_notes, created_at, updated_at, submitted_at`

func scanEval(sc interface{ Scan(...any) error }) (Evaluation, error) {
	var e Evaluation
	var submitted sql.NullInt64
	if err := sc.Scan(&e.ID, &e.ProjectID, &e.JudgeID, &e.IsComplete, &e.GeneralNotes,
		&e.CreatedAt, &e.UpdatedAt, &submitted); err != nil {
		return Evaluation{}, err
	}
	if submitted.Valid {
		v := submitted.Int64
		e.SubmittedAt = &v
	}
	e.Scores = []Score{}
	return e, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Evaluation, error) {
	return s.getWhere(ctx, s.db, `id=$1`, id)
}

func (s *SQLStore) Find(ctx context.Context, projectID, judgeID string) (Evaluation, error) {
	return s.getWhere(ctx, s.db, `project_id=$1 AND judge_id=$2`, projectID, judgeID)
}

func (s *SQLStore) getWhere(ctx context.Context, q querier, where string, args ...any) (Evaluation, error) {
	e, err := scanEval(q.QueryRowContext(ctx, `SELECT `+evalCols+` FROM evaluations WHERE `+where, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Evaluation{}, fmt.Errorf("evaluation: %w", domain.ErrNotFound)
	}
	if err != nil {
		return Evaluation{}, err
	}
	e.Scores, err = scoresFor(ctx, q, e.ID)
	if err != nil {
		return Evaluation{}, err
	}
	return e, nil
}

func (s *SQLStore) ScoresForEvaluation(ctx context.Context, evaluationID string) ([]Score, error) {
	return scoresFor(ctx, s.db, evaluationID)
}

func scoresFor(ctx context.Context, q querier, evaluationID string) ([]Score, error) {
	rows, err := q.QueryContext(ctx, `SELECT evaluation_id, criterion_id, score, note
		FROM evaluation_scores WHERE evaluation_id=$1 ORDER BY criterion_id`, evaluationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Score{}
	for rows.Next() {
		var sc Score
		if err := rows.Scan(&sc.EvaluationID, &sc.CriterionID, &sc.Score, &sc.Note); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// CompleteForProject returns complete evaluations with their scores, ordered
// by evaluation id.
func (s *SQLStore) CompleteForProject(ctx context.Context, projectID string) ([]Evaluation, error) {
	return s.listWithScores(ctx, `e.project_id=$1 AND e.is_complete=$2`, projectID, true)
}

// ForProject includes drafts; managers only.
func (s *SQLStore) ForProject(ctx context.Context, projectID string) ([]Evaluation, error) {
	return s.listWithScores(ctx, `e.project_id=$1`, projectID)
}

// ForConference lists every evaluation of a conference without scores.
func (s *SQLStore) ForConference(ctx context.Context, conferenceID string) ([]Evaluation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT e.id, e.project_id, e.judge_id, e.is_complete, e.general_notes,
		e.created_at, e.updated_at, e.submitted_at
		FROM evaluations e JOIN projects p ON p.id=e.project_id
		WHERE p.conference_id=$1 ORDER BY e.id`, conferenceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Evaluation{}
	for rows.Next() {
		e, err := scanEval(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLStore) listWithScores(ctx context.Context, where string, args ...any) ([]Evaluation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT e.id, e.project_id, e.judge_id, e.is_complete, e.general_notes,
		e.created_at, e.updated_at, e.submitted_at
		FROM evaluations e WHERE `+where+` ORDER BY e.id`, args...)
	if err != nil {
		return nil, err
	}
	var out []Evaluation
	idx := map[string]int{}
	for rows.Next() {
		e, err := scanEval(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		idx[e.ID] = len(out)
		out = append(out, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return []Evaluation{}, nil
	}

	// one pass over the ledger for every listed evaluation
	srows, err := s.db.QueryContext(ctx, `SELECT s.evaluation_id, s.criterion_id, s.score, s.note
		FROM evaluation_scores s JOIN evaluations e ON e.id=s.evaluation_id
		WHERE `+where+` ORDER BY s.evaluation_id, s.criterion_id`, args...)
	if err != nil {
		return nil, err
	}
	defer srows.Close()
	for srows.Next() {
		var sc Score
		if err := srows.Scan(&sc.EvaluationID, &sc.CriterionID, &sc.Score, &sc.Note); err != nil {
			return nil, err
		}
		if i, ok := idx[sc.EvaluationID]; ok {
			out[i].Scores = append(out[i].Scores, sc)
		}
	}
	return out, srows.Err()
}

func (s *SQLStore) UpsertEvaluation(ctx context.Context, projectID, judgeID, notes string, complete bool) (e Evaluation, err error) {
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		var e2 error
		e, e2 = s.upsert(ctx, tx, projectID, judgeID, notes, complete)
		return e2
	})
	return e, err
}

func (s *SQLStore) ReplaceScores(ctx context.Context, evaluationID string, scores []Score) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return replaceScores(ctx, tx, evaluationID, scores)
	})
}

func (s *SQLStore) Save(ctx context.Context, projectID, judgeID, notes string, complete bool, scores []Score) (e Evaluation, err error) {
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		ev, err := s.upsert(ctx, tx, projectID, judgeID, notes, complete)
		if err != nil {
			return err
		}
		if err := replaceScores(ctx, tx, ev.ID, scores); err != nil {
			return err
		}
		e, err = s.getWhere(ctx, tx, `id=$1`, ev.ID)
		return err
	})
	return e, err
}

func (s *SQLStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	return fn(tx)
}

// upsert creates or updates by (project_id, judge_id). submitted_at is kept
// from the first submission and cleared on reopen.
func (s *SQLStore) upsert(ctx context.Context, q querier, projectID, judgeID, notes string, complete bool) (Evaluation, error) {
	now := s.now().Unix()
	var submitted sql.NullInt64
	if complete {
		submitted = sql.NullInt64{Int64: now, Valid: true}
	}
	_, err := q.ExecContext(ctx, `INSERT INTO evaluations (`+evalCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (project_id, judge_id) DO UPDATE SET
			is_complete=EXCLUDED.is_complete,
			general_notes=EXCLUDED.general_notes,
			updated_at=EXCLUDED.updated_at,
			submitted_at=CASE WHEN EXCLUDED.is_complete THEN COALESCE(evaluations.submitted_at, EXCLUDED.submitted_at) ELSE NULL END`,
		uuid.NewString(), projectID, judgeID, complete, notes, now, now, submitted)
	if err != nil {
		return Evaluation{}, err
	}
	return s.getWhere(ctx, q, `project_id=$1 AND judge_id=$2`, projectID, judgeID)
}

// replaceScores is delete-all-then-insert; scores for criteria no longer
// submitted do not survive. Every score must name a criterion of the
// evaluation's conference and lie within 0..max_score.
func replaceScores(ctx context.Context, q querier, evaluationID string, scores []Score) error {
	maxes, err := criterionMaxes(ctx, q, evaluationID)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(scores))
	ve := domain.NewValidationError("scores")
	for _, sc := range scores {
		maxScore, ok := maxes[sc.CriterionID]
		switch {
		case !ok:
			ve.Add("unknown criterion %s", sc.CriterionID)
		case seen[sc.CriterionID]:
			ve.Add("duplicate score for criterion %s", sc.CriterionID)
		case sc.Score < 0 || sc.Score > maxScore:
			ve.Add("score %d for criterion %s outside 0..%d", sc.Score, sc.CriterionID, maxScore)
		}
		seen[sc.CriterionID] = true
	}
	if err := ve.Err(); err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM evaluation_scores WHERE evaluation_id=$1`, evaluationID); err != nil {
		return err
	}
	for _, sc := range scores {
		if _, err := q.ExecContext(ctx, `INSERT INTO evaluation_scores (evaluation_id, criterion_id, score, note)
			VALUES ($1,$2,$3,$4)`, evaluationID, sc.CriterionID, sc.Score, sc.Note); err != nil {
			return err
		}
	}
	return nil
}

// criterionMaxes maps the criteria of the evaluation's conference to their
// current max_score.
func criterionMaxes(ctx context.Context, q querier, evaluationID string) (map[string]int, error) {
	rows, err := q.QueryContext(ctx, `SELECT c.id, c.max_score
		FROM evaluation_criteria c
		JOIN projects p ON p.conference_id = c.conference_id
		JOIN evaluations e ON e.project_id = p.id
		WHERE e.id=$1`, evaluationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var id string
		var maxScore int
		if err := rows.Scan(&id, &maxScore); err != nil {
			return nil, err
		}
		out[id] = maxScore
	}
	return out, rows.Err()
}
