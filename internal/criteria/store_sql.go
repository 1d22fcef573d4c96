package criteria

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-judging/internal/domain"
)

// Store is the Criterion Registry boundary.
type Store interface {
	ForConference(ctx context.Context, conferenceID string) ([]Criterion, error)
	Get(ctx context.Context, id string) (Criterion, error)
	Create(ctx context.Context, conferenceID string, in Input) (Criterion, error)
	Update(ctx context.Context, id string, in Input) (Criterion, error)
	Delete(ctx context.Context, id string) error
}

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

const criterionCols = `id, conference_id, name_en, name_he, description_en, description_he, max_score, weight, sort_order, created_at`

func scanCriterion(sc interface{ Scan(...any) error }) (Criterion, error) {
	var c Criterion
	err := sc.Scan(&c.ID, &c.ConferenceID, &c.NameEN, &c.NameHE, &c.DescriptionEN, &c.DescriptionHE,
		&c.MaxScore, &c.Weight, &c.SortOrder, &c.CreatedAt)
	return c, err
}

// ForConference returns the ordered criteria of a conference. An unknown
// conference yields an empty list.
func (s *SQLStore) ForConference(ctx context.Context, conferenceID string) ([]Criterion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+criterionCols+` FROM evaluation_criteria WHERE conference_id=$1 ORDER BY sort_order, id`,
		conferenceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Criterion{}
	for rows.Next() {
		c, err := scanCriterion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) Get(ctx context.Context, id string) (Criterion, error) {
	c, err := scanCriterion(s.db.QueryRowContext(ctx,
		`SELECT `+criterionCols+` FROM evaluation_criteria WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Criterion{}, fmt.Errorf("criterion %s: %w", id, domain.ErrNotFound)
	}
	return c, err
}

func (s *SQLStore) Create(ctx context.Context, conferenceID string, in Input) (Criterion, error) {
	in, err := in.Normalize()
	if err != nil {
		return Criterion{}, err
	}
	var one int
	if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM conferences WHERE id=$1`, conferenceID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Criterion{}, fmt.Errorf("conference %s: %w", conferenceID, domain.ErrNotFound)
		}
		return Criterion{}, err
	}
	c := Criterion{
		ID:            uuid.NewString(),
		ConferenceID:  conferenceID,
		NameEN:        in.NameEN,
		NameHE:        in.NameHE,
		DescriptionEN: in.DescriptionEN,
		DescriptionHE: in.DescriptionHE,
		MaxScore:      *in.MaxScore,
		Weight:        *in.Weight,
		SortOrder:     in.SortOrder,
		CreatedAt:     time.Now().Unix(),
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO evaluation_criteria (`+criterionCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		c.ID, c.ConferenceID, c.NameEN, c.NameHE, c.DescriptionEN, c.DescriptionHE,
		c.MaxScore, c.Weight, c.SortOrder, c.CreatedAt)
	if err != nil {
		return Criterion{}, err
	}
	return c, nil
}

// Update replaces every mutable field. Existing scores are left alone even if
// they now exceed MaxScore; scoring clamps them on read.
func (s *SQLStore) Update(ctx context.Context, id string, in Input) (Criterion, error) {
	in, err := in.Normalize()
	if err != nil {
		return Criterion{}, err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE evaluation_criteria
		SET name_en=$1, name_he=$2, description_en=$3, description_he=$4, max_score=$5, weight=$6, sort_order=$7
		WHERE id=$8`,
		in.NameEN, in.NameHE, in.DescriptionEN, in.DescriptionHE, *in.MaxScore, *in.Weight, in.SortOrder, id)
	if err != nil {
		return Criterion{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Criterion{}, fmt.Errorf("criterion %s: %w", id, domain.ErrNotFound)
	}
	return s.Get(ctx, id)
}

// Delete removes the criterion; its scores go with it (ON DELETE CASCADE).
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM evaluation_criteria WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("criterion %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
