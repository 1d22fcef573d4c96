package criteria

import (
	"sort"
	"strings"

	"github.com/mind-engage/mindengage-judging/internal/domain"
	"github.com/mind-engage/mindengage-judging/internal/scoring"
)

const (
	DefaultMaxScore = 10
	DefaultWeight   = 1.0
)

type Criterion struct {
	ID            string  `json:"id"`
	ConferenceID  string  `json:"conference_id"`
	NameEN        string  `json:"name_en"`
	NameHE        string  `json:"name_he"`
	DescriptionEN string  `json:"description_en,omitempty"`
	DescriptionHE string  `json:"description_he,omitempty"`
	MaxScore      int     `json:"max_score"`
	Weight        float64 `json:"weight"`
	SortOrder     int     `json:"sort_order"`
	CreatedAt     int64   `json:"created_at,omitempty"`
}

// Input is what a manager sends to create or replace a criterion. Nil
// MaxScore/Weight take the defaults.
type Input struct {
	NameEN        string   `json:"name_en" validate:"required,max=200"`
	NameHE        string   `json:"name_he" validate:"required,max=200"`
	DescriptionEN string   `json:"description_en,omitempty" validate:"max=2000"`
	DescriptionHE string   `json:"description_he,omitempty" validate:"max=2000"`
	MaxScore      *int     `json:"max_score,omitempty" validate:"omitempty,min=1,max=1000"`
	Weight        *float64 `json:"weight,omitempty" validate:"omitempty,gt=0,lte=1000"`
	SortOrder     int      `json:"sort_order"`
}

// Normalize trims names and fills defaults, then validates. Whitespace-only
// names count as empty.
func (in Input) Normalize() (Input, error) {
	in.NameEN = strings.TrimSpace(in.NameEN)
	in.NameHE = strings.TrimSpace(in.NameHE)
	in.DescriptionEN = strings.TrimSpace(in.DescriptionEN)
	in.DescriptionHE = strings.TrimSpace(in.DescriptionHE)
	if in.MaxScore == nil {
		v := DefaultMaxScore
		in.MaxScore = &v
	}
	if in.Weight == nil {
		v := DefaultWeight
		in.Weight = &v
	}
	if err := domain.ValidateStruct("criterion", in); err != nil {
		return Input{}, err
	}
	return in, nil
}

// Sort orders criteria by sort_order, ties by id.
func Sort(list []Criterion) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].SortOrder != list[j].SortOrder {
			return list[i].SortOrder < list[j].SortOrder
		}
		return list[i].ID < list[j].ID
	})
}

// ToScoring projects criteria onto the engine's view.
func ToScoring(list []Criterion) []scoring.Criterion {
	out := make([]scoring.Criterion, len(list))
	for i, c := range list {
		out[i] = scoring.Criterion{ID: c.ID, MaxScore: c.MaxScore, Weight: c.Weight}
	}
	return out
}

// ByID indexes a list.
func ByID(list []Criterion) map[string]Criterion {
	m := make(map[string]Criterion, len(list))
	for _, c := range list {
		m[c.ID] = c
	}
	return m
}

// Name picks the localized name; lang is "en" or "he".
func (c Criterion) Name(lang string) string {
	if lang == "he" {
		return c.NameHE
	}
	return c.NameEN
}
