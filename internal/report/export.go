package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mind-engage/mindengage-judging/internal/domain"
	"github.com/mind-engage/mindengage-judging/internal/scoring"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrNoData            = fmt.Errorf("conference has no projects to export: %w", domain.ErrPrecondition)
)

// Columns is the fixed export column order.
var Columns = []string{
	"rank", "project_id", "title_en", "title_he", "team_members", "department", "room",
	"assigned_judges", "evaluations_submitted", "aggregate",
}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON:
		return f, nil
	case "":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnsupportedFormat)
}

func (f Format) ContentType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "text/csv; charset=utf-8"
}

// Export writes r in format f. One line per project, ranks as computed,
// aggregates with one decimal and empty when the project has no data.
func Export(w io.Writer, f Format, r Report) error {
	if len(r.Rows) == 0 {
		return ErrNoData
	}
	switch f {
	case FormatCSV:
		return WriteCSV(w, r)
	case FormatJSON:
		return WriteJSON(w, r)
	}
	return fmt.Errorf("%q: %w", f, ErrUnsupportedFormat)
}

func record(row Row) []string {
	rank := ""
	if row.Rank > 0 {
		rank = strconv.Itoa(row.Rank)
	}
	return []string{
		rank,
		row.ProjectID,
		row.TitleEN,
		row.TitleHE,
		strings.Join(row.TeamMembers, "; "),
		row.Department,
		row.Room,
		strconv.Itoa(row.AssignedJudges),
		strconv.Itoa(row.Submitted),
		scoring.FormatAggregate(row.Aggregate),
	}
}

func WriteCSV(w io.Writer, r Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, row := range r.Rows {
		if err := cw.Write(record(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type exportRow struct {
	Rank        *int         `json:"rank"`
	ProjectID   string       `json:"project_id"`
	TitleEN     string       `json:"title_en"`
	TitleHE     string       `json:"title_he"`
	TeamMembers []string     `json:"team_members"`
	Department  string       `json:"department"`
	Room        string       `json:"room"`
	Assigned    int          `json:"assigned_judges"`
	Submitted   int          `json:"evaluations_submitted"`
	Aggregate   *json.Number `json:"aggregate"`
}

func WriteJSON(w io.Writer, r Report) error {
	out := struct {
		ConferenceID string      `json:"conference_id"`
		GeneratedAt  int64       `json:"generated_at"`
		Columns      []string    `json:"columns"`
		Rows         []exportRow `json:"rows"`
	}{ConferenceID: r.ConferenceID, GeneratedAt: r.GeneratedAt, Columns: Columns, Rows: make([]exportRow, 0, len(r.Rows))}

	for _, row := range r.Rows {
		er := exportRow{
			ProjectID: row.ProjectID, TitleEN: row.TitleEN, TitleHE: row.TitleHE,
			TeamMembers: row.TeamMembers, Department: row.Department, Room: row.Room,
			Assigned: row.AssignedJudges, Submitted: row.Submitted,
		}
		if er.TeamMembers == nil {
			er.TeamMembers = []string{}
		}
		if row.Rank > 0 {
			rank := row.Rank
			er.Rank = &rank
		}
		if s := scoring.FormatAggregate(row.Aggregate); s != "" {
			n := json.Number(s)
			er.Aggregate = &n
		}
		out.Rows = append(out.Rows, er)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
