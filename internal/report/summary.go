package report

import (
	"context"
	"sort"
	"time"
)

// JudgeProgress counts one judge's work in a conference.
type JudgeProgress struct {
	JudgeID    string `json:"judge_id"`
	JudgeName  string `json:"judge_name"`
	Assigned   int    `json:"assigned"`
	Complete   int    `json:"complete"`
	Drafts     int    `json:"drafts"`
	Pending    int    `json:"pending"`
	Unassigned int    `json:"complete_unassigned"` // complete, judge no longer assigned
}

// Summary is the completion overview of a conference. Complete counts every
// complete evaluation, the same set the report aggregates and sums into
// Row.Submitted; Unassigned is the part of it whose judge has since been
// unassigned. Pending counts assignments without a complete evaluation,
// drafts included. CompletionPct only looks at current assignments.
type Summary struct {
	ConferenceID  string          `json:"conference_id"`
	Projects      int             `json:"projects"`
	Assigned      int             `json:"assigned"`
	Complete      int             `json:"complete"`
	Unassigned    int             `json:"complete_unassigned"`
	Drafts        int             `json:"drafts"`
	Pending       int             `json:"pending"`
	CompletionPct float64         `json:"completion_pct"`
	Judges        []JudgeProgress `json:"judges"`
}

func (b *Builder) Summary(ctx context.Context, conferenceID string) (Summary, error) {
	defer b.observe("summary", time.Now())

	ps, err := b.Projects.ListByConference(ctx, conferenceID)
	if err != nil {
		return Summary{}, err
	}
	as, err := b.Projects.Assignments(ctx, conferenceID)
	if err != nil {
		return Summary{}, err
	}
	evals, err := b.Evals.ForConference(ctx, conferenceID)
	if err != nil {
		return Summary{}, err
	}

	type pair struct{ project, judge string }
	state := make(map[pair]bool, len(evals)) // true = complete
	for _, e := range evals {
		state[pair{e.ProjectID, e.JudgeID}] = e.IsComplete
	}

	s := Summary{ConferenceID: conferenceID, Projects: len(ps), Judges: []JudgeProgress{}}
	byJudge := map[string]*JudgeProgress{}
	judge := func(id, name string) *JudgeProgress {
		jp, ok := byJudge[id]
		if !ok {
			jp = &JudgeProgress{JudgeID: id, JudgeName: name}
			byJudge[id] = jp
		}
		return jp
	}
	assigned := make(map[pair]bool, len(as))
	for _, a := range as {
		assigned[pair{a.ProjectID, a.JudgeID}] = true
		jp := judge(a.JudgeID, a.JudgeName)
		jp.Assigned++
		s.Assigned++
		complete, exists := state[pair{a.ProjectID, a.JudgeID}]
		switch {
		case exists && complete:
			jp.Complete++
			s.Complete++
		case exists:
			jp.Drafts++
			s.Drafts++
			jp.Pending++
			s.Pending++
		default:
			jp.Pending++
			s.Pending++
		}
	}
	assignedComplete := s.Complete
	for _, e := range evals {
		if !e.IsComplete || assigned[pair{e.ProjectID, e.JudgeID}] {
			continue
		}
		jp := judge(e.JudgeID, "") // names come from assignments
		jp.Complete++
		jp.Unassigned++
		s.Complete++
		s.Unassigned++
	}
	if s.Assigned > 0 {
		s.CompletionPct = float64(assignedComplete) * 100 / float64(s.Assigned)
	}
	for _, jp := range byJudge {
		s.Judges = append(s.Judges, *jp)
	}
	sort.Slice(s.Judges, func(i, j int) bool { return s.Judges[i].JudgeID < s.Judges[j].JudgeID })
	return s, nil
}
