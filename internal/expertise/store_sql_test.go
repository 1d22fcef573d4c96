package expertise_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-judging/internal/db/dbtest"
	"github.com/mind-engage/mindengage-judging/internal/domain"
	"github.com/mind-engage/mindengage-judging/internal/expertise"
)

func newStore(t *testing.T) *expertise.SQLStore {
	t.Helper()
	dbh := dbtest.Open(t)
	dbtest.Conference(t, dbh, "c1")
	dbtest.Conference(t, dbh, "c2")
	dbtest.User(t, dbh, "j1", "Judge One", "judge")
	dbtest.User(t, dbh, "s1", "Noa Levi", "student")
	return expertise.NewSQLStore(dbh)
}

func TestAddListRemove(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	list, err := s.List(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)

	for _, n := range []string{"AI", "  Machine Learning ", "Cybersecurity"} {
		_, err := s.Add(ctx, "c1", n)
		require.NoError(t, err)
	}
	list, err = s.List(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"AI", "Machine Learning", "Cybersecurity"}, list)

	other, err := s.List(ctx, "c2")
	require.NoError(t, err)
	assert.Empty(t, other, "areas belong to one conference")

	require.NoError(t, s.Remove(ctx, "c1", "AI"))
	list, err = s.List(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Machine Learning", "Cybersecurity"}, list)

	err = s.Remove(ctx, "c1", "Nonexistent")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddRejectsBadNames(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	var ve *domain.ValidationError

	for _, n := range []string{"", "   ", strings.Repeat("A", 101)} {
		_, err := s.Add(ctx, "c1", n)
		assert.ErrorAs(t, err, &ve, "%q", n)
	}
	_, err := s.Add(ctx, "c1", strings.Repeat("א", 100))
	assert.NoError(t, err, "limit counts characters, not bytes")

	_, err = s.Add(ctx, "c1", "AI")
	require.NoError(t, err)
	_, err = s.Add(ctx, "c1", " AI ")
	assert.ErrorIs(t, err, expertise.ErrDuplicate)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = s.Add(ctx, "missing", "AI")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetJudgeAreas(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	for _, n := range []string{"AI", "Robotics", "Data Science"} {
		_, err := s.Add(ctx, "c1", n)
		require.NoError(t, err)
	}

	got, err := s.SetJudgeAreas(ctx, "c1", "j1", []string{"Data Science", "AI", "AI"})
	require.NoError(t, err)
	assert.Equal(t, []string{"AI", "Data Science"}, got)

	var ve *domain.ValidationError
	_, err = s.SetJudgeAreas(ctx, "c1", "j1", []string{"AI", "Astrology"})
	require.ErrorAs(t, err, &ve)
	got, err = s.JudgeAreas(ctx, "c1", "j1")
	require.NoError(t, err)
	assert.Equal(t, []string{"AI", "Data Science"}, got, "rejected update leaves the old set")

	_, err = s.SetJudgeAreas(ctx, "c1", "s1", []string{"AI"})
	assert.ErrorIs(t, err, expertise.ErrNotJudge)
	_, err = s.SetJudgeAreas(ctx, "c1", "nobody", []string{"AI"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// removing an area untags every judge
	require.NoError(t, s.Remove(ctx, "c1", "AI"))
	got, err = s.JudgeAreas(ctx, "c1", "j1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Data Science"}, got)

	got, err = s.SetJudgeAreas(ctx, "c1", "j1", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
