package session

import (
	"testing"
	"time"
	"tournament-results/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_BeginIsExclusive(t *testing.T) {
	s := New()
	release, err := s.Begin()
	require.NoError(t, err)

	_, err = s.Begin()
	assert.ErrorIs(t, err, ErrRunInProgress)

	release()
	release, err = s.Begin()
	require.NoError(t, err)
	release()
}

func TestSession_ReplaceAndLoad(t *testing.T) {
	s := New()
	assert.Nil(t, s.Snapshot())

	l := domain.NewMergedLedger(domain.ModePerDay, domain.IdentityByID)
	s.Replace(l, 2)
	assert.Same(t, l, s.Snapshot())
	assert.Equal(t, 2, s.LastPeriod())

	imported := domain.NewMergedLedger(domain.ModePerDay, domain.IdentityByID)
	imported.AddPeriod(1)
	imported.AddPeriod(4)
	s.Load(imported, "day4.xlsx")
	assert.Same(t, imported, s.Snapshot())
	assert.Equal(t, 4, s.LastPeriod())
	assert.Equal(t, "day4.xlsx", s.SourceFile())
}

func TestStore(t *testing.T) {
	st := NewStore()
	s := st.Create()

	got, err := st.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, st.Delete(s.ID))
	_, err = st.Get(s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, st.Delete(s.ID), ErrSessionNotFound)
}

func TestStore_Expire(t *testing.T) {
	st := NewStore()
	old := st.Create()
	old.CreatedAt = time.Now().Add(-48 * time.Hour)
	fresh := st.Create()

	assert.Equal(t, 1, st.Expire(time.Now().Add(-24*time.Hour)))
	_, err := st.Get(old.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = st.Get(fresh.ID)
	assert.NoError(t, err)
}
