package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landfolio/server/internal/models"
)

func testProps() []models.DerivedProperty {
	d := models.DerivedProperty{}
	d.ID = "lead_1"
	d.DisplayName = "Smith Ranch"
	return []models.DerivedProperty{d}
}

func TestStorePutGet(t *testing.T) {
	s := NewStore(time.Hour, time.Minute, logrus.New())

	session := s.Put("export.csv", testProps(), map[string]bool{"id": true})
	require.NotNil(t, session)
	assert.Equal(t, 1, s.Len())

	got, err := s.Get(session.ID)
	require.NoError(t, err)
	assert.Equal(t, "export.csv", got.SourceName)
	require.Len(t, got.Properties, 1)
	assert.Equal(t, "lead_1", got.Properties[0].ID)

	_, err = s.Get(uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStoreGetReturnsCopy(t *testing.T) {
	s := NewStore(time.Hour, time.Minute, logrus.New())
	session := s.Put("export.csv", testProps(), nil)

	got, err := s.Get(session.ID)
	require.NoError(t, err)
	got.Properties[0].DisplayName = "mutated"

	again, err := s.Get(session.ID)
	require.NoError(t, err)
	assert.Equal(t, "Smith Ranch", again.Properties[0].DisplayName)
}

func TestStoreUpdate(t *testing.T) {
	s := NewStore(time.Hour, time.Minute, logrus.New())
	session := s.Put("export.csv", testProps(), nil)

	err := s.Update(session.ID, func(sess *Session) {
		sess.Properties[0].LeadCount = 3
		sess.Properties[0].LeadStatus = models.LeadStatusOK
	})
	require.NoError(t, err)

	got, err := s.Get(session.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Properties[0].LeadCount)

	err = s.Update(uuid.New(), func(*Session) {})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStoreDelete(t *testing.T) {
	s := NewStore(time.Hour, time.Minute, logrus.New())
	session := s.Put("export.csv", testProps(), nil)

	require.NoError(t, s.Delete(session.ID))
	assert.Equal(t, 0, s.Len())
	assert.ErrorIs(t, s.Delete(session.ID), ErrSessionNotFound)
}

func TestStoreSweep(t *testing.T) {
	s := NewStore(30*time.Minute, time.Minute, logrus.New())

	current := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	stale := s.Put("old.csv", testProps(), nil)
	current = current.Add(time.Hour)
	fresh := s.Put("new.csv", testProps(), nil)

	removed := s.Sweep()
	assert.Equal(t, 1, removed)

	_, err := s.Get(stale.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = s.Get(fresh.ID)
	assert.NoError(t, err)
}

func TestStoreClose(t *testing.T) {
	s := NewStore(time.Hour, time.Millisecond, logrus.New())
	s.Start()
	s.Close()
	// Second close is a no-op.
	s.Close()
}
