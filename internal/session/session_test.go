package session

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/skywatch/internal/model"
	"github.com/amishk599/skywatch/internal/store"
)

func newMemStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(store.NewMemoryKV())
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestOpen_NilStore(t *testing.T) {
	_, err := Open(nil)
	assert.Error(t, err)
}

func TestRead_EmptySession(t *testing.T) {
	s := newMemStore(t)
	sess, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, model.Session{}, sess)
}

func TestLoginLogout(t *testing.T) {
	s := newMemStore(t)
	require.NoError(t, s.SetLoggedIn("ada"))

	sess, err := s.Read()
	require.NoError(t, err)
	assert.True(t, sess.LoggedIn)
	assert.Equal(t, "ada", sess.Username)

	require.NoError(t, s.Logout())
	sess, err = s.Read()
	require.NoError(t, err)
	assert.False(t, sess.LoggedIn)
	assert.Empty(t, sess.Username)
}

func TestSaveProfile_FullOverwrite(t *testing.T) {
	s := newMemStore(t)
	require.NoError(t, s.SaveProfile(model.UserProfile{
		Name:       "Ada",
		Location:   "Ankara",
		Activities: []string{"running", "hiking"},
	}))
	require.NoError(t, s.SaveProfile(model.UserProfile{Name: "Grace"}))

	sess, err := s.Read()
	require.NoError(t, err)
	require.NotNil(t, sess.Profile)
	assert.Equal(t, "Grace", sess.Profile.Name)
	assert.Empty(t, sess.Profile.Location, "fields absent from the new profile must not survive")
	assert.Empty(t, sess.Profile.Activities)
}

func TestResetOnboarding_KeepsLogin(t *testing.T) {
	s := newMemStore(t)
	require.NoError(t, s.SetOnboarded(true))
	require.NoError(t, s.SetLoggedIn("ada"))
	require.NoError(t, s.SaveProfile(model.UserProfile{Name: "Ada"}))

	require.NoError(t, s.ResetOnboarding())

	sess, err := s.Read()
	require.NoError(t, err)
	assert.False(t, sess.OnboardingComplete)
	assert.Nil(t, sess.Profile)
	assert.True(t, sess.LoggedIn)
}

func TestLastResult(t *testing.T) {
	s := newMemStore(t)

	_, ok, err := s.LastResult(model.KindAnalysis)
	require.NoError(t, err)
	assert.False(t, ok)

	payload := json.RawMessage(`{"summary":{"temp_mean_C":21.5}}`)
	require.NoError(t, s.SaveLastResult(model.KindAnalysis, "abc123", payload))

	res, ok, err := s.LastResult(model.KindAnalysis)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abc123", res.JobID)
	assert.Equal(t, model.KindAnalysis, res.Kind)
	assert.JSONEq(t, string(payload), string(res.Result))
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), res.SavedAt)

	_, ok, err = s.LastResult(model.KindPrediction)
	require.NoError(t, err)
	assert.False(t, ok, "kinds are stored separately")
}

func TestSaveLastResult_UnknownKind(t *testing.T) {
	s := newMemStore(t)
	assert.Error(t, s.SaveLastResult("forecast", "x", json.RawMessage(`{}`)))
}

func TestClear(t *testing.T) {
	s := newMemStore(t)
	require.NoError(t, s.SetOnboarded(true))
	require.NoError(t, s.SetLoggedIn("ada"))
	require.NoError(t, s.SaveLastResult(model.KindPrediction, "p1", json.RawMessage(`{}`)))

	require.NoError(t, s.Clear())

	sess, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, model.Session{}, sess)
	_, ok, _ := s.LastResult(model.KindPrediction)
	assert.False(t, ok)
}

func TestSQLiteBackedSessionPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")

	kv, err := store.NewSQLiteKV(path)
	require.NoError(t, err)
	s, err := Open(kv)
	require.NoError(t, err)
	require.NoError(t, s.SetOnboarded(true))
	require.NoError(t, s.SaveProfile(model.UserProfile{
		Name:          "Ada",
		Notifications: true,
		PredictionPreferences: model.PredictionPreferences{
			DefaultTimeframe: model.Timeframe14Days,
		},
	}))
	require.NoError(t, s.Close())

	kv, err = store.NewSQLiteKV(path)
	require.NoError(t, err)
	s, err = Open(kv)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	sess, err := s.Read()
	require.NoError(t, err)
	assert.True(t, sess.OnboardingComplete)
	require.NotNil(t, sess.Profile)
	assert.True(t, sess.Profile.Notifications)
	assert.Equal(t, model.Timeframe14Days, sess.Profile.PredictionPreferences.DefaultTimeframe)
}

func TestRead_CorruptProfile(t *testing.T) {
	kv := store.NewMemoryKV()
	require.NoError(t, kv.Put(keyProfile, []byte("{not json")))
	s, err := Open(kv)
	require.NoError(t, err)

	_, err = s.Read()
	assert.Error(t, err)
}
