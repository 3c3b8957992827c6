// Package session is the single process-wide store for client state: the
// onboarding flag, EarthAccess login state, the user profile and the last
// results of each job kind. It replaces ad hoc key lookups with typed accessors
// over a model.KV backend.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/amishk599/skywatch/internal/model"
)

// Keys of the underlying store.
const (
	keyOnboarding = "onboarding_complete"
	keyLoggedIn   = "nasa_logged_in"
	keyUsername   = "nasa_username"
	keyProfile    = "user_profile"
	keyResultPfx  = "last_result:"
)

// Store is the session store. Methods are safe for concurrent use.
type Store struct {
	mu  sync.Mutex
	kv  model.KV
	now func() time.Time
}

// Open initializes a session store on kv. The caller keeps ownership of kv
// only until Close is called on the Store.
func Open(kv model.KV) (*Store, error) {
	if kv == nil {
		return nil, errors.New("open session: nil store")
	}
	return &Store{kv: kv, now: time.Now}, nil
}

// Close releases the backing store.
func (s *Store) Close() error {
	return s.kv.Close()
}

// Read returns a snapshot of the whole session.
func (s *Store) Read() (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sess model.Session
	var err error
	if sess.OnboardingComplete, err = s.getBool(keyOnboarding); err != nil {
		return model.Session{}, err
	}
	if sess.LoggedIn, err = s.getBool(keyLoggedIn); err != nil {
		return model.Session{}, err
	}
	if sess.LoggedIn {
		name, _, err := s.kv.Get(keyUsername)
		if err != nil {
			return model.Session{}, fmt.Errorf("reading session username: %w", err)
		}
		sess.Username = string(name)
	}

	raw, ok, err := s.kv.Get(keyProfile)
	if err != nil {
		return model.Session{}, fmt.Errorf("reading profile: %w", err)
	}
	if ok {
		var p model.UserProfile
		if err := json.Unmarshal(raw, &p); err != nil {
			return model.Session{}, fmt.Errorf("decoding stored profile: %w", err)
		}
		sess.Profile = &p
	}
	return sess, nil
}

// SetOnboarded records whether onboarding has been finished or skipped.
func (s *Store) SetOnboarded(done bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putBool(keyOnboarding, done)
}

// SetLoggedIn marks the EarthAccess session as active for username.
func (s *Store) SetLoggedIn(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Put(keyUsername, []byte(username)); err != nil {
		return fmt.Errorf("saving username: %w", err)
	}
	return s.putBool(keyLoggedIn, true)
}

// Logout clears the login flag and username.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Delete(keyLoggedIn, keyUsername); err != nil {
		return fmt.Errorf("logging out: %w", err)
	}
	return nil
}

// SaveProfile replaces the stored profile entirely.
func (s *Store) SaveProfile(p model.UserProfile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Put(keyProfile, raw); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}

// DeleteProfile removes the stored profile.
func (s *Store) DeleteProfile() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Delete(keyProfile); err != nil {
		return fmt.Errorf("deleting profile: %w", err)
	}
	return nil
}

// SaveLastResult stores the raw result of a completed job as the latest of its kind.
func (s *Store) SaveLastResult(kind model.JobKind, jobID string, result json.RawMessage) error {
	if !kind.Valid() {
		return fmt.Errorf("saving result: unknown job kind %q", kind)
	}
	raw, err := json.Marshal(model.StoredResult{
		JobID:   jobID,
		Kind:    kind,
		SavedAt: s.now().UTC(),
		Result:  result,
	})
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Put(keyResultPfx+string(kind), raw); err != nil {
		return fmt.Errorf("saving %s result: %w", kind, err)
	}
	return nil
}

// LastResult returns the latest stored result of kind. ok is false when none exists.
func (s *Store) LastResult(kind model.JobKind) (res model.StoredResult, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok, err := s.kv.Get(keyResultPfx + string(kind))
	if err != nil || !ok {
		if err != nil {
			err = fmt.Errorf("reading %s result: %w", kind, err)
		}
		return model.StoredResult{}, false, err
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return model.StoredResult{}, false, fmt.Errorf("decoding stored %s result: %w", kind, err)
	}
	return res, true, nil
}

// ResetOnboarding removes the profile and the onboarding flag so onboarding runs again.
func (s *Store) ResetOnboarding() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Delete(keyProfile, keyOnboarding); err != nil {
		return fmt.Errorf("resetting onboarding: %w", err)
	}
	return nil
}

// Clear removes every stored key.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Clear(); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

func (s *Store) getBool(key string) (bool, error) {
	raw, ok, err := s.kv.Get(key)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", key, err)
	}
	return ok && string(raw) == "true", nil
}

func (s *Store) putBool(key string, v bool) error {
	if err := s.kv.Put(key, []byte(fmt.Sprint(v))); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}
