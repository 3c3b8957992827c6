package store

import (
	"path/filepath"
	"testing"

	"github.com/amishk599/skywatch/internal/model"
)

func newTestStore(t *testing.T) *SQLiteKV {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteKV(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteKV: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// backends runs fn against every KV implementation.
func backends(t *testing.T, fn func(t *testing.T, kv model.KV)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, newTestStore(t)) })
	t.Run("memory", func(t *testing.T) { fn(t, NewMemoryKV()) })
}

func TestPutThenGet(t *testing.T) {
	backends(t, func(t *testing.T, kv model.KV) {
		if err := kv.Put("user_profile", []byte(`{"name":"Ada"}`)); err != nil {
			t.Fatalf("Put: %v", err)
		}
		v, ok, err := kv.Get("user_profile")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !ok || string(v) != `{"name":"Ada"}` {
			t.Errorf("Get = %q, %v", v, ok)
		}
	})
}

func TestGetUnknownReturnsFalse(t *testing.T) {
	backends(t, func(t *testing.T, kv model.KV) {
		_, ok, err := kv.Get("does-not-exist")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if ok {
			t.Error("expected ok=false for unknown key")
		}
	})
}

func TestPutOverwrites(t *testing.T) {
	backends(t, func(t *testing.T, kv model.KV) {
		if err := kv.Put("k", []byte("one")); err != nil {
			t.Fatalf("first Put: %v", err)
		}
		if err := kv.Put("k", []byte("two")); err != nil {
			t.Fatalf("second Put: %v", err)
		}
		v, _, _ := kv.Get("k")
		if string(v) != "two" {
			t.Errorf("Get = %q, want two", v)
		}
	})
}

func TestDeleteAndKeys(t *testing.T) {
	backends(t, func(t *testing.T, kv model.KV) {
		for _, k := range []string{"b", "a", "c"} {
			if err := kv.Put(k, []byte("x")); err != nil {
				t.Fatalf("Put %s: %v", k, err)
			}
		}
		if err := kv.Delete("a", "missing", "c"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		keys, err := kv.Keys()
		if err != nil {
			t.Fatalf("Keys: %v", err)
		}
		if len(keys) != 1 || keys[0] != "b" {
			t.Errorf("Keys = %v, want [b]", keys)
		}
	})
}

func TestClear(t *testing.T) {
	backends(t, func(t *testing.T, kv model.KV) {
		kv.Put("a", []byte("1"))
		kv.Put("b", []byte("2"))
		if err := kv.Clear(); err != nil {
			t.Fatalf("Clear: %v", err)
		}
		keys, _ := kv.Keys()
		if len(keys) != 0 {
			t.Errorf("Keys after Clear = %v", keys)
		}
	})
}

func TestSQLiteKV_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "persist.db")

	s1, err := NewSQLiteKV(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteKV: %v", err)
	}
	if err := s1.Put("nasa_logged_in", []byte("true")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	s1.Close()

	s2, err := NewSQLiteKV(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	v, ok, err := s2.Get("nasa_logged_in")
	if err != nil || !ok || string(v) != "true" {
		t.Errorf("Get after reopen = %q, %v, %v", v, ok, err)
	}
}
