package store

import (
	"context"
	"path/filepath"
	"slices"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func openTest(t *testing.T, path string) *Store {
	t.Helper()
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	s, err := Open(context.Background(), path, log)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return s
}

func TestInMemory(t *testing.T) {
	ctx := context.Background()
	s := openTest(t, "")
	defer s.Close()

	if _, found, err := s.Get(ctx, "a", KeySaveState); err != nil || found {
		t.Fatalf("Get() on empty store = %v, %v", found, err)
	}
	if err := s.Set(ctx, "a", KeySaveState, "one"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Set(ctx, "a", KeySaveState, "two"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Set(ctx, "b", KeySaveState, "other"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	v, found, err := s.Get(ctx, "a", KeySaveState)
	if err != nil || !found || v != "two" {
		t.Errorf("Get() = %q, %v, %v; want two", v, found, err)
	}
	v, _, _ = s.Get(ctx, "b", KeySaveState)
	if v != "other" {
		t.Errorf("stories must be isolated, got %q", v)
	}

	if err := s.Delete(ctx, "a", KeySaveState); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, found, _ := s.Get(ctx, "a", KeySaveState); found {
		t.Error("key should be deleted")
	}
	if err := s.Delete(ctx, "a", "missing"); err != nil {
		t.Errorf("Delete() of missing key error = %v", err)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "saves.sqlite")

	s := openTest(t, path)
	b := s.Bucket("story")
	if err := b.Set(ctx, KeyTheme, "dark"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := b.Set(ctx, KeySaveState, `{"knot":"x"}`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s = openTest(t, path)
	defer s.Close()
	b = s.Bucket("story")
	if v, found, err := b.Get(ctx, KeyTheme); err != nil || !found || v != "dark" {
		t.Errorf("Get() = %q, %v, %v", v, found, err)
	}
	keys, err := s.Keys(ctx, b.Story())
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if !slices.Equal(keys, []string{KeySaveState, KeyTheme}) {
		t.Errorf("Keys() = %v", keys)
	}
}

func TestClosed(t *testing.T) {
	s := openTest(t, "")
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := s.Set(context.Background(), "a", "k", "v"); err == nil {
		t.Error("expected error on closed store")
	}
}

func TestCanceledContext(t *testing.T) {
	s := openTest(t, "")
	defer s.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := s.Get(ctx, "a", "k"); err == nil {
		t.Error("expected error for canceled context")
	}
}
