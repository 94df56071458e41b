package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"bilancio/storage"
)

func TestStoreRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.Load(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("empty store Load err = %v, want ErrNotFound", err)
	}

	if err := s.Save(ctx, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != `{"a":1}` {
		t.Fatalf("Load = %s", got)
	}

	// Load returns a copy; mutating it must not affect the store.
	got[0] = 'X'
	again, _ := s.Load(ctx)
	if string(again) != `{"a":1}` {
		t.Fatal("Load exposed internal buffer")
	}
}

func TestNewFromFile(t *testing.T) {
	t.Run("existing seed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "seed.json")
		if err := os.WriteFile(path, []byte(`{"seed":true}`), 0644); err != nil {
			t.Fatalf("write seed: %v", err)
		}
		s := NewFromFile(path)
		got, err := s.Load(context.Background())
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if string(got) != `{"seed":true}` {
			t.Fatalf("Load = %s", got)
		}
	})

	t.Run("missing seed yields empty store", func(t *testing.T) {
		s := NewFromFile(filepath.Join(t.TempDir(), "absent.json"))
		if _, err := s.Load(context.Background()); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})
}
