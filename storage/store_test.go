package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()

	sqlite, err := NewStore("sqlite", filepath.Join(t.TempDir(), "champions.db"))
	if err != nil {
		t.Fatalf("NewStore(sqlite): %v", err)
	}
	memory, err := NewStore("memory", "")
	if err != nil {
		t.Fatalf("NewStore(memory): %v", err)
	}

	stores := map[string]Store{"memory": memory, "sqlite": sqlite}
	for name, s := range stores {
		if err := s.Init(ctx); err != nil {
			t.Fatalf("%s init: %v", name, err)
		}
		s := s
		t.Cleanup(func() { _ = CloseIfSupported(s) })
	}
	return stores
}

func TestStoreChampionRoundTrip(t *testing.T) {
	ctx := context.Background()
	base := time.Unix(1_700_000_000, 0)

	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			for g := 0; g < 3; g++ {
				err := store.SaveChampion(ctx, Champion{
					RunID:      "run-a",
					Generation: g,
					CarID:      uint32(100 + g),
					Tarmac:     float64(10 * (g + 1)),
					AvgSpeed:   float64(g) + 0.5,
					Network:    []byte{byte(g), 1, 2, 3},
					CreatedAt:  base.Add(time.Duration(g) * time.Second),
				})
				if err != nil {
					t.Fatalf("save gen %d: %v", g, err)
				}
			}
			if err := store.SaveChampion(ctx, Champion{RunID: "run-b", Generation: 0, Network: []byte{9}, CreatedAt: base.Add(time.Minute)}); err != nil {
				t.Fatalf("save run-b: %v", err)
			}

			all, err := store.Champions(ctx, "run-a")
			if err != nil {
				t.Fatalf("Champions: %v", err)
			}
			if len(all) != 3 {
				t.Fatalf("got %d champions, want 3", len(all))
			}
			for i, c := range all {
				if c.Generation != i || c.CarID != uint32(100+i) || c.Network[0] != byte(i) {
					t.Errorf("champion %d = %+v", i, c)
				}
			}

			latest, ok, err := store.LatestChampion(ctx, "run-a")
			if err != nil || !ok {
				t.Fatalf("LatestChampion(run-a) = %v, %v", ok, err)
			}
			if latest.Generation != 2 || latest.Tarmac != 30 || !latest.CreatedAt.Equal(base.Add(2*time.Second)) {
				t.Errorf("latest = %+v", latest)
			}

			newest, ok, err := store.LatestChampion(ctx, "")
			if err != nil || !ok || newest.RunID != "run-b" {
				t.Errorf("LatestChampion(any) = %+v, %v, %v", newest, ok, err)
			}

			if _, ok, err := store.LatestChampion(ctx, "missing"); ok || err != nil {
				t.Errorf("missing run: ok=%v err=%v", ok, err)
			}
		})
	}
}

func TestStoreUpsertsGeneration(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, tarmac := range []float64{1, 2} {
				if err := store.SaveChampion(ctx, Champion{RunID: "r", Generation: 4, Tarmac: tarmac, Network: []byte{1}}); err != nil {
					t.Fatal(err)
				}
			}
			all, err := store.Champions(ctx, "r")
			if err != nil {
				t.Fatal(err)
			}
			if len(all) != 1 || all[0].Tarmac != 2 {
				t.Errorf("expected one upserted record, got %+v", all)
			}
		})
	}
}

func TestStoreRequiresInit(t *testing.T) {
	ctx := context.Background()
	stores := []Store{NewMemoryStore(), NewSQLiteStore(filepath.Join(t.TempDir(), "x.db"))}
	for _, s := range stores {
		if err := s.SaveChampion(ctx, Champion{}); !errors.Is(err, ErrNotInitialized) {
			t.Errorf("%T: err = %v, want ErrNotInitialized", s, err)
		}
		if _, _, err := s.LatestChampion(ctx, ""); !errors.Is(err, ErrNotInitialized) {
			t.Errorf("%T: err = %v, want ErrNotInitialized", s, err)
		}
	}
}

func TestNewStoreRejectsUnknownBackend(t *testing.T) {
	if _, err := NewStore("postgres", ""); err == nil {
		t.Error("expected error for unknown backend")
	}
	if _, err := NewStore("sqlite", ""); err == nil {
		t.Error("expected error for sqlite without a path")
	}
}
