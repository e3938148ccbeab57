package game

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/pthm-cable/evodrive/config"
	"github.com/pthm-cable/evodrive/neural"
	"github.com/pthm-cable/evodrive/storage"
	"github.com/pthm-cable/evodrive/track"
)

// uniformTrack is tarmac (or grass) everywhere inside the world.
type uniformTrack struct {
	kind track.Kind
	w, h float32
}

func (u uniformTrack) MaterialAt(x, y float32) track.Kind {
	if !(x >= 0 && y >= 0 && x < u.w && y < u.h) {
		return track.OffTrack
	}
	return u.kind
}

func testConfig(population, selected int) *config.Config {
	cfg := config.Default()
	cfg.Evolution.Population = population
	cfg.Evolution.Selected = selected
	cfg.Sensors.MaxDistance = 200
	cfg.ComputeDerived()
	return cfg
}

func newTestEngine(t *testing.T, cfg *config.Config, kind track.Kind, opts Options) *Engine {
	t.Helper()
	tm := uniformTrack{kind: kind, w: cfg.Derived.WorldW32, h: cfg.Derived.WorldH32}
	e, err := NewEngine(cfg, tm, opts)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func (e *Engine) setTarmac(i int, v float32) {
	_, _, _, _, _, odo, _ := e.carMapper.Get(e.cars[i])
	odo.Tarmac = v
}

func TestNewEngineSeedsPopulation(t *testing.T) {
	cfg := testConfig(30, 5)
	e := newTestEngine(t, cfg, track.Tarmac, Options{Seed: 1, RunID: "fixed"})

	if e.Population() != 30 || len(e.brains) != 30 {
		t.Fatalf("population = %d brains = %d, want 30", e.Population(), len(e.brains))
	}
	if e.RunID() != "fixed" {
		t.Errorf("run id = %q", e.RunID())
	}
	for _, v := range e.Snapshot(nil) {
		if v.Pos.X != float32(cfg.World.StartX) || v.Pos.Y != float32(cfg.World.StartY) {
			t.Fatalf("car %d not on the start line: %+v", v.ID, v.Pos)
		}
		if v.WasSelected || v.Disabled {
			t.Fatalf("fresh car %d has flags set", v.ID)
		}
	}

	other := newTestEngine(t, cfg, track.Tarmac, Options{Seed: 1})
	if other.RunID() == "" || other.RunID() == e.RunID() {
		t.Errorf("expected a generated run id, got %q", other.RunID())
	}
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(10, 2)
	cfg.Neural.HiddenLayers = []int{0}
	tm := uniformTrack{kind: track.Tarmac, w: 100, h: 100}
	if _, err := NewEngine(cfg, tm, Options{}); err == nil {
		t.Error("expected error for a zero-width hidden layer")
	}
}

func TestTurnoverPopulationSizes(t *testing.T) {
	tests := []struct {
		name                 string
		population, selected int
		wantParents          int
		wantChildren         int
	}{
		{"even split", 1000, 40, 40, 1000},
		{"truncated", 100, 40, 40, 80},
		{"one child each", 50, 40, 40, 40},
		{"fewer cars than selected", 30, 40, 30, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, testConfig(tt.population, tt.selected), track.Tarmac, Options{Seed: 2})

			for round := 0; round < 2; round++ {
				e.Turnover()

				parents, children := 0, 0
				for _, v := range e.Snapshot(nil) {
					if v.WasSelected {
						parents++
					} else {
						children++
					}
				}
				if round == 0 && (parents != tt.wantParents || children != tt.wantChildren) {
					t.Fatalf("parents=%d children=%d, want %d/%d", parents, children, tt.wantParents, tt.wantChildren)
				}
				if len(e.brains) != e.Population() {
					t.Fatalf("%d brains for %d cars", len(e.brains), e.Population())
				}
			}

			// Later generations select from the enlarged population but
			// produce the same number of children.
			sel := min(tt.selected, tt.wantParents+tt.wantChildren)
			want := sel + sel*(tt.population/sel)
			if e.Population() != want {
				t.Errorf("second generation size = %d, want %d", e.Population(), want)
			}
			if e.Generation() != 2 {
				t.Errorf("generation = %d, want 2", e.Generation())
			}
		})
	}
}

func TestTurnoverSelectsByTarmacWithStableTies(t *testing.T) {
	e := newTestEngine(t, testConfig(10, 3), track.Tarmac, Options{Seed: 3})

	ids := make([]uint32, 10)
	for i, v := range e.Snapshot(nil) {
		ids[i] = v.ID
	}
	// Cars 7 and 2 tie for second place; 2 comes first in population order.
	e.setTarmac(4, 50)
	e.setTarmac(7, 30)
	e.setTarmac(2, 30)
	e.setTarmac(9, 30)
	e.elapsed = 10

	e.Turnover()

	views := e.Snapshot(nil)
	if len(views) != 3+3*3 {
		t.Fatalf("population = %d, want 12", len(views))
	}
	parents := views[len(views)-3:]
	want := []uint32{ids[4], ids[2], ids[7]}
	for i, p := range parents {
		if !p.WasSelected || p.ID != want[i] {
			t.Errorf("parent %d = id %d (selected=%v), want id %d", i, p.ID, p.WasSelected, want[i])
		}
		if p.Tarmac != 0 {
			t.Errorf("parent %d odometer not reset: %v", i, p.Tarmac)
		}
	}
	for _, c := range views[:9] {
		if c.WasSelected {
			t.Errorf("child %d marked as selected", c.ID)
		}
	}
	if got := e.Info().MaxAvgSpeed; got != 5 {
		t.Errorf("max avg speed = %v, want 5", got)
	}
	if e.Brain(ids[0]) != nil {
		t.Error("discarded car still has a brain")
	}
}

func TestChildrenInheritParentController(t *testing.T) {
	cfg := testConfig(4, 1)
	cfg.Evolution.MutationScale = 0
	cfg.Evolution.ColourJitter = 0
	e := newTestEngine(t, cfg, track.Tarmac, Options{Seed: 4})

	e.setTarmac(1, 10)
	e.Turnover()

	views := e.Snapshot(nil)
	parent := views[len(views)-1]
	in := []float32{3, 1, 4, 1, 5}
	want := e.Brain(parent.ID).Evaluate(in)
	for _, child := range views[:len(views)-1] {
		if child.Colour != parent.Colour {
			t.Errorf("child colour %v, parent %v", child.Colour, parent.Colour)
		}
		got := e.Brain(child.ID).Evaluate(in)
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("child %d output %d = %v, parent %v", child.ID, i, got[i], want[i])
			}
		}
		if e.Brain(child.ID) == e.Brain(parent.ID) {
			t.Fatal("child shares its parent's network")
		}
	}
}

func TestAllDisabledTriggersTurnover(t *testing.T) {
	e := newTestEngine(t, testConfig(20, 4), track.Grass, Options{Seed: 5})

	e.Step() // cars gain grass distance
	if e.Generation() != 0 {
		t.Fatalf("turnover after one tick")
	}
	e.Step() // every car is now over the grass limit
	if e.Generation() != 1 {
		t.Fatalf("generation = %d, want 1 once every car is disabled", e.Generation())
	}
	for _, v := range e.Snapshot(nil) {
		if v.Disabled {
			t.Fatalf("car %d still disabled after turnover", v.ID)
		}
	}
}

func TestDisabledCarsStop(t *testing.T) {
	e := newTestEngine(t, testConfig(5, 1), track.Tarmac, Options{Seed: 6})
	e.Step()

	_, vel, _, _, _, odo, _ := e.carMapper.Get(e.cars[0])
	odo.Tarmac, odo.Grass = 1, 1
	vel.X, vel.Y = 5, 5

	e.Step()
	pos, vel, _, _, _, _, driver := e.carMapper.Get(e.cars[0])
	if !driver.Disabled {
		t.Fatal("car with tarmac 1, grass 1 should be disabled")
	}
	if vel.X != 0 || vel.Y != 0 {
		t.Errorf("disabled car still moving: %+v", *vel)
	}
	before := *pos
	e.Step()
	if *pos != before {
		t.Errorf("disabled car moved from %+v to %+v", before, *pos)
	}
}

func TestGenerationSchedule(t *testing.T) {
	cfg := testConfig(10, 2)
	cfg.Evolution.BaseGenerationSec = 1
	cfg.Evolution.PerGenerationSec = 0.5
	e := newTestEngine(t, cfg, track.Tarmac, Options{Seed: 7})

	for i := 0; i < 15; i++ {
		e.Step()
	}
	if e.Generation() != 0 {
		t.Fatalf("generation advanced after %v s", e.Info().TimeSinceLastGen)
	}
	if next := e.Info().TimeToNextGen(); next <= 0 || next > 0.1 {
		t.Errorf("time to next gen = %v", next)
	}
	e.Step()
	if e.Generation() != 1 {
		t.Fatalf("generation = %d after 16 ticks, want 1", e.Generation())
	}
	if info := e.Info(); info.TimeSinceLastGen != 0 || info.NextGenTime != 1.5 {
		t.Errorf("info after turnover = %+v", info)
	}
	if e.LastGeneration().Population != 10 {
		t.Errorf("last generation stats = %+v", e.LastGeneration())
	}
}

func TestStepIsDeterministic(t *testing.T) {
	cfg := testConfig(150, 10)
	a := newTestEngine(t, cfg, track.Tarmac, Options{Seed: 8})
	b := newTestEngine(t, cfg, track.Tarmac, Options{Seed: 8})

	for i := 0; i < 40; i++ {
		a.Step()
		b.Step()
	}
	va, vb := a.Snapshot(nil), b.Snapshot(nil)
	for i := range va {
		if va[i] != vb[i] {
			t.Fatalf("car %d diverged: %+v vs %+v", i, va[i], vb[i])
		}
	}
}

func TestCarsStayInsideWorld(t *testing.T) {
	cfg := testConfig(80, 8)
	e := newTestEngine(t, cfg, track.Tarmac, Options{Seed: 9})
	w, h := cfg.Derived.WorldW32, cfg.Derived.WorldH32

	var views []CarView
	for i := 0; i < 300; i++ {
		e.Step()
		views = e.Snapshot(views)
		for _, v := range views {
			if v.Pos.X < 0 || v.Pos.X > w || v.Pos.Y < 0 || v.Pos.Y > h {
				t.Fatalf("tick %d: car %d at %+v", i, v.ID, v.Pos)
			}
		}
	}
}

func TestSeedFromAndChampionArchive(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig(12, 3)
	e := newTestEngine(t, cfg, track.Tarmac, Options{Seed: 10, RunID: "run-1", Store: store})
	e.setTarmac(5, 99)
	bestID := e.Snapshot(nil)[5].ID
	e.elapsed = 3
	e.Turnover()

	champ, ok, err := store.LatestChampion(ctx, "run-1")
	if err != nil || !ok {
		t.Fatalf("LatestChampion: %v, %v", ok, err)
	}
	if champ.CarID != bestID || champ.Generation != 0 || champ.Tarmac != 99 || champ.AvgSpeed != 33 {
		t.Errorf("champion = %+v", champ)
	}

	net, err := neural.Decode(champ.Network)
	if err != nil {
		t.Fatalf("decoding champion: %v", err)
	}

	fresh := newTestEngine(t, cfg, track.Tarmac, Options{Seed: 11})
	if err := fresh.SeedFrom(net); err != nil {
		t.Fatalf("SeedFrom: %v", err)
	}
	views := fresh.Snapshot(nil)
	if len(views) != cfg.Evolution.Population {
		t.Fatalf("seeded population = %d", len(views))
	}
	if !views[0].WasSelected {
		t.Error("champion copy should be marked")
	}
	in := []float32{1, 2, 3, 4, 5}
	want := net.Evaluate(in)
	got := fresh.Brain(views[0].ID).Evaluate(in)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("seeded champion output %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSeedFromRejectsWrongShape(t *testing.T) {
	cfg := testConfig(20, 4)
	rng := rand.New(rand.NewSource(13))

	tests := []struct {
		name    string
		inputs  int
		outputs int
	}{
		{"too few inputs", 3, 4},
		{"too many outputs", 5, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, cfg, track.Tarmac, Options{Seed: 14})
			before := e.Snapshot(nil)

			net, err := neural.New(tt.inputs, []int{4}, tt.outputs, rng)
			if err != nil {
				t.Fatal(err)
			}
			if err := e.SeedFrom(net); !errors.Is(err, ErrShapeMismatch) {
				t.Fatalf("SeedFrom error = %v, want ErrShapeMismatch", err)
			}

			after := e.Snapshot(nil)
			if len(after) != len(before) || after[0].ID != before[0].ID {
				t.Errorf("population changed after a rejected seed")
			}
			for i := 0; i < 3; i++ {
				e.Step()
			}
		})
	}
}

func TestJitterColourWraps(t *testing.T) {
	e := newTestEngine(t, testConfig(1, 1), track.Tarmac, Options{Seed: 12})
	e.rng = rand.New(rand.NewSource(1))
	sawWrap := false
	for i := 0; i < 200; i++ {
		c := e.jitterColour([3]uint8{2, 128, 253})
		if c[0] > 200 || c[2] < 50 {
			sawWrap = true
		}
		if d := int(c[1]) - 128; d < -30 || d > 30 {
			t.Fatalf("middle channel moved by %d", d)
		}
	}
	if !sawWrap {
		t.Error("expected channels near the limits to wrap")
	}
}

func TestDetailAndCarAt(t *testing.T) {
	e := newTestEngine(t, testConfig(6, 2), track.Tarmac, Options{Seed: 13})
	e.Step()

	views := e.Snapshot(nil)
	d, ok := e.Detail(views[2].ID)
	if !ok || d.ID != views[2].ID || len(d.Sensors) != 5 || d.Brain == nil {
		t.Fatalf("Detail = %+v, %v", d, ok)
	}
	d.Sensors[0] = -1
	if again, _ := e.Detail(views[2].ID); again.Sensors[0] == -1 {
		t.Error("Detail leaked the live sensor buffer")
	}
	if _, ok := e.Detail(9999); ok {
		t.Error("Detail found a car that does not exist")
	}

	// All cars share the start line; the disabled one must not win.
	_, _, _, _, _, _, driver := e.carMapper.Get(e.cars[0])
	driver.Disabled = true
	id, ok := e.CarAt(views[0].Pos.X, views[0].Pos.Y, 50)
	if !ok || id == views[0].ID {
		t.Errorf("CarAt = %d, %v; want a racing car", id, ok)
	}
	if _, ok := e.CarAt(-500, -500, 10); ok {
		t.Error("CarAt matched far away from every car")
	}
}
