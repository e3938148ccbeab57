package game

import (
	"runtime"
	"sync"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/evodrive/components"
	"github.com/pthm-cable/evodrive/neural"
	"github.com/pthm-cable/evodrive/systems"
)

// parallelThreshold is the minimum car count to use parallel processing.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 64

// stage selects the per-car work a chunk performs.
type stage uint8

const (
	stageSense stage = iota
	stagePhysics
)

// carSnapshot is a working copy of one car. Workers only touch their own
// index range, and results are written back to the ECS after the join.
type carSnapshot struct {
	Entity ecs.Entity
	Brain  *neural.Network

	Pos    components.Position
	Vel    components.Velocity
	Rot    components.Rotation
	Body   components.Body
	Forces components.Forces
	Odo    components.Odometer
	Driver components.Driver
}

func (s *carSnapshot) car() systems.Car {
	return systems.Car{
		Pos:    &s.Pos,
		Vel:    &s.Vel,
		Rot:    &s.Rot,
		Body:   &s.Body,
		Forces: &s.Forces,
		Odo:    &s.Odo,
		Driver: &s.Driver,
	}
}

// workChunk represents a range of cars for a worker to process.
type workChunk struct {
	start, end int
	stage      stage
}

// parallelState holds the persistent worker pool.
type parallelState struct {
	snapshots  []carSnapshot
	numWorkers int

	workChan chan workChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newParallelState() *parallelState {
	return &parallelState{
		numWorkers: runtime.GOMAXPROCS(0),
		snapshots:  make([]carSnapshot, 0, 1024),
	}
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers(e *Engine) {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(e)
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *parallelState) worker(e *Engine) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			e.computeChunk(chunk.stage, chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// run executes st over every snapshot and returns once all chunks are done.
func (e *Engine) run(st stage) {
	n := len(e.parallel.snapshots)
	if n == 0 {
		return
	}
	if n < parallelThreshold {
		e.computeChunk(st, 0, n)
		return
	}

	p := e.parallel
	if !p.running {
		p.startWorkers(e)
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}
		p.workChan <- workChunk{start: start, end: end, stage: st}
		dispatched++
	}

	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}

// computeChunk processes cars [i0, i1) for one stage.
func (e *Engine) computeChunk(st stage, i0, i1 int) {
	dt := e.cfg.Derived.DT32
	for i := i0; i < i1; i++ {
		snap := &e.parallel.snapshots[i]
		if snap.Driver.Disabled {
			continue
		}

		switch st {
		case stageSense:
			snap.Driver.Sensors = systems.ComputeSensors(snap.Driver.Sensors, e.track, snap.Pos, snap.Rot.Heading, e.sensors)
			driver := e.driver
			driver.Net = snap.Brain
			snap.Driver.Controls = driver.Decide(snap.Driver.Sensors, false)
		case stagePhysics:
			surface := e.track.MaterialAt(snap.Pos.X, snap.Pos.Y)
			e.physics.Step(snap.car(), dt, surface)
		}
	}
}
