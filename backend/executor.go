//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package backend

import (
	"sync"

	"github.com/markkurossi/beavy"
)

// EvaluateParallel runs the setup pass and then the online pass,
// dispatching each gate's evaluate method as its own cooperative
// task. Dependency resolution is by per-wire readiness and message
// futures, not by topological sort; the pass barrier guarantees
// every gate's setup completes before any gate's online begins.
func (b *Backend) EvaluateParallel() error {
	b.Debugf("setup pass (parallel)\n")
	if err := b.runPassParallel(true); err != nil {
		return err
	}
	b.Debugf("online pass (parallel)\n")
	return b.runPassParallel(false)
}

// EvaluateSequential runs both passes inline in registration order.
// Registration order is a topological order of the gate graph, so
// inline execution cannot deadlock on local wires; gates still block
// on peer messages.
func (b *Backend) EvaluateSequential() error {
	b.Debugf("setup pass (sequential)\n")
	if err := b.runPassSequential(true); err != nil {
		return err
	}
	b.Debugf("online pass (sequential)\n")
	return b.runPassSequential(false)
}

func (b *Backend) passGates(setup bool) []beavy.Gate {
	b.m.Lock()
	defer b.m.Unlock()

	var gates []beavy.Gate
	for _, g := range b.gates {
		if (setup && g.NeedSetup()) || (!setup && g.NeedOnline()) {
			gates = append(gates, g)
		}
	}
	return gates
}

func evaluate(g beavy.Gate, setup bool) error {
	if setup {
		return g.EvaluateSetup()
	}
	return g.EvaluateOnline()
}

func (b *Backend) runPassSequential(setup bool) error {
	for _, g := range b.passGates(setup) {
		if err := evaluate(g, setup); err != nil {
			return err
		}
	}
	return nil
}

func (b *Backend) runPassParallel(setup bool) error {
	gates := b.passGates(setup)

	var wg sync.WaitGroup
	var m sync.Mutex
	var firstErr error

	wg.Add(len(gates))
	for _, g := range gates {
		g := g
		go func() {
			defer wg.Done()
			if err := evaluate(g, setup); err != nil {
				m.Lock()
				defer m.Unlock()
				if firstErr == nil {
					firstErr = err
				}
			}
		}()
	}
	wg.Wait()
	return firstErr
}
