//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"github.com/markkurossi/beavy"
	"github.com/markkurossi/beavy/fss"
)

// DPFGate evaluates a distributed point function on the masked
// public value of an arithmetic wire. The key must have been
// generated for the wire's total mask, so the public share is the
// masked input the key expects. Evaluation is local and
// non-interactive; the output wire's public shares are additive
// shares of beta*[x == alpha], in the MULNI style.
type DPFGate[T beavy.Uint] struct {
	gateBase
	input  *ArithmeticWire[T]
	output *ArithmeticWire[T]
	party  bool
	key    *fss.DPFKey[T]
}

// MakeDPFGate creates a DPF evaluation gate with this party's key.
func MakeDPFGate[T beavy.Uint](p *Provider, in *ArithmeticWire[T],
	key *fss.DPFKey[T]) (*ArithmeticWire[T], error) {

	gate := &DPFGate[T]{
		gateBase: gateBase{id: p.reg.NextGateID()},
		input:    in,
		output:   NewArithmeticWire[T](in.NumSIMD()),
		party:    p.cfg.PartyID == 1,
		key:      key,
	}
	p.reg.Register(gate)
	return gate.output, nil
}

// NeedSetup implements beavy.Gate.
func (g *DPFGate[T]) NeedSetup() bool { return true }

// NeedOnline implements beavy.Gate.
func (g *DPFGate[T]) NeedOnline() bool { return true }

// EvaluateSetup implements beavy.Gate.
func (g *DPFGate[T]) EvaluateSetup() error {
	g.output.SecretShare = make([]T, g.output.NumSIMD())
	g.output.SetSetupReady()
	return nil
}

// EvaluateOnline implements beavy.Gate.
func (g *DPFGate[T]) EvaluateOnline() error {
	g.input.WaitOnline()
	out := make([]T, g.output.NumSIMD())
	for i, xHat := range g.input.PublicShare {
		out[i] = fss.DPFEval(g.party, g.key, xHat)
	}
	g.output.PublicShare = out
	g.output.SetOnlineReady()
	return nil
}

// ICGate evaluates interval containment [p <= x <= q] on the masked
// public value of an arithmetic wire, like DPFGate but with a DCF
// key and interval bounds.
type ICGate[T beavy.Uint] struct {
	gateBase
	input  *ArithmeticWire[T]
	output *ArithmeticWire[T]
	party  bool
	key    *fss.DCFKey[T]
	p      T
	q      T
}

// MakeICGate creates an interval-containment evaluation gate with
// this party's key.
func MakeICGate[T beavy.Uint](prov *Provider, in *ArithmeticWire[T],
	key *fss.DCFKey[T], p, q T) (*ArithmeticWire[T], error) {

	gate := &ICGate[T]{
		gateBase: gateBase{id: prov.reg.NextGateID()},
		input:    in,
		output:   NewArithmeticWire[T](in.NumSIMD()),
		party:    prov.cfg.PartyID == 1,
		key:      key,
		p:        p,
		q:        q,
	}
	prov.reg.Register(gate)
	return gate.output, nil
}

// NeedSetup implements beavy.Gate.
func (g *ICGate[T]) NeedSetup() bool { return true }

// NeedOnline implements beavy.Gate.
func (g *ICGate[T]) NeedOnline() bool { return true }

// EvaluateSetup implements beavy.Gate.
func (g *ICGate[T]) EvaluateSetup() error {
	g.output.SecretShare = make([]T, g.output.NumSIMD())
	g.output.SetSetupReady()
	return nil
}

// EvaluateOnline implements beavy.Gate.
func (g *ICGate[T]) EvaluateOnline() error {
	g.input.WaitOnline()
	out := make([]T, g.output.NumSIMD())
	for i, xHat := range g.input.PublicShare {
		out[i] = fss.ICEval(g.party, g.p, g.q, g.key, xHat)
	}
	g.output.PublicShare = out
	g.output.SetOnlineReady()
	return nil
}
