//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package gmw

import (
	"fmt"

	"github.com/markkurossi/beavy"
	"github.com/markkurossi/beavy/bitvec"
	"github.com/markkurossi/beavy/p2p"
)

// BooleanInputGate shares this party's or the peer's Boolean inputs.
// The sharing uses the exchanged mask streams, so no message is
// needed: the owner's share is the plaintext masked with the stream
// the peer derives as its share.
type BooleanInputGate struct {
	gateBase
	p        *Provider
	numWires int
	numSIMD  int
	inputID  uint64
	mine     bool
	input    chan []bitvec.BitVector
	outputs  []*BooleanWire
}

// MakeBooleanInputGateMine creates an input gate owned by this
// party.
func (p *Provider) MakeBooleanInputGateMine(numWires, numSIMD int) (
	func([]bitvec.BitVector), []*BooleanWire, error) {

	gate, err := p.makeBooleanInput(numWires, numSIMD, true)
	if err != nil {
		return nil, nil, err
	}
	setter := func(inputs []bitvec.BitVector) {
		gate.input <- inputs
	}
	return setter, gate.outputs, nil
}

// MakeBooleanInputGateTheirs creates the receiving side of an input
// gate owned by the peer.
func (p *Provider) MakeBooleanInputGateTheirs(numWires, numSIMD int) (
	[]*BooleanWire, error) {

	gate, err := p.makeBooleanInput(numWires, numSIMD, false)
	if err != nil {
		return nil, err
	}
	return gate.outputs, nil
}

func (p *Provider) makeBooleanInput(numWires, numSIMD int, mine bool) (
	*BooleanInputGate, error) {

	if numWires <= 0 || numSIMD <= 0 {
		return nil, fmt.Errorf("gmw: invalid input gate geometry")
	}
	gate := &BooleanInputGate{
		gateBase: gateBase{id: p.reg.NextGateID()},
		p:        p,
		numWires: numWires,
		numSIMD:  numSIMD,
		inputID:  p.nextInputID(numWires),
		mine:     mine,
	}
	if mine {
		gate.input = make(chan []bitvec.BitVector, 1)
	}
	for i := 0; i < numWires; i++ {
		gate.outputs = append(gate.outputs, NewBooleanWire(numSIMD))
	}
	p.reg.Register(gate)
	return gate, nil
}

// NeedSetup implements beavy.Gate.
func (g *BooleanInputGate) NeedSetup() bool { return false }

// NeedOnline implements beavy.Gate.
func (g *BooleanInputGate) NeedOnline() bool { return true }

// EvaluateSetup implements beavy.Gate.
func (g *BooleanInputGate) EvaluateSetup() error { return nil }

// EvaluateOnline implements beavy.Gate.
func (g *BooleanInputGate) EvaluateOnline() error {
	if !g.mine {
		for i, w := range g.outputs {
			w.Share = g.p.theirRNG.Bits(g.inputID+uint64(i), g.numSIMD)
			w.SetOnlineReady()
		}
		return nil
	}
	inputs := <-g.input
	if len(inputs) != g.numWires {
		return fmt.Errorf("gmw: gate %d: %d input vectors, want %d",
			g.id, len(inputs), g.numWires)
	}
	for i, w := range g.outputs {
		if inputs[i].Size() != g.numSIMD {
			return fmt.Errorf("gmw: gate %d: input size %d, want %d",
				g.id, inputs[i].Size(), g.numSIMD)
		}
		w.Share = inputs[i].Clone()
		w.Share.Xor(g.p.myRNG.Bits(g.inputID+uint64(i), g.numSIMD))
		w.SetOnlineReady()
	}
	return nil
}

// BooleanOutputGate reveals the wires to the output owner.
type BooleanOutputGate struct {
	gateBase
	p           *Provider
	owner       int
	inputs      []*BooleanWire
	shareFuture *p2p.Future
	promise     chan []bitvec.BitVector
}

// MakeBooleanOutputGate creates an output gate. The returned getter
// blocks until the plaintext is available; it is nil when this party
// is not a recipient.
func (p *Provider) MakeBooleanOutputGate(inputs []*BooleanWire, owner int) (
	func() []bitvec.BitVector, error) {

	if len(inputs) == 0 {
		return nil, fmt.Errorf("gmw: gate needs input wires")
	}
	gate := &BooleanOutputGate{
		gateBase: gateBase{id: p.reg.NextGateID()},
		p:        p,
		owner:    owner,
		inputs:   inputs,
	}
	var getter func() []bitvec.BitVector
	if gate.isRecipient() {
		gate.shareFuture = p.registerWire(gate.id)
		gate.promise = make(chan []bitvec.BitVector, 1)
		var result []bitvec.BitVector
		var have bool
		getter = func() []bitvec.BitVector {
			if !have {
				result = <-gate.promise
				have = true
			}
			return result
		}
	}
	p.reg.Register(gate)
	return getter, nil
}

func (g *BooleanOutputGate) isRecipient() bool {
	return g.owner == beavy.AllParties || g.owner == g.p.cfg.PartyID
}

// NeedSetup implements beavy.Gate.
func (g *BooleanOutputGate) NeedSetup() bool { return false }

// NeedOnline implements beavy.Gate.
func (g *BooleanOutputGate) NeedOnline() bool { return true }

// EvaluateSetup implements beavy.Gate.
func (g *BooleanOutputGate) EvaluateSetup() error { return nil }

// EvaluateOnline implements beavy.Gate.
func (g *BooleanOutputGate) EvaluateOnline() error {
	numSIMD := g.inputs[0].NumSIMD()

	var mine bitvec.BitVector
	for _, w := range g.inputs {
		w.WaitOnline()
		mine.Append(w.Share)
	}
	if g.owner != g.p.cfg.PartyID {
		if err := g.p.sendWire(g.id, mine.Bytes()); err != nil {
			return err
		}
	}
	if !g.isRecipient() {
		return nil
	}
	data, err := g.shareFuture.Get()
	if err != nil {
		return err
	}
	mine.Xor(bitvec.FromBytes(data, mine.Size()))

	outputs := make([]bitvec.BitVector, len(g.inputs))
	for i := range g.inputs {
		outputs[i] = mine.Subset(i*numSIMD, (i+1)*numSIMD)
	}
	g.promise <- outputs
	return nil
}

// BooleanXORGate XORs two wire sets locally.
type BooleanXORGate struct {
	gateBase
	inputsA []*BooleanWire
	inputsB []*BooleanWire
	outputs []*BooleanWire
}

// MakeXORGate creates a Boolean XOR gate.
func (p *Provider) MakeXORGate(inA, inB []*BooleanWire) (
	[]*BooleanWire, error) {

	if len(inA) == 0 || len(inA) != len(inB) {
		return nil, fmt.Errorf("gmw: XOR input widths differ")
	}
	gate := &BooleanXORGate{
		gateBase: gateBase{id: p.reg.NextGateID()},
		inputsA:  inA,
		inputsB:  inB,
	}
	for range inA {
		gate.outputs = append(gate.outputs, NewBooleanWire(inA[0].NumSIMD()))
	}
	p.reg.Register(gate)
	return gate.outputs, nil
}

// NeedSetup implements beavy.Gate.
func (g *BooleanXORGate) NeedSetup() bool { return false }

// NeedOnline implements beavy.Gate.
func (g *BooleanXORGate) NeedOnline() bool { return true }

// EvaluateSetup implements beavy.Gate.
func (g *BooleanXORGate) EvaluateSetup() error { return nil }

// EvaluateOnline implements beavy.Gate.
func (g *BooleanXORGate) EvaluateOnline() error {
	for i, out := range g.outputs {
		a := g.inputsA[i]
		b := g.inputsB[i]
		a.WaitOnline()
		b.WaitOnline()
		out.Share = a.Share.Clone()
		out.Share.Xor(b.Share)
		out.SetOnlineReady()
	}
	return nil
}

// BooleanINVGate inverts the wires: the whose-job party flips its
// shares.
type BooleanINVGate struct {
	gateBase
	isMyJob bool
	inputs  []*BooleanWire
	outputs []*BooleanWire
}

// MakeINVGate creates a Boolean inverter.
func (p *Provider) MakeINVGate(inputs []*BooleanWire) ([]*BooleanWire, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("gmw: gate needs input wires")
	}
	gate := &BooleanINVGate{
		gateBase: gateBase{id: p.reg.NextGateID()},
		inputs:   inputs,
	}
	gate.isMyJob = p.isMyJob(gate.id)
	if gate.isMyJob {
		for range inputs {
			gate.outputs = append(gate.outputs,
				NewBooleanWire(inputs[0].NumSIMD()))
		}
	} else {
		gate.outputs = inputs
	}
	p.reg.Register(gate)
	return gate.outputs, nil
}

// NeedSetup implements beavy.Gate.
func (g *BooleanINVGate) NeedSetup() bool { return false }

// NeedOnline implements beavy.Gate.
func (g *BooleanINVGate) NeedOnline() bool { return g.isMyJob }

// EvaluateSetup implements beavy.Gate.
func (g *BooleanINVGate) EvaluateSetup() error { return nil }

// EvaluateOnline implements beavy.Gate.
func (g *BooleanINVGate) EvaluateOnline() error {
	if !g.isMyJob {
		return nil
	}
	for i, out := range g.outputs {
		in := g.inputs[i]
		in.WaitOnline()
		out.Share = in.Share.Clone()
		out.Share.Invert()
		out.SetOnlineReady()
	}
	return nil
}

// BooleanANDGate computes AND with a binary multiplication triple
// per bit: the masked differences are opened in one round and the
// product share assembled locally.
type BooleanANDGate struct {
	gateBase
	p        *Provider
	inputsA  []*BooleanWire
	inputsB  []*BooleanWire
	outputs  []*BooleanWire
	mtOffset int
	share    *p2p.Future
}

// MakeANDGate creates a Boolean AND gate.
func (p *Provider) MakeANDGate(inA, inB []*BooleanWire) (
	[]*BooleanWire, error) {

	if len(inA) == 0 || len(inA) != len(inB) {
		return nil, fmt.Errorf("gmw: AND input widths differ")
	}
	numSIMD := inA[0].NumSIMD()
	gate := &BooleanANDGate{
		gateBase: gateBase{id: p.reg.NextGateID()},
		p:        p,
		inputsA:  inA,
		inputsB:  inB,
		mtOffset: p.mt.RequestBinaryMTs(len(inA) * numSIMD),
	}
	for range inA {
		gate.outputs = append(gate.outputs, NewBooleanWire(numSIMD))
	}
	gate.share = p.registerWire(gate.id)
	p.reg.Register(gate)
	return gate.outputs, nil
}

// NeedSetup implements beavy.Gate.
func (g *BooleanANDGate) NeedSetup() bool { return false }

// NeedOnline implements beavy.Gate.
func (g *BooleanANDGate) NeedOnline() bool { return true }

// EvaluateSetup implements beavy.Gate.
func (g *BooleanANDGate) EvaluateSetup() error { return nil }

// EvaluateOnline implements beavy.Gate.
func (g *BooleanANDGate) EvaluateOnline() error {
	numSIMD := g.inputsA[0].NumSIMD()
	numBits := len(g.inputsA) * numSIMD

	var x, y bitvec.BitVector
	for i := range g.inputsA {
		g.inputsA[i].WaitOnline()
		g.inputsB[i].WaitOnline()
		x.Append(g.inputsA[i].Share)
		y.Append(g.inputsB[i].Share)
	}
	ta, tb, tc := g.p.mt.GetBinaryMTs(g.mtOffset, numBits)

	d := x.Clone()
	d.Xor(ta)
	e := y.Clone()
	e.Xor(tb)

	opened := d.Clone()
	opened.Append(e)
	if err := g.p.sendWire(g.id, opened.Bytes()); err != nil {
		return err
	}
	data, err := g.share.Get()
	if err != nil {
		return err
	}
	other := bitvec.FromBytes(data, 2*numBits)
	d.Xor(other.Subset(0, numBits))
	e.Xor(other.Subset(numBits, 2*numBits))

	z := tc.Clone()
	tmp := d.Clone()
	tmp.And(tb)
	z.Xor(tmp)
	tmp = e.Clone()
	tmp.And(ta)
	z.Xor(tmp)
	if g.p.isMyJob(g.id) {
		tmp = d.Clone()
		tmp.And(e)
		z.Xor(tmp)
	}

	for i, out := range g.outputs {
		out.Share = z.Subset(i*numSIMD, (i+1)*numSIMD)
		out.SetOnlineReady()
	}
	return nil
}
