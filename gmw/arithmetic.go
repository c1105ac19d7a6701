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
	"github.com/markkurossi/beavy/prg"
	"github.com/markkurossi/beavy/triple"
)

// ArithmeticInputGate shares this party's or the peer's ring inputs
// via the exchanged mask streams.
type ArithmeticInputGate[T beavy.Uint] struct {
	gateBase
	p       *Provider
	numSIMD int
	inputID uint64
	mine    bool
	input   chan []T
	output  *ArithmeticWire[T]
}

// MakeArithmeticInputGateMine creates an input gate owned by this
// party.
func MakeArithmeticInputGateMine[T beavy.Uint](p *Provider, numSIMD int) (
	func([]T), *ArithmeticWire[T], error) {

	gate, err := makeArithmeticInput[T](p, numSIMD, true)
	if err != nil {
		return nil, nil, err
	}
	setter := func(inputs []T) {
		gate.input <- inputs
	}
	return setter, gate.output, nil
}

// MakeArithmeticInputGateTheirs creates the receiving side of an
// input gate owned by the peer.
func MakeArithmeticInputGateTheirs[T beavy.Uint](p *Provider, numSIMD int) (
	*ArithmeticWire[T], error) {

	gate, err := makeArithmeticInput[T](p, numSIMD, false)
	if err != nil {
		return nil, err
	}
	return gate.output, nil
}

func makeArithmeticInput[T beavy.Uint](p *Provider, numSIMD int, mine bool) (
	*ArithmeticInputGate[T], error) {

	if numSIMD <= 0 {
		return nil, fmt.Errorf("gmw: invalid input gate geometry")
	}
	gate := &ArithmeticInputGate[T]{
		gateBase: gateBase{id: p.reg.NextGateID()},
		p:        p,
		numSIMD:  numSIMD,
		inputID:  p.nextInputID(1),
		mine:     mine,
		output:   NewArithmeticWire[T](numSIMD),
	}
	if mine {
		gate.input = make(chan []T, 1)
	}
	p.reg.Register(gate)
	return gate, nil
}

// NeedSetup implements beavy.Gate.
func (g *ArithmeticInputGate[T]) NeedSetup() bool { return false }

// NeedOnline implements beavy.Gate.
func (g *ArithmeticInputGate[T]) NeedOnline() bool { return true }

// EvaluateSetup implements beavy.Gate.
func (g *ArithmeticInputGate[T]) EvaluateSetup() error { return nil }

// EvaluateOnline implements beavy.Gate.
func (g *ArithmeticInputGate[T]) EvaluateOnline() error {
	mask := prg.Uints[T](g.p.theirRNG, g.inputID, g.numSIMD)
	if g.mine {
		mask = prg.Uints[T](g.p.myRNG, g.inputID, g.numSIMD)
		inputs := <-g.input
		if len(inputs) != g.numSIMD {
			return fmt.Errorf("gmw: gate %d: %d inputs, want %d",
				g.id, len(inputs), g.numSIMD)
		}
		share := make([]T, g.numSIMD)
		for i := range share {
			share[i] = inputs[i] - mask[i]
		}
		g.output.Share = share
	} else {
		g.output.Share = mask
	}
	g.output.SetOnlineReady()
	return nil
}

// ArithmeticOutputGate reveals the wire to the output owner.
type ArithmeticOutputGate[T beavy.Uint] struct {
	gateBase
	p           *Provider
	owner       int
	input       *ArithmeticWire[T]
	shareFuture *p2p.Future
	promise     chan []T
}

// MakeArithmeticOutputGate creates an output gate. The returned
// getter blocks until the plaintext is available; it is nil when
// this party is not a recipient.
func MakeArithmeticOutputGate[T beavy.Uint](p *Provider,
	input *ArithmeticWire[T], owner int) (func() []T, error) {

	gate := &ArithmeticOutputGate[T]{
		gateBase: gateBase{id: p.reg.NextGateID()},
		p:        p,
		owner:    owner,
		input:    input,
	}
	var getter func() []T
	if gate.isRecipient() {
		gate.shareFuture = p.registerWire(gate.id)
		gate.promise = make(chan []T, 1)
		var result []T
		var have bool
		getter = func() []T {
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

func (g *ArithmeticOutputGate[T]) isRecipient() bool {
	return g.owner == beavy.AllParties || g.owner == g.p.cfg.PartyID
}

// NeedSetup implements beavy.Gate.
func (g *ArithmeticOutputGate[T]) NeedSetup() bool { return false }

// NeedOnline implements beavy.Gate.
func (g *ArithmeticOutputGate[T]) NeedOnline() bool { return true }

// EvaluateSetup implements beavy.Gate.
func (g *ArithmeticOutputGate[T]) EvaluateSetup() error { return nil }

// EvaluateOnline implements beavy.Gate.
func (g *ArithmeticOutputGate[T]) EvaluateOnline() error {
	g.input.WaitOnline()
	if g.owner != g.p.cfg.PartyID {
		err := g.p.sendWire(g.id, beavy.UintsToBytes(g.input.Share))
		if err != nil {
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
	other := beavy.UintsFromBytes[T](data)
	output := make([]T, g.input.NumSIMD())
	for i := range output {
		output[i] = g.input.Share[i] + other[i]
	}
	g.promise <- output
	return nil
}

// ArithmeticADDGate adds two wires locally.
type ArithmeticADDGate[T beavy.Uint] struct {
	gateBase
	inputA *ArithmeticWire[T]
	inputB *ArithmeticWire[T]
	output *ArithmeticWire[T]
}

// MakeADDGate creates an arithmetic addition gate.
func MakeADDGate[T beavy.Uint](p *Provider, inA, inB *ArithmeticWire[T]) (
	*ArithmeticWire[T], error) {

	if inA.NumSIMD() != inB.NumSIMD() {
		return nil, fmt.Errorf("gmw: ADD SIMD widths differ")
	}
	gate := &ArithmeticADDGate[T]{
		gateBase: gateBase{id: p.reg.NextGateID()},
		inputA:   inA,
		inputB:   inB,
		output:   NewArithmeticWire[T](inA.NumSIMD()),
	}
	p.reg.Register(gate)
	return gate.output, nil
}

// NeedSetup implements beavy.Gate.
func (g *ArithmeticADDGate[T]) NeedSetup() bool { return false }

// NeedOnline implements beavy.Gate.
func (g *ArithmeticADDGate[T]) NeedOnline() bool { return true }

// EvaluateSetup implements beavy.Gate.
func (g *ArithmeticADDGate[T]) EvaluateSetup() error { return nil }

// EvaluateOnline implements beavy.Gate.
func (g *ArithmeticADDGate[T]) EvaluateOnline() error {
	g.inputA.WaitOnline()
	g.inputB.WaitOnline()
	share := make([]T, g.output.NumSIMD())
	for i := range share {
		share[i] = g.inputA.Share[i] + g.inputB.Share[i]
	}
	g.output.Share = share
	g.output.SetOnlineReady()
	return nil
}

// ArithmeticNEGGate negates a wire locally.
type ArithmeticNEGGate[T beavy.Uint] struct {
	gateBase
	input  *ArithmeticWire[T]
	output *ArithmeticWire[T]
}

// MakeNEGGate creates an arithmetic negation gate.
func MakeNEGGate[T beavy.Uint](p *Provider, in *ArithmeticWire[T]) (
	*ArithmeticWire[T], error) {

	gate := &ArithmeticNEGGate[T]{
		gateBase: gateBase{id: p.reg.NextGateID()},
		input:    in,
		output:   NewArithmeticWire[T](in.NumSIMD()),
	}
	p.reg.Register(gate)
	return gate.output, nil
}

// NeedSetup implements beavy.Gate.
func (g *ArithmeticNEGGate[T]) NeedSetup() bool { return false }

// NeedOnline implements beavy.Gate.
func (g *ArithmeticNEGGate[T]) NeedOnline() bool { return true }

// EvaluateSetup implements beavy.Gate.
func (g *ArithmeticNEGGate[T]) EvaluateSetup() error { return nil }

// EvaluateOnline implements beavy.Gate.
func (g *ArithmeticNEGGate[T]) EvaluateOnline() error {
	g.input.WaitOnline()
	share := make([]T, g.output.NumSIMD())
	for i := range share {
		share[i] = -g.input.Share[i]
	}
	g.output.Share = share
	g.output.SetOnlineReady()
	return nil
}

// ArithmeticMULGate multiplies two wires with an integer
// multiplication triple per SIMD slot.
type ArithmeticMULGate[T beavy.Uint] struct {
	gateBase
	p        *Provider
	inputA   *ArithmeticWire[T]
	inputB   *ArithmeticWire[T]
	output   *ArithmeticWire[T]
	mtOffset int
	share    *p2p.Future
}

// MakeMULGate creates an arithmetic multiplication gate.
func MakeMULGate[T beavy.Uint](p *Provider, inA, inB *ArithmeticWire[T]) (
	*ArithmeticWire[T], error) {

	if inA.NumSIMD() != inB.NumSIMD() {
		return nil, fmt.Errorf("gmw: MUL SIMD widths differ")
	}
	gate := &ArithmeticMULGate[T]{
		gateBase: gateBase{id: p.reg.NextGateID()},
		p:        p,
		inputA:   inA,
		inputB:   inB,
		output:   NewArithmeticWire[T](inA.NumSIMD()),
		mtOffset: triple.RequestIntegerMTs[T](p.mt, inA.NumSIMD()),
	}
	gate.share = p.registerWire(gate.id)
	p.reg.Register(gate)
	return gate.output, nil
}

// NeedSetup implements beavy.Gate.
func (g *ArithmeticMULGate[T]) NeedSetup() bool { return false }

// NeedOnline implements beavy.Gate.
func (g *ArithmeticMULGate[T]) NeedOnline() bool { return true }

// EvaluateSetup implements beavy.Gate.
func (g *ArithmeticMULGate[T]) EvaluateSetup() error { return nil }

// EvaluateOnline implements beavy.Gate.
func (g *ArithmeticMULGate[T]) EvaluateOnline() error {
	numSIMD := g.output.NumSIMD()

	g.inputA.WaitOnline()
	g.inputB.WaitOnline()
	ta, tb, tc := triple.GetIntegerMTs[T](g.p.mt, g.mtOffset, numSIMD)

	// Open d = x-a, e = y-b.
	opened := make([]T, 2*numSIMD)
	for i := 0; i < numSIMD; i++ {
		opened[i] = g.inputA.Share[i] - ta[i]
		opened[numSIMD+i] = g.inputB.Share[i] - tb[i]
	}
	err := g.p.sendWire(g.id, beavy.UintsToBytes(opened))
	if err != nil {
		return err
	}
	data, err := g.share.Get()
	if err != nil {
		return err
	}
	other := beavy.UintsFromBytes[T](data)
	for i := range opened {
		opened[i] += other[i]
	}

	myJob := g.p.isMyJob(g.id)
	share := make([]T, numSIMD)
	for i := 0; i < numSIMD; i++ {
		d := opened[i]
		e := opened[numSIMD+i]
		share[i] = tc[i] + d*tb[i] + e*ta[i]
		if myJob {
			share[i] += d * e
		}
	}
	g.output.Share = share
	g.output.SetOnlineReady()
	return nil
}

// ArithmeticSQRGate squares a wire with a squared pair per SIMD
// slot.
type ArithmeticSQRGate[T beavy.Uint] struct {
	gateBase
	p        *Provider
	input    *ArithmeticWire[T]
	output   *ArithmeticWire[T]
	spOffset int
	share    *p2p.Future
}

// MakeSQRGate creates an arithmetic squaring gate.
func MakeSQRGate[T beavy.Uint](p *Provider, in *ArithmeticWire[T]) (
	*ArithmeticWire[T], error) {

	gate := &ArithmeticSQRGate[T]{
		gateBase: gateBase{id: p.reg.NextGateID()},
		p:        p,
		input:    in,
		output:   NewArithmeticWire[T](in.NumSIMD()),
		spOffset: triple.RequestSPs[T](p.sp, in.NumSIMD()),
	}
	gate.share = p.registerWire(gate.id)
	p.reg.Register(gate)
	return gate.output, nil
}

// NeedSetup implements beavy.Gate.
func (g *ArithmeticSQRGate[T]) NeedSetup() bool { return false }

// NeedOnline implements beavy.Gate.
func (g *ArithmeticSQRGate[T]) NeedOnline() bool { return true }

// EvaluateSetup implements beavy.Gate.
func (g *ArithmeticSQRGate[T]) EvaluateSetup() error { return nil }

// EvaluateOnline implements beavy.Gate.
func (g *ArithmeticSQRGate[T]) EvaluateOnline() error {
	numSIMD := g.output.NumSIMD()

	g.input.WaitOnline()
	a, c := triple.GetSPs[T](g.p.sp, g.spOffset, numSIMD)

	// Open d = x-a.
	opened := make([]T, numSIMD)
	for i := range opened {
		opened[i] = g.input.Share[i] - a[i]
	}
	err := g.p.sendWire(g.id, beavy.UintsToBytes(opened))
	if err != nil {
		return err
	}
	data, err := g.share.Get()
	if err != nil {
		return err
	}
	other := beavy.UintsFromBytes[T](data)
	for i := range opened {
		opened[i] += other[i]
	}

	myJob := g.p.isMyJob(g.id)
	share := make([]T, numSIMD)
	for i := range share {
		d := opened[i]
		share[i] = c[i] + 2*d*a[i]
		if myJob {
			share[i] += d * d
		}
	}
	g.output.Share = share
	g.output.SetOnlineReady()
	return nil
}

// BooleanToArithmeticGate composes the bits of T Boolean wires into
// an arithmetic wire, masking each bit with a shared bit whose
// Boolean sharing is the low bit of its arithmetic shares.
type BooleanToArithmeticGate[T beavy.Uint] struct {
	gateBase
	p        *Provider
	inputs   []*BooleanWire
	output   *ArithmeticWire[T]
	sbOffset int
	share    *p2p.Future
}

// MakeBooleanToArithmeticGate creates a bit-composition conversion
// gate. The number of input wires must equal the bit width of T;
// wire i carries bit i of the value.
func MakeBooleanToArithmeticGate[T beavy.Uint](p *Provider,
	inputs []*BooleanWire) (*ArithmeticWire[T], error) {

	bits := beavy.BitSize[T]()
	if len(inputs) != bits {
		return nil, fmt.Errorf("gmw: conversion needs %d wires, got %d",
			bits, len(inputs))
	}
	numSIMD := inputs[0].NumSIMD()
	gate := &BooleanToArithmeticGate[T]{
		gateBase: gateBase{id: p.reg.NextGateID()},
		p:        p,
		inputs:   inputs,
		output:   NewArithmeticWire[T](numSIMD),
		sbOffset: triple.RequestSBs[T](p.sb, bits*numSIMD),
	}
	gate.share = p.registerWire(gate.id)
	p.reg.Register(gate)
	return gate.output, nil
}

// NeedSetup implements beavy.Gate.
func (g *BooleanToArithmeticGate[T]) NeedSetup() bool { return false }

// NeedOnline implements beavy.Gate.
func (g *BooleanToArithmeticGate[T]) NeedOnline() bool { return true }

// EvaluateSetup implements beavy.Gate.
func (g *BooleanToArithmeticGate[T]) EvaluateSetup() error { return nil }

// EvaluateOnline implements beavy.Gate.
func (g *BooleanToArithmeticGate[T]) EvaluateOnline() error {
	numWires := len(g.inputs)
	numSIMD := g.output.NumSIMD()

	sbs := triple.GetSBs[T](g.p.sb, g.sbOffset, numWires*numSIMD)

	// Mask the bit shares with the shared bits and open.
	var t bitvec.BitVector
	for wireI, w := range g.inputs {
		w.WaitOnline()
		masked := w.Share.Clone()
		for j := 0; j < numSIMD; j++ {
			if sbs[wireI*numSIMD+j]&1 == 1 {
				masked.Set(j, !masked.Get(j))
			}
		}
		t.Append(masked)
	}
	if err := g.p.sendWire(g.id, t.Bytes()); err != nil {
		return err
	}
	data, err := g.share.Get()
	if err != nil {
		return err
	}
	t.Xor(bitvec.FromBytes(data, t.Size()))

	// Remove the mask in the arithmetic sharing.
	myJob := g.p.isMyJob(g.id)
	share := make([]T, numSIMD)
	for wireI := 0; wireI < numWires; wireI++ {
		for j := 0; j < numSIMD; j++ {
			var tij T
			if t.Get(wireI*numSIMD + j) {
				tij = 1
			}
			r := sbs[wireI*numSIMD+j]
			value := r - 2*tij*r
			if myJob {
				value += tij
			}
			share[j] += value << wireI
		}
	}
	g.output.Share = share
	g.output.SetOnlineReady()
	return nil
}
