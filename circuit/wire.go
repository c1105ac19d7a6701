//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package circuit implements the BEAVY wires and the gate library: a
// value on a wire is represented by a secret share lambda, additive
// between the parties, and a public share Delta = x+lambda known to
// both. Linear gates are local; nonlinear gates consume correlated
// randomness produced by the OT extension in their setup phase and
// exchange one public-share message in their online phase.
package circuit

import (
	"fmt"

	"github.com/markkurossi/beavy"
	"github.com/markkurossi/beavy/bitvec"
)

// signal is a one-shot readiness condition. Setting a signal twice
// is a fatal programming error.
type signal struct {
	ch chan struct{}
}

func newSignal() signal {
	return signal{
		ch: make(chan struct{}),
	}
}

func (s signal) set() {
	select {
	case <-s.ch:
		panic("circuit: readiness signal set twice")
	default:
	}
	close(s.ch)
}

func (s signal) wait() {
	<-s.ch
}

// BooleanWire carries numSIMD Boolean values as packed bit vectors.
// The secret share may be read after WaitSetup, the public share
// after WaitOnline; neither is mutated after its readiness fires.
type BooleanWire struct {
	numSIMD     int
	SecretShare bitvec.BitVector
	PublicShare bitvec.BitVector

	setup  signal
	online signal
}

// NewBooleanWire creates a Boolean wire of SIMD width numSIMD.
func NewBooleanWire(numSIMD int) *BooleanWire {
	return &BooleanWire{
		numSIMD: numSIMD,
		setup:   newSignal(),
		online:  newSignal(),
	}
}

// NumSIMD returns the wire's SIMD width.
func (w *BooleanWire) NumSIMD() int {
	return w.numSIMD
}

// WaitSetup blocks until the secret share is ready.
func (w *BooleanWire) WaitSetup() {
	w.setup.wait()
}

// SetSetupReady marks the secret share ready.
func (w *BooleanWire) SetSetupReady() {
	w.setup.set()
}

// WaitOnline blocks until the public share is ready.
func (w *BooleanWire) WaitOnline() {
	w.online.wait()
}

// SetOnlineReady marks the public share ready.
func (w *BooleanWire) SetOnlineReady() {
	w.online.set()
}

// ArithmeticWire carries numSIMD ring integers of the width of T.
type ArithmeticWire[T beavy.Uint] struct {
	numSIMD     int
	SecretShare []T
	PublicShare []T

	setup  signal
	online signal
}

// NewArithmeticWire creates an arithmetic wire of SIMD width
// numSIMD.
func NewArithmeticWire[T beavy.Uint](numSIMD int) *ArithmeticWire[T] {
	return &ArithmeticWire[T]{
		numSIMD: numSIMD,
		setup:   newSignal(),
		online:  newSignal(),
	}
}

// NumSIMD returns the wire's SIMD width.
func (w *ArithmeticWire[T]) NumSIMD() int {
	return w.numSIMD
}

// WaitSetup blocks until the secret share is ready.
func (w *ArithmeticWire[T]) WaitSetup() {
	w.setup.wait()
}

// SetSetupReady marks the secret share ready.
func (w *ArithmeticWire[T]) SetSetupReady() {
	w.setup.set()
}

// WaitOnline blocks until the public share is ready.
func (w *ArithmeticWire[T]) WaitOnline() {
	w.online.wait()
}

// SetOnlineReady marks the public share ready.
func (w *ArithmeticWire[T]) SetOnlineReady() {
	w.online.set()
}

// checkBooleanInputs verifies that the wires form a valid gate input
// set: at least one wire, all with the same SIMD width.
func checkBooleanInputs(wires []*BooleanWire) (int, error) {
	if len(wires) == 0 {
		return 0, fmt.Errorf("circuit: gate needs input wires")
	}
	numSIMD := wires[0].NumSIMD()
	for _, w := range wires {
		if w.NumSIMD() != numSIMD {
			return 0, fmt.Errorf("circuit: SIMD width mismatch: %d != %d",
				w.NumSIMD(), numSIMD)
		}
	}
	return numSIMD, nil
}

// gateBase carries the gate id.
type gateBase struct {
	id uint64
}

// ID returns the gate id.
func (g *gateBase) ID() uint64 {
	return g.id
}
