//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package gmw implements the simple additive-sharing protocol
// variant: each wire carries one share per party and the gates
// consume multiplication triples, squared pairs, and shared bits
// generated in preprocessing. All gate interaction happens in the
// online pass.
package gmw

import (
	"github.com/markkurossi/beavy"
	"github.com/markkurossi/beavy/bitvec"
)

// signal is a one-shot readiness condition.
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
		panic("gmw: readiness signal set twice")
	default:
	}
	close(s.ch)
}

func (s signal) wait() {
	<-s.ch
}

// BooleanWire carries numSIMD Boolean values as one packed share per
// party.
type BooleanWire struct {
	numSIMD int
	Share   bitvec.BitVector

	online signal
}

// NewBooleanWire creates a Boolean wire of SIMD width numSIMD.
func NewBooleanWire(numSIMD int) *BooleanWire {
	return &BooleanWire{
		numSIMD: numSIMD,
		online:  newSignal(),
	}
}

// NumSIMD returns the wire's SIMD width.
func (w *BooleanWire) NumSIMD() int {
	return w.numSIMD
}

// WaitOnline blocks until the share is ready.
func (w *BooleanWire) WaitOnline() {
	w.online.wait()
}

// SetOnlineReady marks the share ready.
func (w *BooleanWire) SetOnlineReady() {
	w.online.set()
}

// ArithmeticWire carries numSIMD ring integers as one share per
// party.
type ArithmeticWire[T beavy.Uint] struct {
	numSIMD int
	Share   []T

	online signal
}

// NewArithmeticWire creates an arithmetic wire of SIMD width
// numSIMD.
func NewArithmeticWire[T beavy.Uint](numSIMD int) *ArithmeticWire[T] {
	return &ArithmeticWire[T]{
		numSIMD: numSIMD,
		online:  newSignal(),
	}
}

// NumSIMD returns the wire's SIMD width.
func (w *ArithmeticWire[T]) NumSIMD() int {
	return w.numSIMD
}

// WaitOnline blocks until the share is ready.
func (w *ArithmeticWire[T]) WaitOnline() {
	w.online.wait()
}

// SetOnlineReady marks the share ready.
func (w *ArithmeticWire[T]) SetOnlineReady() {
	w.online.set()
}
