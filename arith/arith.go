//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package arith implements two-party integer multiplication on top
// of the OT extension: after one interaction, the parties hold
// additive shares of x*y where one party input x and the other y.
// The bit-integer variants multiply a shared bit by an integer
// vector with a single OT per product.
package arith

import (
	"fmt"

	"github.com/markkurossi/beavy"
	"github.com/markkurossi/beavy/bitvec"
	"github.com/markkurossi/beavy/otext"
)

// Provider registers multiplication sessions against the party
// pair's OT-extension provider.
type Provider struct {
	ot *otext.Provider
}

// NewProvider creates an arithmetic provider on the OT extension.
func NewProvider(ot *otext.Provider) *Provider {
	return &Provider{
		ot: ot,
	}
}

// MultiplicationSender is the input-x side of a batch of integer
// multiplications. It runs bits(T) additively correlated OTs per
// product, with correlations x<<j.
type MultiplicationSender[T beavy.Uint] struct {
	numMuls    int
	vectorSize int
	ot         *otext.ACOTSender[T]
	outputs    []T
}

// RegisterMultiplicationSend reserves a batch of numMuls integer
// multiplications of vectorSize elements each in the sender
// direction.
func RegisterMultiplicationSend[T beavy.Uint](p *Provider,
	numMuls, vectorSize int) (*MultiplicationSender[T], error) {

	acot, err := otext.RegisterSendACOT[T](p.ot,
		numMuls*beavy.BitSize[T](), vectorSize)
	if err != nil {
		return nil, err
	}
	return &MultiplicationSender[T]{
		numMuls:    numMuls,
		vectorSize: vectorSize,
		ot:         acot,
	}, nil
}

// SetInputs sets the sender's factors, vectorSize elements per
// multiplication, and sends the OT messages.
func (s *MultiplicationSender[T]) SetInputs(inputs []T) error {
	if len(inputs) != s.numMuls*s.vectorSize {
		return fmt.Errorf("arith: %d inputs for batch of %d multiplications",
			len(inputs), s.numMuls)
	}
	bits := beavy.BitSize[T]()
	vs := s.vectorSize

	correlations := make([]T, s.numMuls*bits*vs)
	for i := 0; i < s.numMuls; i++ {
		for k := 0; k < vs; k++ {
			value := inputs[i*vs+k]
			for j := 0; j < bits; j++ {
				correlations[i*vs*bits+j*vs+k] = value << j
			}
		}
	}
	if err := s.ot.SetCorrelations(correlations); err != nil {
		return err
	}
	return s.ot.SendMessages()
}

// ComputeOutputs computes the sender's share of the products.
func (s *MultiplicationSender[T]) ComputeOutputs() error {
	if err := s.ot.ComputeOutputs(); err != nil {
		return err
	}
	bits := beavy.BitSize[T]()
	vs := s.vectorSize
	otOutputs := s.ot.GetOutputs()

	s.outputs = make([]T, s.numMuls*vs)
	for i := 0; i < s.numMuls; i++ {
		for k := 0; k < vs; k++ {
			var value T
			for j := 0; j < bits; j++ {
				value -= otOutputs[i*vs*bits+j*vs+k]
			}
			s.outputs[i*vs+k] = value
		}
	}
	return nil
}

// GetOutputs returns the sender's product shares.
func (s *MultiplicationSender[T]) GetOutputs() []T {
	return s.outputs
}

// MultiplicationReceiver is the input-y side of a batch of integer
// multiplications. Its OT choice bits are the bits of its factors.
type MultiplicationReceiver[T beavy.Uint] struct {
	numMuls    int
	vectorSize int
	ot         *otext.ACOTReceiver[T]
	outputs    []T
}

// RegisterMultiplicationReceive reserves a batch of numMuls integer
// multiplications of vectorSize elements each in the receiver
// direction.
func RegisterMultiplicationReceive[T beavy.Uint](p *Provider,
	numMuls, vectorSize int) (*MultiplicationReceiver[T], error) {

	acot, err := otext.RegisterReceiveACOT[T](p.ot,
		numMuls*beavy.BitSize[T](), vectorSize)
	if err != nil {
		return nil, err
	}
	return &MultiplicationReceiver[T]{
		numMuls:    numMuls,
		vectorSize: vectorSize,
		ot:         acot,
	}, nil
}

// SetInputs sets the receiver's factors, one scalar per
// multiplication, and sends the corrections.
func (r *MultiplicationReceiver[T]) SetInputs(inputs []T) error {
	if len(inputs) != r.numMuls {
		return fmt.Errorf("arith: %d inputs for batch of %d multiplications",
			len(inputs), r.numMuls)
	}
	bits := beavy.BitSize[T]()

	choices := bitvec.New(r.numMuls * bits)
	for i, value := range inputs {
		for j := 0; j < bits; j++ {
			if (value>>j)&1 == 1 {
				choices.Set(i*bits+j, true)
			}
		}
	}
	if err := r.ot.SetChoices(choices); err != nil {
		return err
	}
	return r.ot.SendCorrections()
}

// ComputeOutputs computes the receiver's share of the products.
func (r *MultiplicationReceiver[T]) ComputeOutputs() error {
	if err := r.ot.ComputeOutputs(); err != nil {
		return err
	}
	bits := beavy.BitSize[T]()
	vs := r.vectorSize
	otOutputs := r.ot.GetOutputs()

	r.outputs = make([]T, r.numMuls*vs)
	for i := 0; i < r.numMuls; i++ {
		for k := 0; k < vs; k++ {
			var value T
			for j := 0; j < bits; j++ {
				value += otOutputs[i*vs*bits+j*vs+k]
			}
			r.outputs[i*vs+k] = value
		}
	}
	return nil
}

// GetOutputs returns the receiver's product shares.
func (r *MultiplicationReceiver[T]) GetOutputs() []T {
	return r.outputs
}

// BitMultiplicationIntSide is the integer side of a batch of
// bit-integer multiplications: one OT per product with vector-packed
// correlations.
type BitMultiplicationIntSide[T beavy.Uint] struct {
	numMuls    int
	vectorSize int
	ot         *otext.ACOTSender[T]
	outputs    []T
}

// RegisterBitMultiplicationIntSide reserves the integer side of
// numMuls bit-integer multiplications with vectorSize correlations
// per product.
func RegisterBitMultiplicationIntSide[T beavy.Uint](p *Provider,
	numMuls, vectorSize int) (*BitMultiplicationIntSide[T], error) {

	acot, err := otext.RegisterSendACOT[T](p.ot, numMuls, vectorSize)
	if err != nil {
		return nil, err
	}
	return &BitMultiplicationIntSide[T]{
		numMuls:    numMuls,
		vectorSize: vectorSize,
		ot:         acot,
	}, nil
}

// SetInputs sets the integer factors, vectorSize per product, and
// sends the OT messages.
func (s *BitMultiplicationIntSide[T]) SetInputs(inputs []T) error {
	if len(inputs) != s.numMuls*s.vectorSize {
		return fmt.Errorf("arith: %d inputs for batch of %d multiplications",
			len(inputs), s.numMuls)
	}
	if err := s.ot.SetCorrelations(inputs); err != nil {
		return err
	}
	return s.ot.SendMessages()
}

// ComputeOutputs computes the integer side's product shares.
func (s *BitMultiplicationIntSide[T]) ComputeOutputs() error {
	if err := s.ot.ComputeOutputs(); err != nil {
		return err
	}
	otOutputs := s.ot.GetOutputs()
	s.outputs = make([]T, len(otOutputs))
	for i, v := range otOutputs {
		s.outputs[i] = -v
	}
	return nil
}

// GetOutputs returns the integer side's product shares.
func (s *BitMultiplicationIntSide[T]) GetOutputs() []T {
	return s.outputs
}

// BitMultiplicationBitSide is the bit side of a batch of bit-integer
// multiplications: its OT choice bits are its bit shares.
type BitMultiplicationBitSide[T beavy.Uint] struct {
	numMuls    int
	vectorSize int
	ot         *otext.ACOTReceiver[T]
	outputs    []T
}

// RegisterBitMultiplicationBitSide reserves the bit side of numMuls
// bit-integer multiplications with vectorSize outputs per product.
func RegisterBitMultiplicationBitSide[T beavy.Uint](p *Provider,
	numMuls, vectorSize int) (*BitMultiplicationBitSide[T], error) {

	acot, err := otext.RegisterReceiveACOT[T](p.ot, numMuls, vectorSize)
	if err != nil {
		return nil, err
	}
	return &BitMultiplicationBitSide[T]{
		numMuls:    numMuls,
		vectorSize: vectorSize,
		ot:         acot,
	}, nil
}

// SetInputs sets the bit factors and sends the corrections.
func (r *BitMultiplicationBitSide[T]) SetInputs(bits bitvec.BitVector) error {
	if bits.Size() != r.numMuls {
		return fmt.Errorf("arith: %d bits for batch of %d multiplications",
			bits.Size(), r.numMuls)
	}
	if err := r.ot.SetChoices(bits); err != nil {
		return err
	}
	return r.ot.SendCorrections()
}

// ComputeOutputs computes the bit side's product shares.
func (r *BitMultiplicationBitSide[T]) ComputeOutputs() error {
	if err := r.ot.ComputeOutputs(); err != nil {
		return err
	}
	r.outputs = r.ot.GetOutputs()
	return nil
}

// GetOutputs returns the bit side's product shares.
func (r *BitMultiplicationBitSide[T]) GetOutputs() []T {
	return r.outputs
}
