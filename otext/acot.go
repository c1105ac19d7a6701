//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package otext

import (
	"fmt"

	"github.com/markkurossi/beavy"
)

// ACOTSender is the sender of additively correlated OTs: per OT the
// receiver learns x or x+corr in the ring of T, where each OT
// carries vectorSize ring elements.
type ACOTSender[T beavy.Uint] struct {
	senderBatch
	vectorSize   int
	correlations []T
	outputs      []T
}

// RegisterSendACOT reserves a batch of additively correlated OTs in
// the sender direction.
func RegisterSendACOT[T beavy.Uint](p *Provider, numOTs, vectorSize int) (
	*ACOTSender[T], error) {

	b, err := newSenderBatch(p, numOTs, beavy.BitSize[T]()*vectorSize)
	if err != nil {
		return nil, err
	}
	return &ACOTSender[T]{
		senderBatch: b,
		vectorSize:  vectorSize,
	}, nil
}

// SetCorrelations sets the per-OT correlations, vectorSize elements
// per OT.
func (s *ACOTSender[T]) SetCorrelations(correlations []T) error {
	if len(correlations) != s.numOTs*s.vectorSize {
		return fmt.Errorf("otext: %d correlations for batch of %d OTs",
			len(correlations), s.numOTs)
	}
	s.correlations = correlations
	return nil
}

// SendMessages sends the batch's sender message
// corr_i + y0_i + y1_i per OT element.
func (s *ACOTSender[T]) SendMessages() error {
	s.WaitSetup()
	buffer := make([]T, s.numOTs*s.vectorSize)
	copy(buffer, s.correlations)
	for i := 0; i < s.numOTs; i++ {
		y0b, y1b := s.pads(i)
		y0 := beavy.UintsFromBytes[T](y0b)
		y1 := beavy.UintsFromBytes[T](y1b)
		for j := 0; j < s.vectorSize; j++ {
			buffer[i*s.vectorSize+j] += y0[j] + y1[j]
		}
	}
	return s.p.sendSenderMessage(s.otID, beavy.UintsToBytes(buffer))
}

// ComputeOutputs computes the sender outputs after the receiver's
// corrections have arrived.
func (s *ACOTSender[T]) ComputeOutputs() error {
	if s.outputs != nil {
		return nil
	}
	s.WaitSetup()
	corrections, err := s.correctionBits()
	if err != nil {
		return err
	}
	s.outputs = make([]T, s.numOTs*s.vectorSize)
	for i := 0; i < s.numOTs; i++ {
		y0b, y1b := s.pads(i)
		yb := y0b
		if corrections.Get(i) {
			yb = y1b
		}
		copy(s.outputs[i*s.vectorSize:], beavy.UintsFromBytes[T](yb))
	}
	return nil
}

// GetOutputs returns the sender outputs, vectorSize elements per OT.
func (s *ACOTSender[T]) GetOutputs() []T {
	return s.outputs
}

// ACOTReceiver is the receiver of additively correlated OTs.
type ACOTReceiver[T beavy.Uint] struct {
	receiverBatch
	vectorSize int
	outputs    []T
}

// RegisterReceiveACOT reserves a batch of additively correlated OTs
// in the receiver direction.
func RegisterReceiveACOT[T beavy.Uint](p *Provider, numOTs, vectorSize int) (
	*ACOTReceiver[T], error) {

	b, err := newReceiverBatch(p, numOTs, beavy.BitSize[T]()*vectorSize)
	if err != nil {
		return nil, err
	}
	return &ACOTReceiver[T]{
		receiverBatch: b,
		vectorSize:    vectorSize,
	}, nil
}

// ComputeOutputs reconstructs the receiver outputs: y for choice 0
// and msg-y = corr+y' for choice 1.
func (r *ACOTReceiver[T]) ComputeOutputs() error {
	if r.outputs != nil {
		return nil
	}
	if !r.correctionsSent {
		return fmt.Errorf("otext: corrections must be sent before outputs")
	}
	data, err := r.senderMessage()
	if err != nil {
		return err
	}
	msg := beavy.UintsFromBytes[T](data)
	if len(msg) < r.numOTs*r.vectorSize {
		return fmt.Errorf("otext: short sender message for batch %d", r.otID)
	}
	r.outputs = make([]T, r.numOTs*r.vectorSize)
	for i := 0; i < r.numOTs; i++ {
		y := beavy.UintsFromBytes[T](r.output(i))
		for j := 0; j < r.vectorSize; j++ {
			if r.choices.Get(i) {
				r.outputs[i*r.vectorSize+j] = msg[i*r.vectorSize+j] - y[j]
			} else {
				r.outputs[i*r.vectorSize+j] = y[j]
			}
		}
	}
	return nil
}

// GetOutputs returns the receiver outputs, vectorSize elements per
// OT.
func (r *ACOTReceiver[T]) GetOutputs() []T {
	return r.outputs
}
