//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"fmt"

	"github.com/markkurossi/beavy"
	"github.com/markkurossi/beavy/bitvec"
	"github.com/markkurossi/beavy/otext"
	"github.com/markkurossi/beavy/p2p"
)

// EQEXPGate tests two public positions for equality by expanding
// each into a one-hot indicator of vecSize slots and computing the
// indicator dot product with one round of correlated OT. Party 0
// expands wire a's public share, party 1 wire b's; the XOR-fold of
// the product sharing is the equality bit, emitted on a Boolean
// wire.
type EQEXPGate[T beavy.Uint] struct {
	gateBase
	p       *Provider
	inputA  *ArithmeticWire[T]
	inputB  *ArithmeticWire[T]
	vecSize int
	output  *BooleanWire

	otSender   *otext.XCOTBitSender
	otReceiver *otext.XCOTBitReceiver
	share      *p2p.Future
}

// MakeEQEXPGate creates an equality-expansion gate over vecSize
// positions.
func MakeEQEXPGate[T beavy.Uint](p *Provider, inA, inB *ArithmeticWire[T],
	vecSize int) (*BooleanWire, error) {

	if vecSize <= 0 {
		return nil, fmt.Errorf("circuit: EQEXP needs a positive vector size")
	}
	if inA.NumSIMD() != inB.NumSIMD() {
		return nil, fmt.Errorf("circuit: EQEXP SIMD widths differ: %d != %d",
			inA.NumSIMD(), inB.NumSIMD())
	}
	numSIMD := inA.NumSIMD()
	gate := &EQEXPGate[T]{
		gateBase: gateBase{id: p.reg.NextGateID()},
		p:        p,
		inputA:   inA,
		inputB:   inB,
		vecSize:  vecSize,
		output:   NewBooleanWire(numSIMD),
	}
	numBits := vecSize * numSIMD
	var err error
	if p.cfg.PartyID == 0 {
		gate.otReceiver, err = p.ot.RegisterReceiveXCOTBit(numBits)
	} else {
		gate.otSender, err = p.ot.RegisterSendXCOTBit(numBits)
	}
	if err != nil {
		return nil, err
	}
	gate.share = p.registerWire(gate.id)
	p.reg.Register(gate)
	return gate.output, nil
}

// NeedSetup implements beavy.Gate.
func (g *EQEXPGate[T]) NeedSetup() bool { return true }

// NeedOnline implements beavy.Gate.
func (g *EQEXPGate[T]) NeedOnline() bool { return true }

// EvaluateSetup implements beavy.Gate.
func (g *EQEXPGate[T]) EvaluateSetup() error {
	secret, err := g.p.randomBits(g.output.NumSIMD())
	if err != nil {
		return err
	}
	g.output.SecretShare = secret
	g.output.SetSetupReady()
	return nil
}

// indicator builds the one-hot vectors of the positions, simd-major
// within each position slot.
func (g *EQEXPGate[T]) indicator(public []T) bitvec.BitVector {
	numSIMD := g.output.NumSIMD()
	bits := bitvec.New(g.vecSize * numSIMD)
	for j := 0; j < numSIMD; j++ {
		pos := int(uint64(public[j]) % uint64(g.vecSize))
		bits.Set(pos*numSIMD+j, true)
	}
	return bits
}

// EvaluateOnline implements beavy.Gate.
func (g *EQEXPGate[T]) EvaluateOnline() error {
	numSIMD := g.output.NumSIMD()

	var product bitvec.BitVector
	if g.otReceiver != nil {
		g.inputA.WaitOnline()
		choices := g.indicator(g.inputA.PublicShare)
		if err := g.otReceiver.SetChoices(choices); err != nil {
			return err
		}
		if err := g.otReceiver.SendCorrections(); err != nil {
			return err
		}
		if err := g.otReceiver.ComputeOutputs(); err != nil {
			return err
		}
		product = g.otReceiver.GetOutputs()
	} else {
		g.inputB.WaitOnline()
		correlations := g.indicator(g.inputB.PublicShare)
		if err := g.otSender.SetCorrelations(correlations); err != nil {
			return err
		}
		if err := g.otSender.SendMessages(); err != nil {
			return err
		}
		if err := g.otSender.ComputeOutputs(); err != nil {
			return err
		}
		product = g.otSender.GetOutputs()
	}

	deltaY := g.output.SecretShare.Clone()
	deltaY.Xor(foldXor(product, g.vecSize, numSIMD))

	if err := g.p.sendWire(g.id, deltaY.Bytes()); err != nil {
		return err
	}
	data, err := g.share.Get()
	if err != nil {
		return err
	}
	deltaY.Xor(bitvec.FromBytes(data, numSIMD))

	g.output.PublicShare = deltaY
	g.output.SetOnlineReady()
	return nil
}
