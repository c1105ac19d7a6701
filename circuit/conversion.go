//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"fmt"

	"github.com/markkurossi/beavy"
	"github.com/markkurossi/beavy/otext"
	"github.com/markkurossi/beavy/p2p"
)

// BitToArithmeticGate converts a Boolean wire into an arithmetic
// wire carrying 0 or 1 per SIMD slot. Setup arithmetizes the mask
// bit with one correlated OT per slot; online combines it with the
// public bit using x = p + (1-2p)*lambda_b.
type BitToArithmeticGate[T beavy.Uint] struct {
	gateBase
	p      *Provider
	input  *BooleanWire
	output *ArithmeticWire[T]

	otSender   *otext.ACOTSender[T]
	otReceiver *otext.ACOTReceiver[T]
	share      *p2p.Future

	arithmetized []T
}

// MakeBitToArithmeticGate creates a bit-to-arithmetic conversion
// gate.
func MakeBitToArithmeticGate[T beavy.Uint](p *Provider, in *BooleanWire) (
	*ArithmeticWire[T], error) {

	numSIMD := in.NumSIMD()
	gate := &BitToArithmeticGate[T]{
		gateBase: gateBase{id: p.reg.NextGateID()},
		p:        p,
		input:    in,
		output:   NewArithmeticWire[T](numSIMD),
	}
	var err error
	if p.cfg.PartyID == 0 {
		gate.otSender, err = otext.RegisterSendACOT[T](p.ot, numSIMD, 1)
	} else {
		gate.otReceiver, err = otext.RegisterReceiveACOT[T](p.ot, numSIMD, 1)
	}
	if err != nil {
		return nil, err
	}
	gate.share = p.registerWire(gate.id)
	p.reg.Register(gate)
	return gate.output, nil
}

// NeedSetup implements beavy.Gate.
func (g *BitToArithmeticGate[T]) NeedSetup() bool { return true }

// NeedOnline implements beavy.Gate.
func (g *BitToArithmeticGate[T]) NeedOnline() bool { return true }

// EvaluateSetup implements beavy.Gate.
func (g *BitToArithmeticGate[T]) EvaluateSetup() error {
	numSIMD := g.output.NumSIMD()

	secret, err := beavy.RandomVector[T](g.p.rand(), numSIMD)
	if err != nil {
		return err
	}
	g.output.SecretShare = secret
	g.output.SetSetupReady()

	g.input.WaitSetup()
	bits := g.input.SecretShare

	out := make([]T, numSIMD)
	if g.otSender != nil {
		correlations := make([]T, numSIMD)
		for i := 0; i < numSIMD; i++ {
			if bits.Get(i) {
				correlations[i] = 1
			}
		}
		if err := g.otSender.SetCorrelations(correlations); err != nil {
			return err
		}
		if err := g.otSender.SendMessages(); err != nil {
			return err
		}
		if err := g.otSender.ComputeOutputs(); err != nil {
			return err
		}
		otOut := g.otSender.GetOutputs()
		for i := 0; i < numSIMD; i++ {
			var bit T
			if bits.Get(i) {
				bit = 1
			}
			out[i] = bit + 2*otOut[i]
		}
	} else {
		if err := g.otReceiver.SetChoices(bits); err != nil {
			return err
		}
		if err := g.otReceiver.SendCorrections(); err != nil {
			return err
		}
		if err := g.otReceiver.ComputeOutputs(); err != nil {
			return err
		}
		otOut := g.otReceiver.GetOutputs()
		for i := 0; i < numSIMD; i++ {
			var bit T
			if bits.Get(i) {
				bit = 1
			}
			out[i] = bit - 2*otOut[i]
		}
	}
	g.arithmetized = out
	return nil
}

// EvaluateOnline implements beavy.Gate.
func (g *BitToArithmeticGate[T]) EvaluateOnline() error {
	numSIMD := g.output.NumSIMD()

	g.input.WaitOnline()
	public := g.input.PublicShare

	myJob := g.p.isMyJob(g.id)
	tmp := make([]T, numSIMD)
	for i := 0; i < numSIMD; i++ {
		var p T
		if public.Get(i) {
			p = 1
		}
		s := g.arithmetized[i]
		tmp[i] = (1-2*p)*s + g.output.SecretShare[i]
		if myJob {
			tmp[i] += p
		}
	}

	if err := g.p.sendWire(g.id, beavy.UintsToBytes(tmp)); err != nil {
		return err
	}
	data, err := g.share.Get()
	if err != nil {
		return err
	}
	other := beavy.UintsFromBytes[T](data)
	for i := range tmp {
		tmp[i] += other[i]
	}
	g.output.PublicShare = tmp
	g.output.SetOnlineReady()
	return nil
}

// HAMGate computes the Hamming weight of a vector of Boolean wires:
// the arithmetic sum of the wire bits per SIMD slot. Each input bit
// is arithmetized in setup with one correlated OT; online combines
// the per-bit public shares and sends one ring-valued partial sum.
type HAMGate[T beavy.Uint] struct {
	gateBase
	p      *Provider
	inputs []*BooleanWire
	output *ArithmeticWire[T]

	otSender   *otext.ACOTSender[T]
	otReceiver *otext.ACOTReceiver[T]
	share      *p2p.Future

	arithmetized []T
}

// MakeHAMGate creates a Hamming-weight gate over the input wires.
func MakeHAMGate[T beavy.Uint](p *Provider, inputs []*BooleanWire) (
	*ArithmeticWire[T], error) {

	numSIMD, err := checkBooleanInputs(inputs)
	if err != nil {
		return nil, err
	}
	gate := &HAMGate[T]{
		gateBase: gateBase{id: p.reg.NextGateID()},
		p:        p,
		inputs:   inputs,
		output:   NewArithmeticWire[T](numSIMD),
	}
	numOTs := len(inputs) * numSIMD
	if p.cfg.PartyID == 0 {
		gate.otSender, err = otext.RegisterSendACOT[T](p.ot, numOTs, 1)
	} else {
		gate.otReceiver, err = otext.RegisterReceiveACOT[T](p.ot, numOTs, 1)
	}
	if err != nil {
		return nil, err
	}
	gate.share = p.registerWire(gate.id)
	p.reg.Register(gate)
	return gate.output, nil
}

// NeedSetup implements beavy.Gate.
func (g *HAMGate[T]) NeedSetup() bool { return true }

// NeedOnline implements beavy.Gate.
func (g *HAMGate[T]) NeedOnline() bool { return true }

// EvaluateSetup implements beavy.Gate.
func (g *HAMGate[T]) EvaluateSetup() error {
	numSIMD := g.output.NumSIMD()
	numWires := len(g.inputs)

	secret, err := beavy.RandomVector[T](g.p.rand(), numSIMD)
	if err != nil {
		return err
	}
	g.output.SecretShare = secret
	g.output.SetSetupReady()

	var allBits []bool
	for _, w := range g.inputs {
		w.WaitSetup()
		for j := 0; j < numSIMD; j++ {
			allBits = append(allBits, w.SecretShare.Get(j))
		}
	}

	out := make([]T, numWires*numSIMD)
	if g.otSender != nil {
		correlations := make([]T, len(allBits))
		for i, bit := range allBits {
			if bit {
				correlations[i] = 1
			}
		}
		if err := g.otSender.SetCorrelations(correlations); err != nil {
			return err
		}
		if err := g.otSender.SendMessages(); err != nil {
			return err
		}
		if err := g.otSender.ComputeOutputs(); err != nil {
			return err
		}
		otOut := g.otSender.GetOutputs()
		for i, bit := range allBits {
			var b T
			if bit {
				b = 1
			}
			out[i] = b + 2*otOut[i]
		}
	} else {
		choices := bitvecFromBools(allBits)
		if err := g.otReceiver.SetChoices(choices); err != nil {
			return err
		}
		if err := g.otReceiver.SendCorrections(); err != nil {
			return err
		}
		if err := g.otReceiver.ComputeOutputs(); err != nil {
			return err
		}
		otOut := g.otReceiver.GetOutputs()
		for i, bit := range allBits {
			var b T
			if bit {
				b = 1
			}
			out[i] = b - 2*otOut[i]
		}
	}
	g.arithmetized = out
	return nil
}

// MakeCOUNTGate creates a set-bit counting gate over the input
// wires. It is the HAM gate under its historical name.
func MakeCOUNTGate[T beavy.Uint](p *Provider, inputs []*BooleanWire) (
	*ArithmeticWire[T], error) {

	return MakeHAMGate[T](p, inputs)
}

// EvaluateOnline implements beavy.Gate.
func (g *HAMGate[T]) EvaluateOnline() error {
	numSIMD := g.output.NumSIMD()
	myJob := g.p.isMyJob(g.id)

	tmp := make([]T, numSIMD)
	copy(tmp, g.output.SecretShare)

	for i, w := range g.inputs {
		w.WaitOnline()
		for j := 0; j < numSIMD; j++ {
			var p T
			if w.PublicShare.Get(j) {
				p = 1
			}
			s := g.arithmetized[i*numSIMD+j]
			tmp[j] += (1 - 2*p) * s
			if myJob {
				tmp[j] += p
			}
		}
	}

	if err := g.p.sendWire(g.id, beavy.UintsToBytes(tmp)); err != nil {
		return err
	}
	data, err := g.share.Get()
	if err != nil {
		return err
	}
	other := beavy.UintsFromBytes[T](data)
	if len(other) != numSIMD {
		return fmt.Errorf("circuit: gate %d: partial sum size %d, want %d",
			g.id, len(other), numSIMD)
	}
	for i := range tmp {
		tmp[i] += other[i]
	}
	g.output.PublicShare = tmp
	g.output.SetOnlineReady()
	return nil
}
