//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"fmt"

	"github.com/markkurossi/beavy"
	"github.com/markkurossi/beavy/arith"
	"github.com/markkurossi/beavy/p2p"
)

// BooleanXArithmeticMULGate multiplies a Boolean wire b into an
// arithmetic wire n, producing an arithmetic wire carrying b*n.
// Setup assembles additive sharings of lambda_b and
// lambda_b*lambda_n with two vector OTs per multiplication: the
// whose-job party packs two correlations per slot on its integer
// side.
type BooleanXArithmeticMULGate[T beavy.Uint] struct {
	gateBase
	p         *Provider
	inputBool *BooleanWire
	inputInt  *ArithmeticWire[T]
	output    *ArithmeticWire[T]

	multIntSide *arith.BitMultiplicationIntSide[T]
	multBitSide *arith.BitMultiplicationBitSide[T]
	share       *p2p.Future

	lambdaBShare  []T
	lambdaBNShare []T
}

// MakeBooleanXArithmeticMULGate creates a mixed bit-by-integer
// multiplication gate.
func MakeBooleanXArithmeticMULGate[T beavy.Uint](p *Provider,
	inBool *BooleanWire, inInt *ArithmeticWire[T]) (
	*ArithmeticWire[T], error) {

	if inBool.NumSIMD() != inInt.NumSIMD() {
		return nil, fmt.Errorf("circuit: mixed MUL SIMD widths differ: %d != %d",
			inBool.NumSIMD(), inInt.NumSIMD())
	}
	numSIMD := inInt.NumSIMD()
	gate := &BooleanXArithmeticMULGate[T]{
		gateBase:  gateBase{id: p.reg.NextGateID()},
		p:         p,
		inputBool: inBool,
		inputInt:  inInt,
		output:    NewArithmeticWire[T](numSIMD),
	}

	var err error
	if p.isMyJob(gate.id) {
		gate.multIntSide, err = arith.RegisterBitMultiplicationIntSide[T](
			p.arith, numSIMD, 2)
		if err != nil {
			return nil, err
		}
		gate.multBitSide, err = arith.RegisterBitMultiplicationBitSide[T](
			p.arith, numSIMD, 1)
	} else {
		gate.multIntSide, err = arith.RegisterBitMultiplicationIntSide[T](
			p.arith, numSIMD, 1)
		if err != nil {
			return nil, err
		}
		gate.multBitSide, err = arith.RegisterBitMultiplicationBitSide[T](
			p.arith, numSIMD, 2)
	}
	if err != nil {
		return nil, err
	}
	gate.share = p.registerWire(gate.id)
	p.reg.Register(gate)
	return gate.output, nil
}

// NeedSetup implements beavy.Gate.
func (g *BooleanXArithmeticMULGate[T]) NeedSetup() bool { return true }

// NeedOnline implements beavy.Gate.
func (g *BooleanXArithmeticMULGate[T]) NeedOnline() bool { return true }

// EvaluateSetup implements beavy.Gate.
func (g *BooleanXArithmeticMULGate[T]) EvaluateSetup() error {
	numSIMD := g.output.NumSIMD()

	secret, err := beavy.RandomVector[T](g.p.rand(), numSIMD)
	if err != nil {
		return err
	}
	g.output.SecretShare = secret
	g.output.SetSetupReady()

	g.inputInt.WaitSetup()
	g.inputBool.WaitSetup()
	intShare := g.inputInt.SecretShare
	bitShare := g.inputBool.SecretShare

	bits := make([]T, numSIMD)
	for i := 0; i < numSIMD; i++ {
		if bitShare.Get(i) {
			bits[i] = 1
		}
	}

	if err := g.multBitSide.SetInputs(bitShare); err != nil {
		return err
	}

	if g.p.isMyJob(g.id) {
		inputs := make([]T, 2*numSIMD)
		for i := 0; i < numSIMD; i++ {
			inputs[2*i] = bits[i]
			inputs[2*i+1] = intShare[i] - 2*bits[i]*intShare[i]
		}
		if err := g.multIntSide.SetInputs(inputs); err != nil {
			return err
		}
	} else {
		inputs := make([]T, numSIMD)
		for i := 0; i < numSIMD; i++ {
			inputs[i] = intShare[i] - 2*bits[i]*intShare[i]
		}
		if err := g.multIntSide.SetInputs(inputs); err != nil {
			return err
		}
	}

	if err := g.multBitSide.ComputeOutputs(); err != nil {
		return err
	}
	if err := g.multIntSide.ComputeOutputs(); err != nil {
		return err
	}
	bitOut := g.multBitSide.GetOutputs()
	intOut := g.multIntSide.GetOutputs()

	g.lambdaBShare = make([]T, numSIMD)
	g.lambdaBNShare = make([]T, numSIMD)
	if g.p.isMyJob(g.id) {
		for i := 0; i < numSIMD; i++ {
			g.lambdaBShare[i] = bits[i] - 2*intOut[2*i]
			g.lambdaBNShare[i] = bits[i]*intShare[i] + intOut[2*i+1] +
				bitOut[i]
		}
	} else {
		for i := 0; i < numSIMD; i++ {
			g.lambdaBShare[i] = bits[i] - 2*bitOut[2*i]
			g.lambdaBNShare[i] = bits[i]*intShare[i] + bitOut[2*i+1] +
				intOut[i]
		}
	}
	return nil
}

// EvaluateOnline implements beavy.Gate.
func (g *BooleanXArithmeticMULGate[T]) EvaluateOnline() error {
	numSIMD := g.output.NumSIMD()

	g.inputBool.WaitOnline()
	g.inputInt.WaitOnline()
	intShare := g.inputInt.SecretShare
	intPublic := g.inputInt.PublicShare
	bitPublic := g.inputBool.PublicShare

	myJob := g.p.isMyJob(g.id)
	pshare := make([]T, numSIMD)
	for i := 0; i < numSIMD; i++ {
		var deltaB T
		if bitPublic.Get(i) {
			deltaB = 1
		}
		deltaN := intPublic[i]
		pshare[i] = g.lambdaBShare[i]*(deltaN-2*deltaB*deltaN) -
			deltaB*intShare[i] -
			g.lambdaBNShare[i]*(1-2*deltaB) +
			g.output.SecretShare[i]
		if myJob {
			pshare[i] += deltaB * deltaN
		}
	}

	if err := g.p.sendWire(g.id, beavy.UintsToBytes(pshare)); err != nil {
		return err
	}
	data, err := g.share.Get()
	if err != nil {
		return err
	}
	other := beavy.UintsFromBytes[T](data)
	for i := range pshare {
		pshare[i] += other[i]
	}
	g.output.PublicShare = pshare
	g.output.SetOnlineReady()
	return nil
}
