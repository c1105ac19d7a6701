//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"fmt"

	"github.com/markkurossi/beavy"
)

// MakeBooleanBinaryGate creates a Boolean binary gate for the
// operation tag.
func (p *Provider) MakeBooleanBinaryGate(op beavy.Op,
	inA, inB []*BooleanWire) ([]*BooleanWire, error) {

	switch op {
	case beavy.OpXOR:
		return p.MakeXORGate(inA, inB)
	case beavy.OpAND:
		return p.MakeANDGate(inA, inB)
	default:
		return nil, fmt.Errorf("circuit: unsupported Boolean binary op %v",
			op)
	}
}

// MakeBooleanUnaryGate creates a Boolean unary gate for the
// operation tag.
func (p *Provider) MakeBooleanUnaryGate(op beavy.Op, in []*BooleanWire) (
	[]*BooleanWire, error) {

	switch op {
	case beavy.OpINV:
		return p.MakeINVGate(in)
	case beavy.OpMSG:
		// A benchmarking harness in some deployments, not a gate.
		return nil, fmt.Errorf("circuit: MSG is not a circuit operation")
	default:
		return nil, fmt.Errorf("circuit: unsupported Boolean unary op %v",
			op)
	}
}

// MakeArithmeticBinaryGate creates an arithmetic binary gate for the
// operation tag.
func MakeArithmeticBinaryGate[T beavy.Uint](p *Provider, op beavy.Op,
	inA, inB *ArithmeticWire[T]) (*ArithmeticWire[T], error) {

	switch op {
	case beavy.OpADD:
		return MakeADDGate(p, inA, inB)
	case beavy.OpMUL:
		return MakeMULGate(p, inA, inB)
	case beavy.OpMULNI:
		return MakeMULNIGate(p, inA, inB)
	default:
		return nil, fmt.Errorf("circuit: unsupported arithmetic binary op %v",
			op)
	}
}

// MakeArithmeticUnaryGate creates an arithmetic unary gate for the
// operation tag.
func MakeArithmeticUnaryGate[T beavy.Uint](p *Provider, op beavy.Op,
	in *ArithmeticWire[T]) (*ArithmeticWire[T], error) {

	switch op {
	case beavy.OpNEG:
		return MakeNEGGate(p, in)
	case beavy.OpSQR:
		return MakeSQRGate(p, in)
	default:
		return nil, fmt.Errorf("circuit: unsupported arithmetic unary op %v",
			op)
	}
}
