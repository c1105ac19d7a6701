//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package beavy

import (
	"fmt"
)

// Gate is a unit of work in the gate graph. A gate declares whether
// it participates in the setup and online passes; the scheduler
// guarantees that EvaluateSetup is called before EvaluateOnline and
// that both may block while awaiting input wire readiness or network
// messages.
type Gate interface {
	// ID returns the gate's unique id, allocated monotonically at
	// registration.
	ID() uint64

	// NeedSetup reports whether the gate participates in the setup
	// pass.
	NeedSetup() bool

	// NeedOnline reports whether the gate participates in the
	// online pass.
	NeedOnline() bool

	// EvaluateSetup runs the gate's setup phase.
	EvaluateSetup() error

	// EvaluateOnline runs the gate's online phase.
	EvaluateOnline() error
}

// Op identifies a gate operation for the gate factory.
type Op int

// Gate operations.
const (
	OpXOR Op = iota
	OpAND
	OpINV
	OpAND4
	OpMUL
	OpMULNI
	OpSQR
	OpNEG
	OpADD
	OpHAM
	OpCOUNT
	OpDOT
	OpDPF
	OpEQEXP
	OpIC
	OpMSG
)

var opNames = map[Op]string{
	OpXOR:   "XOR",
	OpAND:   "AND",
	OpINV:   "INV",
	OpAND4:  "AND4",
	OpMUL:   "MUL",
	OpMULNI: "MULNI",
	OpSQR:   "SQR",
	OpNEG:   "NEG",
	OpADD:   "ADD",
	OpHAM:   "HAM",
	OpCOUNT: "COUNT",
	OpDOT:   "DOT",
	OpDPF:   "DPF",
	OpEQEXP: "EQEXP",
	OpIC:    "IC",
	OpMSG:   "MSG",
}

func (op Op) String() string {
	name, ok := opNames[op]
	if ok {
		return name
	}
	return fmt.Sprintf("{Op %d}", int(op))
}
