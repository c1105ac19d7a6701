//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package triple implements the correlated-randomness providers that
// aggregate pre-generated material for the additive-sharing gates:
// multiplication triples (binary and integer), squared pairs, and
// shared bits. Consumers request counts during circuit construction;
// PreSetup reserves the OT batches and Setup fills them during the
// preprocessing pass.
package triple

import (
	"fmt"
	"io"

	"github.com/markkurossi/beavy"
	"github.com/markkurossi/beavy/arith"
	"github.com/markkurossi/beavy/bitvec"
	"github.com/markkurossi/beavy/otext"
)

// intMTs holds one ring width's integer multiplication triples.
type intMTs[T beavy.Uint] struct {
	num int
	snd *arith.MultiplicationSender[T]
	rcv *arith.MultiplicationReceiver[T]

	a []T
	b []T
	c []T
}

// MTProvider generates multiplication triples: random shared (a, b,
// c) with c = a*b (binary: c = a AND b).
type MTProvider struct {
	partyID int
	rand    io.Reader
	ot      *otext.Provider
	arith   *arith.Provider

	numBitMTs int
	bitOTSnd  *otext.XCOTBitSender
	bitOTRcv  *otext.XCOTBitReceiver
	bitA      bitvec.BitVector
	bitB      bitvec.BitVector
	bitC      bitvec.BitVector

	m8  intMTs[uint8]
	m16 intMTs[uint16]
	m32 intMTs[uint32]
	m64 intMTs[uint64]

	finished chan struct{}
}

// NewMTProvider creates a multiplication-triple provider.
func NewMTProvider(partyID int, rand io.Reader, ot *otext.Provider,
	ap *arith.Provider) *MTProvider {

	return &MTProvider{
		partyID:  partyID,
		rand:     rand,
		ot:       ot,
		arith:    ap,
		finished: make(chan struct{}),
	}
}

func mtState[T beavy.Uint](p *MTProvider) *intMTs[T] {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return any(&p.m8).(*intMTs[T])
	case uint16:
		return any(&p.m16).(*intMTs[T])
	case uint32:
		return any(&p.m32).(*intMTs[T])
	default:
		return any(&p.m64).(*intMTs[T])
	}
}

// RequestBinaryMTs reserves n binary triples and returns their
// offset.
func (p *MTProvider) RequestBinaryMTs(n int) int {
	offset := p.numBitMTs
	p.numBitMTs += n
	return offset
}

// RequestIntegerMTs reserves n integer triples and returns their
// offset.
func RequestIntegerMTs[T beavy.Uint](p *MTProvider, n int) int {
	st := mtState[T](p)
	offset := st.num
	st.num += n
	return offset
}

// PreSetup reserves the provider's OT batches. It must run after
// circuit construction and before the OT-extension setup.
func (p *MTProvider) PreSetup() error {
	if p.numBitMTs > 0 {
		var err error
		p.bitOTSnd, err = p.ot.RegisterSendXCOTBit(p.numBitMTs)
		if err != nil {
			return err
		}
		p.bitOTRcv, err = p.ot.RegisterReceiveXCOTBit(p.numBitMTs)
		if err != nil {
			return err
		}
	}
	if err := preSetupInt(p, &p.m8); err != nil {
		return err
	}
	if err := preSetupInt(p, &p.m16); err != nil {
		return err
	}
	if err := preSetupInt(p, &p.m32); err != nil {
		return err
	}
	return preSetupInt(p, &p.m64)
}

func preSetupInt[T beavy.Uint](p *MTProvider, st *intMTs[T]) error {
	if st.num == 0 {
		return nil
	}
	var err error
	st.snd, err = arith.RegisterMultiplicationSend[T](p.arith, st.num, 1)
	if err != nil {
		return err
	}
	st.rcv, err = arith.RegisterMultiplicationReceive[T](p.arith, st.num, 1)
	return err
}

// Setup generates the triples. It blocks on the OT-extension setup.
func (p *MTProvider) Setup() error {
	if p.numBitMTs > 0 {
		var err error
		p.bitA, err = bitvec.Random(p.rand, p.numBitMTs)
		if err != nil {
			return err
		}
		p.bitB, err = bitvec.Random(p.rand, p.numBitMTs)
		if err != nil {
			return err
		}
		if err := p.bitOTRcv.SetChoices(p.bitA); err != nil {
			return err
		}
		if err := p.bitOTRcv.SendCorrections(); err != nil {
			return err
		}
		if err := p.bitOTSnd.SetCorrelations(p.bitB); err != nil {
			return err
		}
		if err := p.bitOTSnd.SendMessages(); err != nil {
			return err
		}
		if err := p.bitOTRcv.ComputeOutputs(); err != nil {
			return err
		}
		if err := p.bitOTSnd.ComputeOutputs(); err != nil {
			return err
		}
		p.bitC = p.bitA.Clone()
		p.bitC.And(p.bitB)
		p.bitC.Xor(p.bitOTSnd.GetOutputs())
		p.bitC.Xor(p.bitOTRcv.GetOutputs())
	}
	if err := setupInt(p, &p.m8); err != nil {
		return err
	}
	if err := setupInt(p, &p.m16); err != nil {
		return err
	}
	if err := setupInt(p, &p.m32); err != nil {
		return err
	}
	if err := setupInt(p, &p.m64); err != nil {
		return err
	}
	close(p.finished)
	return nil
}

func setupInt[T beavy.Uint](p *MTProvider, st *intMTs[T]) error {
	if st.num == 0 {
		return nil
	}
	var err error
	st.a, err = beavy.RandomVector[T](p.rand, st.num)
	if err != nil {
		return err
	}
	st.b, err = beavy.RandomVector[T](p.rand, st.num)
	if err != nil {
		return err
	}
	if err := st.rcv.SetInputs(st.a); err != nil {
		return err
	}
	if err := st.snd.SetInputs(st.b); err != nil {
		return err
	}
	if err := st.rcv.ComputeOutputs(); err != nil {
		return err
	}
	if err := st.snd.ComputeOutputs(); err != nil {
		return err
	}
	cross1 := st.rcv.GetOutputs()
	cross2 := st.snd.GetOutputs()
	st.c = make([]T, st.num)
	for i := range st.c {
		st.c[i] = st.a[i]*st.b[i] + cross1[i] + cross2[i]
	}
	return nil
}

// WaitFinished blocks until the triples are ready.
func (p *MTProvider) WaitFinished() {
	<-p.finished
}

// GetBinaryMTs returns n binary triples from offset.
func (p *MTProvider) GetBinaryMTs(offset, n int) (a, b, c bitvec.BitVector) {
	p.WaitFinished()
	return p.bitA.Subset(offset, offset+n),
		p.bitB.Subset(offset, offset+n),
		p.bitC.Subset(offset, offset+n)
}

// GetIntegerMTs returns n integer triples from offset.
func GetIntegerMTs[T beavy.Uint](p *MTProvider, offset, n int) (a, b, c []T) {
	p.WaitFinished()
	st := mtState[T](p)
	if offset+n > st.num {
		panic(fmt.Sprintf("triple: MT range [%d,%d) out of %d",
			offset, offset+n, st.num))
	}
	return st.a[offset : offset+n],
		st.b[offset : offset+n],
		st.c[offset : offset+n]
}
