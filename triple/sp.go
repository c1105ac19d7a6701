//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package triple

import (
	"fmt"
	"io"

	"github.com/markkurossi/beavy"
	"github.com/markkurossi/beavy/arith"
)

// sps holds one ring width's squared pairs.
type sps[T beavy.Uint] struct {
	num int
	snd *arith.MultiplicationSender[T]
	rcv *arith.MultiplicationReceiver[T]

	a []T
	c []T
}

// SPProvider generates squared pairs: random shared (a, c) with
// c = a*a. Only one multiplication session is needed per width:
// party 0 inputs 2*a0 as the session sender, party 1 a1 as the
// receiver.
type SPProvider struct {
	partyID int
	rand    io.Reader
	arith   *arith.Provider

	s8  sps[uint8]
	s16 sps[uint16]
	s32 sps[uint32]
	s64 sps[uint64]

	finished chan struct{}
}

// NewSPProvider creates a squared-pair provider.
func NewSPProvider(partyID int, rand io.Reader, ap *arith.Provider) *SPProvider {
	return &SPProvider{
		partyID:  partyID,
		rand:     rand,
		arith:    ap,
		finished: make(chan struct{}),
	}
}

func spState[T beavy.Uint](p *SPProvider) *sps[T] {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return any(&p.s8).(*sps[T])
	case uint16:
		return any(&p.s16).(*sps[T])
	case uint32:
		return any(&p.s32).(*sps[T])
	default:
		return any(&p.s64).(*sps[T])
	}
}

// RequestSPs reserves n squared pairs and returns their offset.
func RequestSPs[T beavy.Uint](p *SPProvider, n int) int {
	st := spState[T](p)
	offset := st.num
	st.num += n
	return offset
}

// PreSetup reserves the provider's OT batches.
func (p *SPProvider) PreSetup() error {
	if err := preSetupSP(p, &p.s8); err != nil {
		return err
	}
	if err := preSetupSP(p, &p.s16); err != nil {
		return err
	}
	if err := preSetupSP(p, &p.s32); err != nil {
		return err
	}
	return preSetupSP(p, &p.s64)
}

func preSetupSP[T beavy.Uint](p *SPProvider, st *sps[T]) error {
	if st.num == 0 {
		return nil
	}
	var err error
	if p.partyID == 0 {
		st.snd, err = arith.RegisterMultiplicationSend[T](p.arith, st.num, 1)
	} else {
		st.rcv, err = arith.RegisterMultiplicationReceive[T](p.arith,
			st.num, 1)
	}
	return err
}

// Setup generates the squared pairs.
func (p *SPProvider) Setup() error {
	if err := setupSP(p, &p.s8); err != nil {
		return err
	}
	if err := setupSP(p, &p.s16); err != nil {
		return err
	}
	if err := setupSP(p, &p.s32); err != nil {
		return err
	}
	if err := setupSP(p, &p.s64); err != nil {
		return err
	}
	close(p.finished)
	return nil
}

func setupSP[T beavy.Uint](p *SPProvider, st *sps[T]) error {
	if st.num == 0 {
		return nil
	}
	var err error
	st.a, err = beavy.RandomVector[T](p.rand, st.num)
	if err != nil {
		return err
	}

	var cross []T
	if st.snd != nil {
		doubled := make([]T, st.num)
		for i, a := range st.a {
			doubled[i] = 2 * a
		}
		if err := st.snd.SetInputs(doubled); err != nil {
			return err
		}
		if err := st.snd.ComputeOutputs(); err != nil {
			return err
		}
		cross = st.snd.GetOutputs()
	} else {
		if err := st.rcv.SetInputs(st.a); err != nil {
			return err
		}
		if err := st.rcv.ComputeOutputs(); err != nil {
			return err
		}
		cross = st.rcv.GetOutputs()
	}

	st.c = make([]T, st.num)
	for i := range st.c {
		st.c[i] = st.a[i]*st.a[i] + cross[i]
	}
	return nil
}

// WaitFinished blocks until the squared pairs are ready.
func (p *SPProvider) WaitFinished() {
	<-p.finished
}

// GetSPs returns n squared pairs from offset.
func GetSPs[T beavy.Uint](p *SPProvider, offset, n int) (a, c []T) {
	p.WaitFinished()
	st := spState[T](p)
	if offset+n > st.num {
		panic(fmt.Sprintf("triple: SP range [%d,%d) out of %d",
			offset, offset+n, st.num))
	}
	return st.a[offset : offset+n], st.c[offset : offset+n]
}
