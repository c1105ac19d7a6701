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
	"github.com/markkurossi/beavy/bitvec"
	"github.com/markkurossi/beavy/otext"
)

// sbs holds one ring width's shared bits.
type sbs[T beavy.Uint] struct {
	num    int
	otSnd  *otext.ACOTSender[T]
	otRcv  *otext.ACOTReceiver[T]
	shares []T
}

// SBProvider generates shared bits: additive sharings of a random
// bit 0 or 1 in the ring of T. Each party contributes a random bit;
// one correlated OT per bit arithmetizes the XOR. A party's Boolean
// share of the bit is the low bit of its arithmetic share.
type SBProvider struct {
	partyID int
	rand    io.Reader
	ot      *otext.Provider

	b8  sbs[uint8]
	b16 sbs[uint16]
	b32 sbs[uint32]
	b64 sbs[uint64]

	finished chan struct{}
}

// NewSBProvider creates a shared-bits provider.
func NewSBProvider(partyID int, rand io.Reader, ot *otext.Provider) *SBProvider {
	return &SBProvider{
		partyID:  partyID,
		rand:     rand,
		ot:       ot,
		finished: make(chan struct{}),
	}
}

func sbState[T beavy.Uint](p *SBProvider) *sbs[T] {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return any(&p.b8).(*sbs[T])
	case uint16:
		return any(&p.b16).(*sbs[T])
	case uint32:
		return any(&p.b32).(*sbs[T])
	default:
		return any(&p.b64).(*sbs[T])
	}
}

// RequestSBs reserves n shared bits and returns their offset.
func RequestSBs[T beavy.Uint](p *SBProvider, n int) int {
	st := sbState[T](p)
	offset := st.num
	st.num += n
	return offset
}

// PreSetup reserves the provider's OT batches.
func (p *SBProvider) PreSetup() error {
	if err := preSetupSB(p, &p.b8); err != nil {
		return err
	}
	if err := preSetupSB(p, &p.b16); err != nil {
		return err
	}
	if err := preSetupSB(p, &p.b32); err != nil {
		return err
	}
	return preSetupSB(p, &p.b64)
}

func preSetupSB[T beavy.Uint](p *SBProvider, st *sbs[T]) error {
	if st.num == 0 {
		return nil
	}
	var err error
	if p.partyID == 0 {
		st.otSnd, err = otext.RegisterSendACOT[T](p.ot, st.num, 1)
	} else {
		st.otRcv, err = otext.RegisterReceiveACOT[T](p.ot, st.num, 1)
	}
	return err
}

// Setup generates the shared bits.
func (p *SBProvider) Setup() error {
	if err := setupSB(p, &p.b8); err != nil {
		return err
	}
	if err := setupSB(p, &p.b16); err != nil {
		return err
	}
	if err := setupSB(p, &p.b32); err != nil {
		return err
	}
	if err := setupSB(p, &p.b64); err != nil {
		return err
	}
	close(p.finished)
	return nil
}

func setupSB[T beavy.Uint](p *SBProvider, st *sbs[T]) error {
	if st.num == 0 {
		return nil
	}
	bits, err := bitvec.Random(p.rand, st.num)
	if err != nil {
		return err
	}

	st.shares = make([]T, st.num)
	if st.otSnd != nil {
		correlations := make([]T, st.num)
		for i := range correlations {
			if bits.Get(i) {
				correlations[i] = 1
			}
		}
		if err := st.otSnd.SetCorrelations(correlations); err != nil {
			return err
		}
		if err := st.otSnd.SendMessages(); err != nil {
			return err
		}
		if err := st.otSnd.ComputeOutputs(); err != nil {
			return err
		}
		out := st.otSnd.GetOutputs()
		for i := range st.shares {
			var bit T
			if bits.Get(i) {
				bit = 1
			}
			st.shares[i] = bit + 2*out[i]
		}
	} else {
		if err := st.otRcv.SetChoices(bits); err != nil {
			return err
		}
		if err := st.otRcv.SendCorrections(); err != nil {
			return err
		}
		if err := st.otRcv.ComputeOutputs(); err != nil {
			return err
		}
		out := st.otRcv.GetOutputs()
		for i := range st.shares {
			var bit T
			if bits.Get(i) {
				bit = 1
			}
			st.shares[i] = bit - 2*out[i]
		}
	}
	return nil
}

// WaitFinished blocks until the shared bits are ready.
func (p *SBProvider) WaitFinished() {
	<-p.finished
}

// GetSBs returns n shared-bit shares from offset.
func GetSBs[T beavy.Uint](p *SBProvider, offset, n int) []T {
	p.WaitFinished()
	st := sbState[T](p)
	if offset+n > st.num {
		panic(fmt.Sprintf("triple: SB range [%d,%d) out of %d",
			offset, offset+n, st.num))
	}
	return st.shares[offset : offset+n]
}
