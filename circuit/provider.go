//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"fmt"
	"io"

	"github.com/markkurossi/beavy"
	"github.com/markkurossi/beavy/arith"
	"github.com/markkurossi/beavy/bitvec"
	"github.com/markkurossi/beavy/otext"
	"github.com/markkurossi/beavy/p2p"
	"github.com/markkurossi/beavy/prg"
)

// Registry allocates gate ids and owns the registered gates. The
// backend implements Registry.
type Registry interface {
	// NextGateID allocates the next gate id.
	NextGateID() uint64

	// Register appends the gate to the execution orders.
	Register(gate beavy.Gate)
}

// Promise resolves to a value produced by a gate. Get may be called
// multiple times from a single consumer.
type Promise[V any] struct {
	ch   chan V
	done bool
	v    V
}

func newPromise[V any]() *Promise[V] {
	return &Promise[V]{
		ch: make(chan V, 1),
	}
}

func (p *Promise[V]) set(v V) {
	p.ch <- v
}

// Get blocks until the value is available.
func (p *Promise[V]) Get() V {
	if !p.done {
		p.v = <-p.ch
		p.done = true
	}
	return p.v
}

// Provider constructs and registers BEAVY gates. Circuit building is
// single-threaded by the application; execution is not.
type Provider struct {
	cfg   *beavy.Config
	conn  *p2p.Conn
	mux   *p2p.Mux
	reg   Registry
	ot    *otext.Provider
	arith *arith.Provider

	// myRNG generates this party's input-mask streams; theirRNG
	// reproduces the peer's.
	myRNG    *prg.SharedSource
	theirRNG *prg.SharedSource

	nextInput uint64
}

// NewProvider creates a gate provider.
func NewProvider(cfg *beavy.Config, conn *p2p.Conn, mux *p2p.Mux,
	reg Registry, ot *otext.Provider, ap *arith.Provider,
	myRNG, theirRNG *prg.SharedSource) *Provider {

	return &Provider{
		cfg:      cfg,
		conn:     conn,
		mux:      mux,
		reg:      reg,
		ot:       ot,
		arith:    ap,
		myRNG:    myRNG,
		theirRNG: theirRNG,
	}
}

// PartyID returns this party's id.
func (p *Provider) PartyID() int {
	return p.cfg.PartyID
}

// isMyJob deterministically splits per-gate asymmetric work between
// the parties by gate id parity.
func (p *Provider) isMyJob(gateID uint64) bool {
	return gateID%2 == uint64(p.cfg.PartyID)
}

func (p *Provider) rand() io.Reader {
	return p.cfg.GetRandom()
}

func (p *Provider) nextInputID(numWires int) uint64 {
	id := p.nextInput
	p.nextInput += uint64(numWires)
	return id
}

// sendWire sends this gate's online message to the peer.
func (p *Provider) sendWire(gateID uint64, payload []byte) error {
	return p.conn.SendMsg(p2p.MsgWire, uint8(p.cfg.PartyID), gateID, payload)
}

// registerWire registers the future for the peer's online message of
// the gate.
func (p *Provider) registerWire(gateID uint64) *p2p.Future {
	return p.mux.Register(p2p.MsgWire, uint8(p.cfg.PeerID()), gateID)
}

func (p *Provider) randomBits(n int) (bitvec.BitVector, error) {
	return bitvec.Random(p.rand(), n)
}

func bitvecFromBools(bits []bool) bitvec.BitVector {
	bv := bitvec.New(len(bits))
	for i, b := range bits {
		if b {
			bv.Set(i, true)
		}
	}
	return bv
}

// splitWireBits splits a message payload into numWires vectors of
// numSIMD bits.
func splitWireBits(data []byte, numWires, numSIMD int) (
	[]bitvec.BitVector, error) {

	total := numWires * numSIMD
	if len(data) < (total+7)/8 {
		return nil, fmt.Errorf("circuit: short wire message: %d bits needed",
			total)
	}
	all := bitvec.FromBytes(data, total)
	out := make([]bitvec.BitVector, numWires)
	for i := 0; i < numWires; i++ {
		out[i] = all.Subset(i*numSIMD, (i+1)*numSIMD)
	}
	return out, nil
}
