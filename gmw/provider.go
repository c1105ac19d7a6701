//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package gmw

import (
	"github.com/markkurossi/beavy"
	"github.com/markkurossi/beavy/circuit"
	"github.com/markkurossi/beavy/p2p"
	"github.com/markkurossi/beavy/prg"
	"github.com/markkurossi/beavy/triple"
)

// Provider constructs and registers GMW gates against the backend's
// registry and triple providers.
type Provider struct {
	cfg  *beavy.Config
	conn *p2p.Conn
	mux  *p2p.Mux
	reg  circuit.Registry

	mt *triple.MTProvider
	sp *triple.SPProvider
	sb *triple.SBProvider

	myRNG    *prg.SharedSource
	theirRNG *prg.SharedSource

	nextInput uint64
}

// NewProvider creates a GMW gate provider.
func NewProvider(cfg *beavy.Config, conn *p2p.Conn, mux *p2p.Mux,
	reg circuit.Registry, mt *triple.MTProvider, sp *triple.SPProvider,
	sb *triple.SBProvider, myRNG, theirRNG *prg.SharedSource) *Provider {

	return &Provider{
		cfg:      cfg,
		conn:     conn,
		mux:      mux,
		reg:      reg,
		mt:       mt,
		sp:       sp,
		sb:       sb,
		myRNG:    myRNG,
		theirRNG: theirRNG,
	}
}

func (p *Provider) isMyJob(gateID uint64) bool {
	return gateID%2 == uint64(p.cfg.PartyID)
}

// nextInputID allocates a mask-stream id. The GMW streams share the
// id space with the BEAVY input streams only if the providers share
// a backend, so the ids are offset into their own range.
func (p *Provider) nextInputID(numWires int) uint64 {
	id := p.nextInput
	p.nextInput += uint64(numWires)
	return gmwInputBase + id
}

// gmwInputBase offsets the GMW mask streams from the BEAVY input
// streams in the shared-source id space.
const gmwInputBase = 1 << 32

func (p *Provider) sendWire(gateID uint64, payload []byte) error {
	return p.conn.SendMsg(p2p.MsgWire, uint8(p.cfg.PartyID), gateID, payload)
}

func (p *Provider) registerWire(gateID uint64) *p2p.Future {
	return p.mux.Register(p2p.MsgWire, uint8(p.cfg.PeerID()), gateID)
}

// gateBase carries the gate id.
type gateBase struct {
	id uint64
}

// ID returns the gate id.
func (g *gateBase) ID() uint64 {
	return g.id
}
