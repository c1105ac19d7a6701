//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package backend implements the engine core: it owns the registered
// gates, the correlated-randomness providers, and the two-phase
// scheduler that runs every gate's setup and online methods in
// registration order with cooperative suspension on wire readiness
// and message futures.
package backend

import (
	"fmt"
	"io"
	"sync"

	"github.com/markkurossi/text/superscript"

	"github.com/markkurossi/beavy"
	"github.com/markkurossi/beavy/arith"
	"github.com/markkurossi/beavy/ot"
	"github.com/markkurossi/beavy/otext"
	"github.com/markkurossi/beavy/p2p"
	"github.com/markkurossi/beavy/prg"
	"github.com/markkurossi/beavy/triple"
)

// Backend holds the registered gates and the per-party-pair
// providers.
type Backend struct {
	cfg  *beavy.Config
	Conn *p2p.Conn
	Mux  *p2p.Mux

	OT    *otext.Provider
	Arith *arith.Provider
	MT    *triple.MTProvider
	SP    *triple.SPProvider
	SB    *triple.SBProvider

	// MyRNG generates this party's input-mask streams; TheirRNG
	// reproduces the peer's.
	MyRNG    *prg.SharedSource
	TheirRNG *prg.SharedSource

	m        sync.Mutex
	nextGate uint64
	gates    []beavy.Gate
	syncID   uint64
}

// New creates a backend on the connection: it exchanges the shared
// seed material, runs the base-OT ceremonies, and starts the message
// router. The connection must be fresh; the construction phase is
// synchronous between the parties.
func New(cfg *beavy.Config, conn *p2p.Conn) (*Backend, error) {
	rand := cfg.GetRandom()

	mySeed := make([]byte, 32)
	if _, err := io.ReadFull(rand, mySeed); err != nil {
		return nil, err
	}
	var theirSeed []byte
	var err error
	if cfg.PartyID == 0 {
		if err = conn.SendData(mySeed); err != nil {
			return nil, err
		}
		if err = conn.Flush(); err != nil {
			return nil, err
		}
		theirSeed, err = conn.ReceiveData()
	} else {
		theirSeed, err = conn.ReceiveData()
		if err != nil {
			return nil, err
		}
		if err = conn.SendData(mySeed); err != nil {
			return nil, err
		}
		err = conn.Flush()
	}
	if err != nil {
		return nil, fmt.Errorf("backend: seed exchange: %w", err)
	}
	if len(theirSeed) != 32 {
		return nil, fmt.Errorf("backend: invalid peer seed")
	}

	// Both parties derive the same fixed AES key from the combined
	// seeds.
	fixedKey := make([]byte, 16)
	for i := range fixedKey {
		fixedKey[i] = mySeed[i] ^ theirSeed[i]
	}

	b := &Backend{
		cfg:      cfg,
		Conn:     conn,
		MyRNG:    prg.NewSharedSource(mySeed),
		TheirRNG: prg.NewSharedSource(theirSeed),
	}
	b.OT = otext.NewProvider(conn, cfg.PartyID, rand,
		prg.NewFixedKey(fixedKey))
	err = b.OT.RunBaseOTs(func() ot.OT { return ot.NewCO(rand) })
	if err != nil {
		return nil, err
	}

	b.Mux = p2p.NewMux(conn)
	b.OT.Start(b.Mux)

	b.Arith = arith.NewProvider(b.OT)
	b.MT = triple.NewMTProvider(cfg.PartyID, rand, b.OT, b.Arith)
	b.SP = triple.NewSPProvider(cfg.PartyID, rand, b.Arith)
	b.SB = triple.NewSBProvider(cfg.PartyID, rand, b.OT)

	return b, nil
}

// Debugf prints a debugging message if verbose debugging is enabled.
func (b *Backend) Debugf(format string, a ...interface{}) {
	if !b.cfg.Verbose {
		return
	}
	fmt.Printf("%s: ", superscript.Itoa(b.cfg.PartyID))
	fmt.Printf(format, a...)
}

// NextGateID allocates the next gate id. It implements the gate
// providers' registry interface.
func (b *Backend) NextGateID() uint64 {
	b.m.Lock()
	defer b.m.Unlock()
	id := b.nextGate
	b.nextGate++
	return id
}

// Register appends the gate to the execution orders. It implements
// the gate providers' registry interface.
func (b *Backend) Register(gate beavy.Gate) {
	b.m.Lock()
	defer b.m.Unlock()
	b.gates = append(b.gates, gate)
}

// RunPreprocessing reserves the triple providers' OT batches and
// runs all provider setups. It must be called after the circuit has
// been built and before evaluation.
func (b *Backend) RunPreprocessing() error {
	b.Debugf("preprocessing\n")
	if err := b.MT.PreSetup(); err != nil {
		return err
	}
	if err := b.SP.PreSetup(); err != nil {
		return err
	}
	if err := b.SB.PreSetup(); err != nil {
		return err
	}

	var wg sync.WaitGroup
	var m sync.Mutex
	var firstErr error

	errf := func(err error) {
		if err == nil {
			return
		}
		m.Lock()
		defer m.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	setups := []func() error{
		b.OT.SendSetup,
		b.OT.ReceiveSetup,
		b.MT.Setup,
		b.SP.Setup,
		b.SB.Setup,
	}
	wg.Add(len(setups))
	for _, setup := range setups {
		setup := setup
		go func() {
			defer wg.Done()
			errf(setup())
		}()
	}
	wg.Wait()
	return firstErr
}

// Sync broadcasts a fence message and waits for the peer's fence.
func (b *Backend) Sync() error {
	b.m.Lock()
	id := b.syncID
	b.syncID++
	b.m.Unlock()

	future := b.Mux.Register(p2p.MsgSync, uint8(b.cfg.PeerID()), id)
	err := b.Conn.SendMsg(p2p.MsgSync, uint8(b.cfg.PartyID), id, nil)
	if err != nil {
		return err
	}
	_, err = future.Get()
	return err
}

// Clear resets the backend for a new evaluation: the registered
// gates and counters are dropped, the OT extension's batch state is
// reset, and fresh triple providers are created. The connection and
// base OTs are preserved.
func (b *Backend) Clear() {
	b.m.Lock()
	b.gates = nil
	b.nextGate = 0
	b.m.Unlock()

	b.OT.Clear()
	rand := b.cfg.GetRandom()
	b.MT = triple.NewMTProvider(b.cfg.PartyID, rand, b.OT, b.Arith)
	b.SP = triple.NewSPProvider(b.cfg.PartyID, rand, b.Arith)
	b.SB = triple.NewSBProvider(b.cfg.PartyID, rand, b.OT)
}
