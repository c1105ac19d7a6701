//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package otext implements IKNP-style OT extension: from 128 base
// OTs it produces large batches of correlated and chosen oblivious
// transfers. Gates reserve batches during circuit construction; the
// setup pass expands, transposes, and compresses the bit matrix once
// for all batches; per-batch online operations exchange correction
// bits and sender messages.
package otext

import (
	"fmt"
	"io"
	"sync"

	"github.com/markkurossi/beavy/bitvec"
	"github.com/markkurossi/beavy/ot"
	"github.com/markkurossi/beavy/p2p"
	"github.com/markkurossi/beavy/prg"
)

const kappa = bitvec.Kappa

// senderData holds this party's OT-extension sender role state: the
// base-OT choices and seeds, and the per-OT precomputed pads y0, y1.
type senderData struct {
	m       sync.Mutex
	numOTs  int
	bitlens []int
	batches map[uint64]int

	baseChoices []bool
	baseSeeds   []ot.LabelData
	consumed    uint64

	y0 [][]byte
	y1 [][]byte

	setupDone chan struct{}
}

// receiverData holds this party's OT-extension receiver role state:
// the base-OT seed pairs, the random choices drawn in setup, and the
// per-OT outputs.
type receiverData struct {
	m       sync.Mutex
	numOTs  int
	bitlens []int
	batches map[uint64]int

	baseSeeds0 []ot.LabelData
	baseSeeds1 []ot.LabelData
	consumed   uint64

	randomChoices bitvec.BitVector
	outputs       [][]byte

	setupDone chan struct{}
}

// Provider implements OT extension for one ordered party pair: it
// acts as sender in one direction and receiver in the other.
type Provider struct {
	conn     *p2p.Conn
	mux      *p2p.Mux
	partyID  int
	rand     io.Reader
	fixedKey *prg.FixedKey

	send senderData
	recv receiverData
}

// NewProvider creates an OT-extension provider. The fixed AES key
// must be derived from key material both parties share. The base OTs
// must be run and the message router attached with Start before any
// batch is registered.
func NewProvider(conn *p2p.Conn, partyID int, rand io.Reader,
	fixedKey *prg.FixedKey) *Provider {

	p := &Provider{
		conn:     conn,
		partyID:  partyID,
		rand:     rand,
		fixedKey: fixedKey,
	}
	p.send.batches = make(map[uint64]int)
	p.send.setupDone = make(chan struct{})
	p.recv.batches = make(map[uint64]int)
	p.recv.setupDone = make(chan struct{})
	return p
}

// Start attaches the message router. The router must not be created
// before the base OTs have completed: its receive pump would consume
// the base-OT messages.
func (p *Provider) Start(mux *p2p.Mux) {
	p.mux = mux
}

// RunBaseOTs runs the base-OT ceremonies for both directions of the
// extension. It must be called synchronously during construction,
// before the circuit is built. The newBase function creates a fresh
// base-OT instance per direction.
func (p *Provider) RunBaseOTs(newBase func() ot.OT) error {
	if p.partyID == 0 {
		if err := p.runBaseSender(newBase()); err != nil {
			return err
		}
		return p.runBaseReceiver(newBase())
	}
	if err := p.runBaseReceiver(newBase()); err != nil {
		return err
	}
	return p.runBaseSender(newBase())
}

// runBaseSender acts as the base-OT sender, seeding this party's
// extension receiver role.
func (p *Provider) runBaseSender(base ot.OT) error {
	if err := base.InitSender(p.conn); err != nil {
		return fmt.Errorf("otext: base OT init: %w", err)
	}
	wires := make([]ot.Wire, kappa)
	seeds0 := make([]ot.LabelData, kappa)
	seeds1 := make([]ot.LabelData, kappa)
	for i := 0; i < kappa; i++ {
		l0, err := ot.NewLabel(p.rand)
		if err != nil {
			return err
		}
		l1, err := ot.NewLabel(p.rand)
		if err != nil {
			return err
		}
		l0.GetData(&seeds0[i])
		l1.GetData(&seeds1[i])
		wires[i] = ot.Wire{L0: l0, L1: l1}
	}
	if err := base.Send(wires); err != nil {
		return fmt.Errorf("otext: base OT send: %w", err)
	}
	p.recv.baseSeeds0 = seeds0
	p.recv.baseSeeds1 = seeds1
	return nil
}

// runBaseReceiver acts as the base-OT receiver, seeding this party's
// extension sender role.
func (p *Provider) runBaseReceiver(base ot.OT) error {
	if err := base.InitReceiver(p.conn); err != nil {
		return fmt.Errorf("otext: base OT init: %w", err)
	}
	choiceBits, err := bitvec.Random(p.rand, kappa)
	if err != nil {
		return err
	}
	choices := make([]bool, kappa)
	for i := range choices {
		choices[i] = choiceBits.Get(i)
	}
	labels := make([]ot.Label, kappa)
	if err := base.Receive(choices, labels); err != nil {
		return fmt.Errorf("otext: base OT receive: %w", err)
	}
	seeds := make([]ot.LabelData, kappa)
	for i := range labels {
		labels[i].GetData(&seeds[i])
	}
	p.send.baseChoices = choices
	p.send.baseSeeds = seeds
	return nil
}

// reserveSend reserves a batch in the sender direction. The batch
// size is fixed at registration and never grows.
func (p *Provider) reserveSend(numOTs, bitlen int) (uint64, error) {
	if numOTs <= 0 {
		return 0, fmt.Errorf("otext: batch must contain OTs")
	}
	p.send.m.Lock()
	defer p.send.m.Unlock()

	select {
	case <-p.send.setupDone:
		return 0, fmt.Errorf("otext: registration after setup")
	default:
	}
	id := uint64(p.send.numOTs)
	p.send.numOTs += numOTs
	for i := 0; i < numOTs; i++ {
		p.send.bitlens = append(p.send.bitlens, bitlen)
	}
	p.send.batches[id] = numOTs
	return id, nil
}

// reserveReceive reserves a batch in the receiver direction.
func (p *Provider) reserveReceive(numOTs, bitlen int) (uint64, error) {
	if numOTs <= 0 {
		return 0, fmt.Errorf("otext: batch must contain OTs")
	}
	p.recv.m.Lock()
	defer p.recv.m.Unlock()

	select {
	case <-p.recv.setupDone:
		return 0, fmt.Errorf("otext: registration after setup")
	default:
	}
	id := uint64(p.recv.numOTs)
	p.recv.numOTs += numOTs
	for i := 0; i < numOTs; i++ {
		p.recv.bitlens = append(p.recv.bitlens, bitlen)
	}
	p.recv.batches[id] = numOTs
	return id, nil
}

// padBytes returns the pad size in bytes for an OT bit length.
func padBytes(bitlen int) int {
	return (bitlen + 7) / 8
}

// expandPad derives a pad of the given bit length from a compressed
// column block. Lengths up to 128 bits take a prefix of the block;
// longer pads are expanded with the block as a PRG seed.
func expandPad(block bitvec.Block128, bitlen int) []byte {
	n := padBytes(bitlen)
	if bitlen <= 128 {
		out := make([]byte, n)
		copy(out, block[:n])
		return out
	}
	out := make([]byte, n)
	prg.NewStream(block[:]).Expand(out)
	return out
}

// SendSetup runs the one-shot sender-side setup: expand the base-OT
// seeds into matrix rows, apply the receiver's masks per base choice
// bit, transpose, and compress each column into the pads y0, y1.
func (p *Provider) SendSetup() error {
	p.send.m.Lock()
	total := p.send.numOTs
	p.send.m.Unlock()

	if total == 0 {
		close(p.send.setupDone)
		return nil
	}
	padded := total + kappa - total%kappa
	rowBytes := padded / 8

	rows := make([][]byte, kappa)
	for i := 0; i < kappa; i++ {
		rows[i] = make([]byte, rowBytes)
		stream := prg.NewStream(p.send.baseSeeds[i][:])
		stream.SetOffset(p.send.consumed)
		stream.Expand(rows[i])
	}

	// The peer's receiver role sends one mask per matrix row; rows
	// can arrive in any order.
	for i := 0; i < kappa; i++ {
		future := p.mux.Register(p2p.MsgOTMasks, uint8(p.partyID), uint64(i))
		mask, err := future.Get()
		if err != nil {
			return fmt.Errorf("otext: receiver masks: %w", err)
		}
		if len(mask) < rowBytes {
			return fmt.Errorf("otext: short receiver mask: %d < %d",
				len(mask), rowBytes)
		}
		if p.send.baseChoices[i] {
			for j := 0; j < rowBytes; j++ {
				rows[i][j] ^= mask[j]
			}
		}
	}

	cols := bitvec.TransposeToBlocks(rows, total)

	var choicesBlock bitvec.Block128
	for i := 0; i < kappa; i++ {
		if p.send.baseChoices[i] {
			choicesBlock[i/8] |= 1 << (i % 8)
		}
	}

	p.send.y0 = make([][]byte, total)
	p.send.y1 = make([][]byte, total)
	for i := 0; i < total; i++ {
		bitlen := p.send.bitlens[i]
		q := cols[i]
		p.send.y0[i] = expandPad(p.fixedKey.Hash(uint64(i), q), bitlen)
		q.Xor(choicesBlock)
		p.send.y1[i] = expandPad(p.fixedKey.Hash(uint64(i), q), bitlen)
	}
	p.send.consumed += uint64(rowBytes)

	close(p.send.setupDone)
	return nil
}

// ReceiveSetup runs the one-shot receiver-side setup: draw the
// random choices, expand the base-OT seed pairs, send the masks, and
// compress the transposed columns into the per-OT outputs.
func (p *Provider) ReceiveSetup() error {
	p.recv.m.Lock()
	total := p.recv.numOTs
	p.recv.m.Unlock()

	if total == 0 {
		close(p.recv.setupDone)
		return nil
	}
	padded := total + kappa - total%kappa
	rowBytes := padded / 8

	randomChoices, err := bitvec.Random(p.rand, total)
	if err != nil {
		return err
	}
	p.recv.randomChoices = randomChoices

	choicesRow := make([]byte, rowBytes)
	copy(choicesRow, randomChoices.Bytes())

	rows := make([][]byte, kappa)
	scratch := make([]byte, rowBytes)
	for i := 0; i < kappa; i++ {
		rows[i] = make([]byte, rowBytes)
		stream := prg.NewStream(p.recv.baseSeeds0[i][:])
		stream.SetOffset(p.recv.consumed)
		stream.Expand(rows[i])

		// u_i = T0_i ^ r ^ PRG(seed1_i)
		stream = prg.NewStream(p.recv.baseSeeds1[i][:])
		stream.SetOffset(p.recv.consumed)
		stream.Expand(scratch)

		mask := make([]byte, rowBytes)
		for j := 0; j < rowBytes; j++ {
			mask[j] = rows[i][j] ^ choicesRow[j] ^ scratch[j]
		}
		err := p.conn.SendMsg(p2p.MsgOTMasks, uint8(1-p.partyID),
			uint64(i), mask)
		if err != nil {
			return fmt.Errorf("otext: sending masks: %w", err)
		}
	}

	cols := bitvec.TransposeToBlocks(rows, total)

	p.recv.outputs = make([][]byte, total)
	for i := 0; i < total; i++ {
		bitlen := p.recv.bitlens[i]
		p.recv.outputs[i] = expandPad(p.fixedKey.Hash(uint64(i), cols[i]),
			bitlen)
	}
	p.recv.consumed += uint64(rowBytes)

	close(p.recv.setupDone)
	return nil
}

// WaitSetup blocks until both setup directions have finished.
func (p *Provider) WaitSetup() {
	<-p.send.setupDone
	<-p.recv.setupDone
}

// Clear resets the provider for a new evaluation. The base OTs and
// their consumed PRG offsets are preserved; all batch state is
// dropped.
func (p *Provider) Clear() {
	p.send.m.Lock()
	p.send.numOTs = 0
	p.send.bitlens = nil
	p.send.batches = make(map[uint64]int)
	p.send.y0 = nil
	p.send.y1 = nil
	p.send.setupDone = make(chan struct{})
	p.send.m.Unlock()

	p.recv.m.Lock()
	p.recv.numOTs = 0
	p.recv.bitlens = nil
	p.recv.batches = make(map[uint64]int)
	p.recv.outputs = nil
	p.recv.randomChoices = bitvec.BitVector{}
	p.recv.setupDone = make(chan struct{})
	p.recv.m.Unlock()
}

// sendCorrections sends a batch's correction bits to the peer's
// sender role.
func (p *Provider) sendCorrections(otID uint64, corrections bitvec.BitVector) error {
	return p.conn.SendMsg(p2p.MsgOTCorrections, uint8(1-p.partyID), otID,
		corrections.Bytes())
}

// registerCorrections registers the future for a sender-role batch's
// correction bits.
func (p *Provider) registerCorrections(otID uint64) *p2p.Future {
	return p.mux.Register(p2p.MsgOTCorrections, uint8(p.partyID), otID)
}

// sendSenderMessage sends a sender-role batch's message to the
// peer's receiver role.
func (p *Provider) sendSenderMessage(otID uint64, payload []byte) error {
	return p.conn.SendMsg(p2p.MsgOTSender, uint8(p.partyID), otID, payload)
}

// registerSenderMessage registers the future for a receiver-role
// batch's sender message.
func (p *Provider) registerSenderMessage(otID uint64) *p2p.Future {
	return p.mux.Register(p2p.MsgOTSender, uint8(1-p.partyID), otID)
}
