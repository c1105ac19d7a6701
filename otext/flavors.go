//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package otext

import (
	"fmt"

	"github.com/markkurossi/beavy/bitvec"
	"github.com/markkurossi/beavy/p2p"
)

// senderBatch is the common state of a sender-role batch: its
// reserved OT range and the future for the receiver's correction
// bits.
type senderBatch struct {
	p      *Provider
	otID   uint64
	numOTs int

	// corrections is registered lazily on first use so that batches
	// which never consume corrections leave no pending registration
	// behind.
	corrections *p2p.Future
}

func newSenderBatch(p *Provider, numOTs, bitlen int) (senderBatch, error) {
	otID, err := p.reserveSend(numOTs, bitlen)
	if err != nil {
		return senderBatch{}, err
	}
	return senderBatch{
		p:      p,
		otID:   otID,
		numOTs: numOTs,
	}, nil
}

// WaitSetup blocks until the sender-side setup has finished.
func (b *senderBatch) WaitSetup() {
	<-b.p.send.setupDone
}

// ID returns the batch id.
func (b *senderBatch) ID() uint64 {
	return b.otID
}

func (b *senderBatch) correctionBits() (bitvec.BitVector, error) {
	if b.corrections == nil {
		b.corrections = b.p.registerCorrections(b.otID)
	}
	data, err := b.corrections.Get()
	if err != nil {
		return bitvec.BitVector{}, err
	}
	if len(data) < (b.numOTs+7)/8 {
		return bitvec.BitVector{}, fmt.Errorf(
			"otext: short corrections for batch %d", b.otID)
	}
	return bitvec.FromBytes(data, b.numOTs), nil
}

func (b *senderBatch) pads(i int) ([]byte, []byte) {
	return b.p.send.y0[b.otID+uint64(i)], b.p.send.y1[b.otID+uint64(i)]
}

// receiverBatch is the common state of a receiver-role batch.
type receiverBatch struct {
	p      *Provider
	otID   uint64
	numOTs int

	// senderMsg is registered lazily on first use, like the sender
	// batch's corrections future.
	senderMsg *p2p.Future

	choices         bitvec.BitVector
	choicesSet      bool
	correctionsSent bool
}

func newReceiverBatch(p *Provider, numOTs, bitlen int) (receiverBatch, error) {
	otID, err := p.reserveReceive(numOTs, bitlen)
	if err != nil {
		return receiverBatch{}, err
	}
	return receiverBatch{
		p:      p,
		otID:   otID,
		numOTs: numOTs,
	}, nil
}

func (b *receiverBatch) senderMessage() ([]byte, error) {
	if b.senderMsg == nil {
		b.senderMsg = b.p.registerSenderMessage(b.otID)
	}
	return b.senderMsg.Get()
}

// WaitSetup blocks until the receiver-side setup has finished.
func (b *receiverBatch) WaitSetup() {
	<-b.p.recv.setupDone
}

// ID returns the batch id.
func (b *receiverBatch) ID() uint64 {
	return b.otID
}

// SetChoices sets the receiver's real choice bits.
func (b *receiverBatch) SetChoices(choices bitvec.BitVector) error {
	if choices.Size() != b.numOTs {
		return fmt.Errorf("otext: %d choices for batch of %d OTs",
			choices.Size(), b.numOTs)
	}
	b.choices = choices
	b.choicesSet = true
	return nil
}

// SendCorrections sends choices^randomChoices for the batch. The
// choices must be set first.
func (b *receiverBatch) SendCorrections() error {
	if !b.choicesSet {
		return fmt.Errorf("otext: choices must be set before corrections")
	}
	b.WaitSetup()
	corrections := b.choices.Clone()
	corrections.Xor(b.p.recv.randomChoices.Subset(int(b.otID),
		int(b.otID)+b.numOTs))
	if err := b.p.sendCorrections(b.otID, corrections); err != nil {
		return err
	}
	b.correctionsSent = true
	return nil
}

func (b *receiverBatch) output(i int) []byte {
	return b.p.recv.outputs[b.otID+uint64(i)]
}

// ---------- FixedXCOT128 ----------

// FixedXCOT128Sender is the sender of correlated OTs on 128-bit
// blocks with a single fixed correlation Delta: the receiver learns
// x or x^Delta by choice.
type FixedXCOT128Sender struct {
	senderBatch
	correlation bitvec.Block128
	outputs     []bitvec.Block128
}

// RegisterSendFixedXCOT128 reserves a batch of fixed-correlation
// 128-bit OTs in the sender direction.
func (p *Provider) RegisterSendFixedXCOT128(numOTs int) (
	*FixedXCOT128Sender, error) {

	b, err := newSenderBatch(p, numOTs, 128)
	if err != nil {
		return nil, err
	}
	return &FixedXCOT128Sender{senderBatch: b}, nil
}

// SetCorrelation sets the fixed correlation Delta.
func (s *FixedXCOT128Sender) SetCorrelation(delta bitvec.Block128) {
	s.correlation = delta
}

// SendMessages sends the batch's sender message
// Delta^y0_i^y1_i per OT.
func (s *FixedXCOT128Sender) SendMessages() error {
	s.WaitSetup()
	payload := make([]byte, 16*s.numOTs)
	for i := 0; i < s.numOTs; i++ {
		y0, y1 := s.pads(i)
		for j := 0; j < 16; j++ {
			payload[i*16+j] = s.correlation[j] ^ y0[j] ^ y1[j]
		}
	}
	return s.p.sendSenderMessage(s.otID, payload)
}

// ComputeOutputs computes the sender outputs after the receiver's
// corrections have arrived.
func (s *FixedXCOT128Sender) ComputeOutputs() error {
	if s.outputs != nil {
		return nil
	}
	s.WaitSetup()
	corrections, err := s.correctionBits()
	if err != nil {
		return err
	}
	s.outputs = make([]bitvec.Block128, s.numOTs)
	for i := 0; i < s.numOTs; i++ {
		y0, y1 := s.pads(i)
		if corrections.Get(i) {
			s.outputs[i] = bitvec.BlockFromBytes(y1)
		} else {
			s.outputs[i] = bitvec.BlockFromBytes(y0)
		}
	}
	return nil
}

// GetOutputs returns the sender outputs.
func (s *FixedXCOT128Sender) GetOutputs() []bitvec.Block128 {
	return s.outputs
}

// FixedXCOT128Receiver is the receiver of fixed-correlation 128-bit
// OTs.
type FixedXCOT128Receiver struct {
	receiverBatch
	outputs []bitvec.Block128
}

// RegisterReceiveFixedXCOT128 reserves a batch of fixed-correlation
// 128-bit OTs in the receiver direction.
func (p *Provider) RegisterReceiveFixedXCOT128(numOTs int) (
	*FixedXCOT128Receiver, error) {

	b, err := newReceiverBatch(p, numOTs, 128)
	if err != nil {
		return nil, err
	}
	return &FixedXCOT128Receiver{receiverBatch: b}, nil
}

// ComputeOutputs reconstructs the receiver outputs from the stored
// pads and the sender message.
func (r *FixedXCOT128Receiver) ComputeOutputs() error {
	if r.outputs != nil {
		return nil
	}
	if !r.correctionsSent {
		return fmt.Errorf("otext: corrections must be sent before outputs")
	}
	msg, err := r.senderMessage()
	if err != nil {
		return err
	}
	if len(msg) < 16*r.numOTs {
		return fmt.Errorf("otext: short sender message for batch %d", r.otID)
	}
	r.outputs = make([]bitvec.Block128, r.numOTs)
	for i := 0; i < r.numOTs; i++ {
		r.outputs[i] = bitvec.BlockFromBytes(r.output(i))
		if r.choices.Get(i) {
			r.outputs[i].Xor(bitvec.BlockFromBytes(msg[i*16 : i*16+16]))
		}
	}
	return nil
}

// GetOutputs returns the receiver outputs.
func (r *FixedXCOT128Receiver) GetOutputs() []bitvec.Block128 {
	return r.outputs
}

// ---------- XCOTBit ----------

// XCOTBitSender is the sender of XOR-correlated OTs on single bits
// with a per-OT correlation.
type XCOTBitSender struct {
	senderBatch
	correlations bitvec.BitVector
	outputs      bitvec.BitVector
	computed     bool
}

// RegisterSendXCOTBit reserves a batch of bit OTs in the sender
// direction.
func (p *Provider) RegisterSendXCOTBit(numOTs int) (*XCOTBitSender, error) {
	b, err := newSenderBatch(p, numOTs, 1)
	if err != nil {
		return nil, err
	}
	return &XCOTBitSender{senderBatch: b}, nil
}

// SetCorrelations sets the per-OT correlation bits.
func (s *XCOTBitSender) SetCorrelations(correlations bitvec.BitVector) error {
	if correlations.Size() != s.numOTs {
		return fmt.Errorf("otext: %d correlations for batch of %d OTs",
			correlations.Size(), s.numOTs)
	}
	s.correlations = correlations
	return nil
}

// SendMessages sends the batch's sender message
// corr_i^y0_i^y1_i per OT.
func (s *XCOTBitSender) SendMessages() error {
	s.WaitSetup()
	buffer := s.correlations.Clone()
	for i := 0; i < s.numOTs; i++ {
		y0, y1 := s.pads(i)
		if (y0[0]^y1[0])&1 == 1 {
			buffer.Set(i, !buffer.Get(i))
		}
	}
	return s.p.sendSenderMessage(s.otID, buffer.Bytes())
}

// ComputeOutputs computes the sender output bits.
func (s *XCOTBitSender) ComputeOutputs() error {
	if s.computed {
		return nil
	}
	s.WaitSetup()
	corrections, err := s.correctionBits()
	if err != nil {
		return err
	}
	s.outputs = bitvec.New(s.numOTs)
	for i := 0; i < s.numOTs; i++ {
		y0, y1 := s.pads(i)
		y := y0
		if corrections.Get(i) {
			y = y1
		}
		s.outputs.Set(i, y[0]&1 == 1)
	}
	s.computed = true
	return nil
}

// GetOutputs returns the sender output bits.
func (s *XCOTBitSender) GetOutputs() bitvec.BitVector {
	return s.outputs
}

// XCOTBitReceiver is the receiver of XOR-correlated bit OTs.
type XCOTBitReceiver struct {
	receiverBatch
	outputs  bitvec.BitVector
	computed bool
}

// RegisterReceiveXCOTBit reserves a batch of bit OTs in the receiver
// direction.
func (p *Provider) RegisterReceiveXCOTBit(numOTs int) (
	*XCOTBitReceiver, error) {

	b, err := newReceiverBatch(p, numOTs, 1)
	if err != nil {
		return nil, err
	}
	return &XCOTBitReceiver{receiverBatch: b}, nil
}

// ComputeOutputs reconstructs the receiver output bits.
func (r *XCOTBitReceiver) ComputeOutputs() error {
	if r.computed {
		return nil
	}
	if !r.correctionsSent {
		return fmt.Errorf("otext: corrections must be sent before outputs")
	}
	msg, err := r.senderMessage()
	if err != nil {
		return err
	}
	msgBits := bitvec.FromBytes(msg, r.numOTs)
	r.outputs = bitvec.New(r.numOTs)
	for i := 0; i < r.numOTs; i++ {
		out := r.output(i)[0]&1 == 1
		if r.choices.Get(i) {
			out = out != msgBits.Get(i)
		}
		r.outputs.Set(i, out)
	}
	r.computed = true
	return nil
}

// GetOutputs returns the receiver output bits.
func (r *XCOTBitReceiver) GetOutputs() bitvec.BitVector {
	return r.outputs
}

// ---------- GOT128 ----------

// GOT128Sender is the sender of general OTs on 128-bit blocks with
// sender-chosen message pairs.
type GOT128Sender struct {
	senderBatch
	inputs []bitvec.Block128
}

// RegisterSendGOT128 reserves a batch of general 128-bit OTs in the
// sender direction.
func (p *Provider) RegisterSendGOT128(numOTs int) (*GOT128Sender, error) {
	b, err := newSenderBatch(p, numOTs, 128)
	if err != nil {
		return nil, err
	}
	return &GOT128Sender{senderBatch: b}, nil
}

// SetInputs sets the message pairs (m0_i, m1_i), interleaved.
func (s *GOT128Sender) SetInputs(inputs []bitvec.Block128) error {
	if len(inputs) != 2*s.numOTs {
		return fmt.Errorf("otext: %d inputs for batch of %d OTs",
			len(inputs), s.numOTs)
	}
	s.inputs = inputs
	return nil
}

// SendMessages masks the message pairs with the pads, swapping a
// pair when the correction bit is set, and sends them.
func (s *GOT128Sender) SendMessages() error {
	s.WaitSetup()
	corrections, err := s.correctionBits()
	if err != nil {
		return err
	}
	payload := make([]byte, 32*s.numOTs)
	for i := 0; i < s.numOTs; i++ {
		y0, y1 := s.pads(i)
		m0 := s.inputs[2*i]
		m1 := s.inputs[2*i+1]
		if corrections.Get(i) {
			m0, m1 = m1, m0
		}
		m0.Xor(bitvec.BlockFromBytes(y0))
		m1.Xor(bitvec.BlockFromBytes(y1))
		copy(payload[i*32:], m0[:])
		copy(payload[i*32+16:], m1[:])
	}
	return s.p.sendSenderMessage(s.otID, payload)
}

// GOT128Receiver is the receiver of general 128-bit OTs.
type GOT128Receiver struct {
	receiverBatch
	outputs []bitvec.Block128
}

// RegisterReceiveGOT128 reserves a batch of general 128-bit OTs in
// the receiver direction.
func (p *Provider) RegisterReceiveGOT128(numOTs int) (
	*GOT128Receiver, error) {

	b, err := newReceiverBatch(p, numOTs, 128)
	if err != nil {
		return nil, err
	}
	return &GOT128Receiver{receiverBatch: b}, nil
}

// ComputeOutputs unmasks the chosen message of each pair.
func (r *GOT128Receiver) ComputeOutputs() error {
	if r.outputs != nil {
		return nil
	}
	if !r.correctionsSent {
		return fmt.Errorf("otext: corrections must be sent before outputs")
	}
	msg, err := r.senderMessage()
	if err != nil {
		return err
	}
	if len(msg) < 32*r.numOTs {
		return fmt.Errorf("otext: short sender message for batch %d", r.otID)
	}
	random := r.p.recv.randomChoices
	r.outputs = make([]bitvec.Block128, r.numOTs)
	for i := 0; i < r.numOTs; i++ {
		offset := i * 32
		if random.Get(int(r.otID) + i) {
			offset += 16
		}
		r.outputs[i] = bitvec.BlockFromBytes(msg[offset : offset+16])
		r.outputs[i].Xor(bitvec.BlockFromBytes(r.output(i)))
	}
	return nil
}

// GetOutputs returns the receiver outputs.
func (r *GOT128Receiver) GetOutputs() []bitvec.Block128 {
	return r.outputs
}

// ---------- GOTBit ----------

// GOTBitSender is the sender of general OTs on single bits.
type GOTBitSender struct {
	senderBatch
	inputs bitvec.BitVector
}

// RegisterSendGOTBit reserves a batch of general bit OTs in the
// sender direction.
func (p *Provider) RegisterSendGOTBit(numOTs int) (*GOTBitSender, error) {
	b, err := newSenderBatch(p, numOTs, 1)
	if err != nil {
		return nil, err
	}
	return &GOTBitSender{senderBatch: b}, nil
}

// SetInputs sets the message bit pairs (m0_i, m1_i), interleaved.
func (s *GOTBitSender) SetInputs(inputs bitvec.BitVector) error {
	if inputs.Size() != 2*s.numOTs {
		return fmt.Errorf("otext: %d inputs for batch of %d OTs",
			inputs.Size(), s.numOTs)
	}
	s.inputs = inputs
	return nil
}

// SendMessages masks the bit pairs with the pads and sends them.
func (s *GOTBitSender) SendMessages() error {
	s.WaitSetup()
	corrections, err := s.correctionBits()
	if err != nil {
		return err
	}
	buffer := bitvec.New(2 * s.numOTs)
	for i := 0; i < s.numOTs; i++ {
		y0, y1 := s.pads(i)
		m0 := s.inputs.Get(2 * i)
		m1 := s.inputs.Get(2*i + 1)
		if corrections.Get(i) {
			m0, m1 = m1, m0
		}
		buffer.Set(2*i, m0 != (y0[0]&1 == 1))
		buffer.Set(2*i+1, m1 != (y1[0]&1 == 1))
	}
	return s.p.sendSenderMessage(s.otID, buffer.Bytes())
}

// GOTBitReceiver is the receiver of general bit OTs.
type GOTBitReceiver struct {
	receiverBatch
	outputs  bitvec.BitVector
	computed bool
}

// RegisterReceiveGOTBit reserves a batch of general bit OTs in the
// receiver direction.
func (p *Provider) RegisterReceiveGOTBit(numOTs int) (
	*GOTBitReceiver, error) {

	b, err := newReceiverBatch(p, numOTs, 1)
	if err != nil {
		return nil, err
	}
	return &GOTBitReceiver{receiverBatch: b}, nil
}

// ComputeOutputs unmasks the chosen bit of each pair.
func (r *GOTBitReceiver) ComputeOutputs() error {
	if r.computed {
		return nil
	}
	if !r.correctionsSent {
		return fmt.Errorf("otext: corrections must be sent before outputs")
	}
	msg, err := r.senderMessage()
	if err != nil {
		return err
	}
	msgBits := bitvec.FromBytes(msg, 2*r.numOTs)
	random := r.p.recv.randomChoices
	r.outputs = bitvec.New(r.numOTs)
	for i := 0; i < r.numOTs; i++ {
		idx := 2 * i
		if random.Get(int(r.otID) + i) {
			idx++
		}
		out := msgBits.Get(idx) != (r.output(i)[0]&1 == 1)
		r.outputs.Set(i, out)
	}
	r.computed = true
	return nil
}

// GetOutputs returns the receiver output bits.
func (r *GOTBitReceiver) GetOutputs() bitvec.BitVector {
	return r.outputs
}

// ---------- ROT ----------

// ROTSender is the sender of random OTs: the protocol itself picks
// both messages and the receiver's choice.
type ROTSender struct {
	senderBatch
	vectorSize int
}

// RegisterSendROT reserves a batch of random OTs of vectorSize bits
// each in the sender direction.
func (p *Provider) RegisterSendROT(numOTs, vectorSize int) (
	*ROTSender, error) {

	b, err := newSenderBatch(p, numOTs, vectorSize)
	if err != nil {
		return nil, err
	}
	return &ROTSender{senderBatch: b, vectorSize: vectorSize}, nil
}

// GetOutputs returns the random message pairs (y0_i, y1_i). No
// messages are exchanged.
func (s *ROTSender) GetOutputs() ([]bitvec.BitVector, []bitvec.BitVector) {
	s.WaitSetup()
	y0s := make([]bitvec.BitVector, s.numOTs)
	y1s := make([]bitvec.BitVector, s.numOTs)
	for i := 0; i < s.numOTs; i++ {
		y0, y1 := s.pads(i)
		y0s[i] = bitvec.FromBytes(y0, s.vectorSize)
		y1s[i] = bitvec.FromBytes(y1, s.vectorSize)
	}
	return y0s, y1s
}

// ROTReceiver is the receiver of random OTs. The choices are the
// random choices drawn in setup; setting inputs on a random-OT
// receiver is a programming error by construction, as it has no
// input operations.
type ROTReceiver struct {
	receiverBatch
	vectorSize int
}

// RegisterReceiveROT reserves a batch of random OTs of vectorSize
// bits each in the receiver direction.
func (p *Provider) RegisterReceiveROT(numOTs, vectorSize int) (
	*ROTReceiver, error) {

	b, err := newReceiverBatch(p, numOTs, vectorSize)
	if err != nil {
		return nil, err
	}
	return &ROTReceiver{receiverBatch: b, vectorSize: vectorSize}, nil
}

// GetChoices returns the protocol-chosen random choice bits.
func (r *ROTReceiver) GetChoices() bitvec.BitVector {
	r.WaitSetup()
	return r.p.recv.randomChoices.Subset(int(r.otID), int(r.otID)+r.numOTs)
}

// GetOutputs returns the chosen random messages.
func (r *ROTReceiver) GetOutputs() []bitvec.BitVector {
	r.WaitSetup()
	outputs := make([]bitvec.BitVector, r.numOTs)
	for i := 0; i < r.numOTs; i++ {
		outputs[i] = bitvec.FromBytes(r.output(i), r.vectorSize)
	}
	return outputs
}
