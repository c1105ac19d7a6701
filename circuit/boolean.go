//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"fmt"

	"github.com/markkurossi/beavy"
	"github.com/markkurossi/beavy/bitvec"
	"github.com/markkurossi/beavy/otext"
	"github.com/markkurossi/beavy/p2p"
)

// BooleanInputGateSender provides this party's Boolean inputs to the
// circuit. Setup draws the output mask; online adds the plaintext
// into the public share and broadcasts it.
type BooleanInputGateSender struct {
	gateBase
	p        *Provider
	numWires int
	numSIMD  int
	inputID  uint64
	input    chan []bitvec.BitVector
	outputs  []*BooleanWire
}

// MakeBooleanInputGateMine creates an input gate owned by this
// party. The returned setter provides the plaintext inputs, one bit
// vector of numSIMD bits per wire; it may be called before or during
// the online phase.
func (p *Provider) MakeBooleanInputGateMine(numWires, numSIMD int) (
	func([]bitvec.BitVector), []*BooleanWire, error) {

	if numWires <= 0 || numSIMD <= 0 {
		return nil, nil, fmt.Errorf("circuit: invalid input gate geometry")
	}
	gate := &BooleanInputGateSender{
		gateBase: gateBase{id: p.reg.NextGateID()},
		p:        p,
		numWires: numWires,
		numSIMD:  numSIMD,
		inputID:  p.nextInputID(numWires),
		input:    make(chan []bitvec.BitVector, 1),
	}
	for i := 0; i < numWires; i++ {
		gate.outputs = append(gate.outputs, NewBooleanWire(numSIMD))
	}
	p.reg.Register(gate)

	setter := func(inputs []bitvec.BitVector) {
		gate.input <- inputs
	}
	return setter, gate.outputs, nil
}

// NeedSetup implements beavy.Gate.
func (g *BooleanInputGateSender) NeedSetup() bool { return true }

// NeedOnline implements beavy.Gate.
func (g *BooleanInputGateSender) NeedOnline() bool { return true }

// EvaluateSetup implements beavy.Gate.
func (g *BooleanInputGateSender) EvaluateSetup() error {
	for i, w := range g.outputs {
		secret, err := g.p.randomBits(g.numSIMD)
		if err != nil {
			return err
		}
		w.SecretShare = secret
		w.SetSetupReady()

		// The initial public share is the full mask: our secret
		// share plus the shared stream the peer derives as its
		// share.
		w.PublicShare = secret.Clone()
		w.PublicShare.Xor(g.p.myRNG.Bits(g.inputID+uint64(i), g.numSIMD))
	}
	return nil
}

// EvaluateOnline implements beavy.Gate.
func (g *BooleanInputGateSender) EvaluateOnline() error {
	inputs := <-g.input
	if len(inputs) != g.numWires {
		return fmt.Errorf("circuit: gate %d: %d input vectors, want %d",
			g.id, len(inputs), g.numWires)
	}
	var publicShares bitvec.BitVector
	for i, w := range g.outputs {
		if inputs[i].Size() != g.numSIMD {
			return fmt.Errorf("circuit: gate %d: input size %d, want %d",
				g.id, inputs[i].Size(), g.numSIMD)
		}
		w.PublicShare.Xor(inputs[i])
		w.SetOnlineReady()
		publicShares.Append(w.PublicShare)
	}
	return g.p.sendWire(g.id, publicShares.Bytes())
}

// BooleanInputGateReceiver is the peer's view of an input gate owned
// by the other party.
type BooleanInputGateReceiver struct {
	gateBase
	p           *Provider
	numWires    int
	numSIMD     int
	inputID     uint64
	publicShare *p2p.Future
	outputs     []*BooleanWire
}

// MakeBooleanInputGateTheirs creates the receiving side of an input
// gate owned by the peer.
func (p *Provider) MakeBooleanInputGateTheirs(numWires, numSIMD int) (
	[]*BooleanWire, error) {

	if numWires <= 0 || numSIMD <= 0 {
		return nil, fmt.Errorf("circuit: invalid input gate geometry")
	}
	gate := &BooleanInputGateReceiver{
		gateBase: gateBase{id: p.reg.NextGateID()},
		p:        p,
		numWires: numWires,
		numSIMD:  numSIMD,
		inputID:  p.nextInputID(numWires),
	}
	gate.publicShare = p.registerWire(gate.id)
	for i := 0; i < numWires; i++ {
		gate.outputs = append(gate.outputs, NewBooleanWire(numSIMD))
	}
	p.reg.Register(gate)
	return gate.outputs, nil
}

// NeedSetup implements beavy.Gate.
func (g *BooleanInputGateReceiver) NeedSetup() bool { return true }

// NeedOnline implements beavy.Gate.
func (g *BooleanInputGateReceiver) NeedOnline() bool { return true }

// EvaluateSetup implements beavy.Gate.
func (g *BooleanInputGateReceiver) EvaluateSetup() error {
	for i, w := range g.outputs {
		w.SecretShare = g.p.theirRNG.Bits(g.inputID+uint64(i), g.numSIMD)
		w.SetSetupReady()
	}
	return nil
}

// EvaluateOnline implements beavy.Gate.
func (g *BooleanInputGateReceiver) EvaluateOnline() error {
	data, err := g.publicShare.Get()
	if err != nil {
		return err
	}
	shares, err := splitWireBits(data, g.numWires, g.numSIMD)
	if err != nil {
		return err
	}
	for i, w := range g.outputs {
		w.PublicShare = shares[i]
		w.SetOnlineReady()
	}
	return nil
}

// BooleanOutputGate reveals the wires' plaintext to the output
// owner. Each non-owner sends its secret-share contribution in
// setup; the owner combines it with the public share in online.
type BooleanOutputGate struct {
	gateBase
	p           *Provider
	owner       int
	inputs      []*BooleanWire
	shareFuture *p2p.Future
	promise     *Promise[[]bitvec.BitVector]
}

// MakeBooleanOutputGate creates an output gate revealing the wires
// to owner (a party id or beavy.AllParties). The returned promise
// resolves for recipients; it is nil when this party is not one.
func (p *Provider) MakeBooleanOutputGate(inputs []*BooleanWire, owner int) (
	*Promise[[]bitvec.BitVector], error) {

	if _, err := checkBooleanInputs(inputs); err != nil {
		return nil, err
	}
	gate := &BooleanOutputGate{
		gateBase: gateBase{id: p.reg.NextGateID()},
		p:        p,
		owner:    owner,
		inputs:   inputs,
	}
	if gate.isRecipient() {
		gate.shareFuture = p.registerWire(gate.id)
		gate.promise = newPromise[[]bitvec.BitVector]()
	}
	p.reg.Register(gate)
	return gate.promise, nil
}

func (g *BooleanOutputGate) isRecipient() bool {
	return g.owner == beavy.AllParties || g.owner == g.p.cfg.PartyID
}

// NeedSetup implements beavy.Gate.
func (g *BooleanOutputGate) NeedSetup() bool { return true }

// NeedOnline implements beavy.Gate.
func (g *BooleanOutputGate) NeedOnline() bool { return true }

// EvaluateSetup implements beavy.Gate.
func (g *BooleanOutputGate) EvaluateSetup() error {
	if g.owner == g.p.cfg.PartyID {
		return nil
	}
	var contribution bitvec.BitVector
	for _, w := range g.inputs {
		w.WaitSetup()
		contribution.Append(w.SecretShare)
	}
	return g.p.sendWire(g.id, contribution.Bytes())
}

// EvaluateOnline implements beavy.Gate.
func (g *BooleanOutputGate) EvaluateOnline() error {
	if !g.isRecipient() {
		return nil
	}
	data, err := g.shareFuture.Get()
	if err != nil {
		return err
	}
	numSIMD := g.inputs[0].NumSIMD()
	other, err := splitWireBits(data, len(g.inputs), numSIMD)
	if err != nil {
		return err
	}
	outputs := make([]bitvec.BitVector, len(g.inputs))
	for i, w := range g.inputs {
		w.WaitSetup()
		plain := w.SecretShare.Clone()
		plain.Xor(other[i])
		w.WaitOnline()
		plain.Xor(w.PublicShare)
		outputs[i] = plain
	}
	g.promise.set(outputs)
	return nil
}

// BooleanXORGate computes the XOR of two wire sets locally.
type BooleanXORGate struct {
	gateBase
	inputsA []*BooleanWire
	inputsB []*BooleanWire
	outputs []*BooleanWire
}

// MakeXORGate creates a Boolean XOR gate.
func (p *Provider) MakeXORGate(inA, inB []*BooleanWire) (
	[]*BooleanWire, error) {

	numSIMD, err := checkBooleanInputs(inA)
	if err != nil {
		return nil, err
	}
	if len(inA) != len(inB) {
		return nil, fmt.Errorf("circuit: XOR input widths differ: %d != %d",
			len(inA), len(inB))
	}
	if _, err := checkBooleanInputs(inB); err != nil {
		return nil, err
	}
	if inB[0].NumSIMD() != numSIMD {
		return nil, fmt.Errorf("circuit: XOR SIMD widths differ")
	}
	gate := &BooleanXORGate{
		gateBase: gateBase{id: p.reg.NextGateID()},
		inputsA:  inA,
		inputsB:  inB,
	}
	for i := 0; i < len(inA); i++ {
		gate.outputs = append(gate.outputs, NewBooleanWire(numSIMD))
	}
	p.reg.Register(gate)
	return gate.outputs, nil
}

// NeedSetup implements beavy.Gate.
func (g *BooleanXORGate) NeedSetup() bool { return true }

// NeedOnline implements beavy.Gate.
func (g *BooleanXORGate) NeedOnline() bool { return true }

// EvaluateSetup implements beavy.Gate.
func (g *BooleanXORGate) EvaluateSetup() error {
	for i, out := range g.outputs {
		a := g.inputsA[i]
		b := g.inputsB[i]
		a.WaitSetup()
		b.WaitSetup()
		out.SecretShare = a.SecretShare.Clone()
		out.SecretShare.Xor(b.SecretShare)
		out.SetSetupReady()
	}
	return nil
}

// EvaluateOnline implements beavy.Gate.
func (g *BooleanXORGate) EvaluateOnline() error {
	for i, out := range g.outputs {
		a := g.inputsA[i]
		b := g.inputsB[i]
		a.WaitOnline()
		b.WaitOnline()
		out.PublicShare = a.PublicShare.Clone()
		out.PublicShare.Xor(b.PublicShare)
		out.SetOnlineReady()
	}
	return nil
}

// BooleanINVGate inverts the wires. The whose-job party flips its
// secret shares and forwards the public shares; the other party's
// output wires are the input wires themselves.
type BooleanINVGate struct {
	gateBase
	isMyJob bool
	inputs  []*BooleanWire
	outputs []*BooleanWire
}

// MakeINVGate creates a Boolean inverter.
func (p *Provider) MakeINVGate(inputs []*BooleanWire) ([]*BooleanWire, error) {
	numSIMD, err := checkBooleanInputs(inputs)
	if err != nil {
		return nil, err
	}
	gate := &BooleanINVGate{
		gateBase: gateBase{id: p.reg.NextGateID()},
		inputs:   inputs,
	}
	gate.isMyJob = p.isMyJob(gate.id)
	if gate.isMyJob {
		for i := 0; i < len(inputs); i++ {
			gate.outputs = append(gate.outputs, NewBooleanWire(numSIMD))
		}
	} else {
		gate.outputs = inputs
	}
	p.reg.Register(gate)
	return gate.outputs, nil
}

// NeedSetup implements beavy.Gate.
func (g *BooleanINVGate) NeedSetup() bool { return g.isMyJob }

// NeedOnline implements beavy.Gate.
func (g *BooleanINVGate) NeedOnline() bool { return g.isMyJob }

// EvaluateSetup implements beavy.Gate.
func (g *BooleanINVGate) EvaluateSetup() error {
	if !g.isMyJob {
		return nil
	}
	for i, out := range g.outputs {
		in := g.inputs[i]
		in.WaitSetup()
		out.SecretShare = in.SecretShare.Clone()
		out.SecretShare.Invert()
		out.SetSetupReady()
	}
	return nil
}

// EvaluateOnline implements beavy.Gate.
func (g *BooleanINVGate) EvaluateOnline() error {
	if !g.isMyJob {
		return nil
	}
	for i, out := range g.outputs {
		in := g.inputs[i]
		in.WaitOnline()
		out.PublicShare = in.PublicShare.Clone()
		out.SetOnlineReady()
	}
	return nil
}

// BooleanANDGate computes the AND of two wire sets with
// XOR-correlated OTs consumed in setup and a one-round online
// combine.
type BooleanANDGate struct {
	gateBase
	p       *Provider
	inputsA []*BooleanWire
	inputsB []*BooleanWire
	outputs []*BooleanWire

	otSender   *otext.XCOTBitSender
	otReceiver *otext.XCOTBitReceiver
	share      *p2p.Future

	deltaAShare bitvec.BitVector
	deltaBShare bitvec.BitVector
	deltaYShare bitvec.BitVector
}

// MakeANDGate creates a Boolean AND gate.
func (p *Provider) MakeANDGate(inA, inB []*BooleanWire) (
	[]*BooleanWire, error) {

	numSIMD, err := checkBooleanInputs(inA)
	if err != nil {
		return nil, err
	}
	if len(inA) != len(inB) {
		return nil, fmt.Errorf("circuit: AND input widths differ: %d != %d",
			len(inA), len(inB))
	}
	if _, err := checkBooleanInputs(inB); err != nil {
		return nil, err
	}
	if inB[0].NumSIMD() != numSIMD {
		return nil, fmt.Errorf("circuit: AND SIMD widths differ")
	}
	gate := &BooleanANDGate{
		gateBase: gateBase{id: p.reg.NextGateID()},
		p:        p,
		inputsA:  inA,
		inputsB:  inB,
	}
	for i := 0; i < len(inA); i++ {
		gate.outputs = append(gate.outputs, NewBooleanWire(numSIMD))
	}
	numBits := len(inA) * numSIMD
	gate.otSender, err = p.ot.RegisterSendXCOTBit(numBits)
	if err != nil {
		return nil, err
	}
	gate.otReceiver, err = p.ot.RegisterReceiveXCOTBit(numBits)
	if err != nil {
		return nil, err
	}
	gate.share = p.registerWire(gate.id)
	p.reg.Register(gate)
	return gate.outputs, nil
}

// NeedSetup implements beavy.Gate.
func (g *BooleanANDGate) NeedSetup() bool { return true }

// NeedOnline implements beavy.Gate.
func (g *BooleanANDGate) NeedOnline() bool { return true }

// EvaluateSetup implements beavy.Gate.
func (g *BooleanANDGate) EvaluateSetup() error {
	for _, out := range g.outputs {
		secret, err := g.p.randomBits(out.NumSIMD())
		if err != nil {
			return err
		}
		out.SecretShare = secret
		out.SetSetupReady()
	}

	for i := range g.outputs {
		a := g.inputsA[i]
		b := g.inputsB[i]
		a.WaitSetup()
		b.WaitSetup()
		g.deltaAShare.Append(a.SecretShare)
		g.deltaBShare.Append(b.SecretShare)
		g.deltaYShare.Append(g.outputs[i].SecretShare)
	}

	// [lambda_a*lambda_b] = local product + both cross terms via
	// the two OT directions.
	deltaAB := g.deltaAShare.Clone()
	deltaAB.And(g.deltaBShare)

	if err := g.otReceiver.SetChoices(g.deltaAShare); err != nil {
		return err
	}
	if err := g.otReceiver.SendCorrections(); err != nil {
		return err
	}
	if err := g.otSender.SetCorrelations(g.deltaBShare); err != nil {
		return err
	}
	if err := g.otSender.SendMessages(); err != nil {
		return err
	}
	if err := g.otReceiver.ComputeOutputs(); err != nil {
		return err
	}
	if err := g.otSender.ComputeOutputs(); err != nil {
		return err
	}
	deltaAB.Xor(g.otSender.GetOutputs())
	deltaAB.Xor(g.otReceiver.GetOutputs())
	g.deltaYShare.Xor(deltaAB)
	return nil
}

// EvaluateOnline implements beavy.Gate.
func (g *BooleanANDGate) EvaluateOnline() error {
	numSIMD := g.inputsA[0].NumSIMD()

	var deltaA, deltaB bitvec.BitVector
	for i := range g.outputs {
		a := g.inputsA[i]
		b := g.inputsB[i]
		a.WaitOnline()
		b.WaitOnline()
		deltaA.Append(a.PublicShare)
		deltaB.Append(b.PublicShare)
	}

	tmp := deltaA.Clone()
	tmp.And(g.deltaBShare)
	g.deltaYShare.Xor(tmp)

	tmp = deltaB.Clone()
	tmp.And(g.deltaAShare)
	g.deltaYShare.Xor(tmp)

	if g.p.isMyJob(g.id) {
		tmp = deltaA.Clone()
		tmp.And(deltaB)
		g.deltaYShare.Xor(tmp)
	}

	if err := g.p.sendWire(g.id, g.deltaYShare.Bytes()); err != nil {
		return err
	}
	data, err := g.share.Get()
	if err != nil {
		return err
	}
	g.deltaYShare.Xor(bitvec.FromBytes(data, g.deltaYShare.Size()))

	for i, out := range g.outputs {
		out.PublicShare = g.deltaYShare.Subset(i*numSIMD, (i+1)*numSIMD)
		out.SetOnlineReady()
	}
	return nil
}

// MakeAND4Gate creates a four-input AND as a tree of binary ANDs.
func (p *Provider) MakeAND4Gate(inA, inB, inC, inD []*BooleanWire) (
	[]*BooleanWire, error) {

	ab, err := p.MakeANDGate(inA, inB)
	if err != nil {
		return nil, err
	}
	cd, err := p.MakeANDGate(inC, inD)
	if err != nil {
		return nil, err
	}
	return p.MakeANDGate(ab, cd)
}

// BooleanDOTGate computes the dot product of two wire sets: the XOR
// over wires of the per-wire ANDs, onto a single output wire.
type BooleanDOTGate struct {
	gateBase
	p       *Provider
	inputsA []*BooleanWire
	inputsB []*BooleanWire
	output  *BooleanWire

	otSender   *otext.XCOTBitSender
	otReceiver *otext.XCOTBitReceiver
	share      *p2p.Future

	deltaAShare bitvec.BitVector
	deltaBShare bitvec.BitVector
	deltaYShare bitvec.BitVector
}

// MakeDOTGate creates a Boolean dot-product gate.
func (p *Provider) MakeDOTGate(inA, inB []*BooleanWire) (
	*BooleanWire, error) {

	numSIMD, err := checkBooleanInputs(inA)
	if err != nil {
		return nil, err
	}
	if len(inA) != len(inB) {
		return nil, fmt.Errorf("circuit: DOT input widths differ: %d != %d",
			len(inA), len(inB))
	}
	if _, err := checkBooleanInputs(inB); err != nil {
		return nil, err
	}
	if inB[0].NumSIMD() != numSIMD {
		return nil, fmt.Errorf("circuit: DOT SIMD widths differ")
	}
	gate := &BooleanDOTGate{
		gateBase: gateBase{id: p.reg.NextGateID()},
		p:        p,
		inputsA:  inA,
		inputsB:  inB,
		output:   NewBooleanWire(numSIMD),
	}
	numBits := len(inA) * numSIMD
	gate.otSender, err = p.ot.RegisterSendXCOTBit(numBits)
	if err != nil {
		return nil, err
	}
	gate.otReceiver, err = p.ot.RegisterReceiveXCOTBit(numBits)
	if err != nil {
		return nil, err
	}
	gate.share = p.registerWire(gate.id)
	p.reg.Register(gate)
	return gate.output, nil
}

// NeedSetup implements beavy.Gate.
func (g *BooleanDOTGate) NeedSetup() bool { return true }

// NeedOnline implements beavy.Gate.
func (g *BooleanDOTGate) NeedOnline() bool { return true }

// foldXor folds a numWires*numSIMD bit vector into numSIMD bits by
// XOR over the wires.
func foldXor(bits bitvec.BitVector, numWires, numSIMD int) bitvec.BitVector {
	out := bitvec.New(numSIMD)
	for i := 0; i < numWires; i++ {
		out.Xor(bits.Subset(i*numSIMD, (i+1)*numSIMD))
	}
	return out
}

// EvaluateSetup implements beavy.Gate.
func (g *BooleanDOTGate) EvaluateSetup() error {
	numSIMD := g.output.NumSIMD()
	secret, err := g.p.randomBits(numSIMD)
	if err != nil {
		return err
	}
	g.output.SecretShare = secret
	g.output.SetSetupReady()

	for i := range g.inputsA {
		a := g.inputsA[i]
		b := g.inputsB[i]
		a.WaitSetup()
		b.WaitSetup()
		g.deltaAShare.Append(a.SecretShare)
		g.deltaBShare.Append(b.SecretShare)
	}

	deltaAB := g.deltaAShare.Clone()
	deltaAB.And(g.deltaBShare)

	if err := g.otReceiver.SetChoices(g.deltaAShare); err != nil {
		return err
	}
	if err := g.otReceiver.SendCorrections(); err != nil {
		return err
	}
	if err := g.otSender.SetCorrelations(g.deltaBShare); err != nil {
		return err
	}
	if err := g.otSender.SendMessages(); err != nil {
		return err
	}
	if err := g.otReceiver.ComputeOutputs(); err != nil {
		return err
	}
	if err := g.otSender.ComputeOutputs(); err != nil {
		return err
	}
	deltaAB.Xor(g.otSender.GetOutputs())
	deltaAB.Xor(g.otReceiver.GetOutputs())

	g.deltaYShare = g.output.SecretShare.Clone()
	g.deltaYShare.Xor(foldXor(deltaAB, len(g.inputsA), numSIMD))
	return nil
}

// EvaluateOnline implements beavy.Gate.
func (g *BooleanDOTGate) EvaluateOnline() error {
	numSIMD := g.output.NumSIMD()

	var deltaA, deltaB bitvec.BitVector
	for i := range g.inputsA {
		a := g.inputsA[i]
		b := g.inputsB[i]
		a.WaitOnline()
		b.WaitOnline()
		deltaA.Append(a.PublicShare)
		deltaB.Append(b.PublicShare)
	}

	tmp := deltaA.Clone()
	tmp.And(g.deltaBShare)
	g.deltaYShare.Xor(foldXor(tmp, len(g.inputsA), numSIMD))

	tmp = deltaB.Clone()
	tmp.And(g.deltaAShare)
	g.deltaYShare.Xor(foldXor(tmp, len(g.inputsA), numSIMD))

	if g.p.isMyJob(g.id) {
		tmp = deltaA.Clone()
		tmp.And(deltaB)
		g.deltaYShare.Xor(foldXor(tmp, len(g.inputsA), numSIMD))
	}

	if err := g.p.sendWire(g.id, g.deltaYShare.Bytes()); err != nil {
		return err
	}
	data, err := g.share.Get()
	if err != nil {
		return err
	}
	g.deltaYShare.Xor(bitvec.FromBytes(data, numSIMD))

	g.output.PublicShare = g.deltaYShare
	g.output.SetOnlineReady()
	return nil
}
