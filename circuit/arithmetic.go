//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"fmt"

	"github.com/markkurossi/beavy"
	"github.com/markkurossi/beavy/arith"
	"github.com/markkurossi/beavy/p2p"
	"github.com/markkurossi/beavy/prg"
)

// ArithmeticInputGateSender provides this party's ring inputs to the
// circuit.
type ArithmeticInputGateSender[T beavy.Uint] struct {
	gateBase
	p       *Provider
	numSIMD int
	inputID uint64
	input   chan []T
	output  *ArithmeticWire[T]
}

// MakeArithmeticInputGateMine creates an input gate owned by this
// party. The returned setter provides the numSIMD plaintext values.
func MakeArithmeticInputGateMine[T beavy.Uint](p *Provider, numSIMD int) (
	func([]T), *ArithmeticWire[T], error) {

	if numSIMD <= 0 {
		return nil, nil, fmt.Errorf("circuit: invalid input gate geometry")
	}
	gate := &ArithmeticInputGateSender[T]{
		gateBase: gateBase{id: p.reg.NextGateID()},
		p:        p,
		numSIMD:  numSIMD,
		inputID:  p.nextInputID(1),
		input:    make(chan []T, 1),
		output:   NewArithmeticWire[T](numSIMD),
	}
	p.reg.Register(gate)

	setter := func(inputs []T) {
		gate.input <- inputs
	}
	return setter, gate.output, nil
}

// NeedSetup implements beavy.Gate.
func (g *ArithmeticInputGateSender[T]) NeedSetup() bool { return true }

// NeedOnline implements beavy.Gate.
func (g *ArithmeticInputGateSender[T]) NeedOnline() bool { return true }

// EvaluateSetup implements beavy.Gate.
func (g *ArithmeticInputGateSender[T]) EvaluateSetup() error {
	secret, err := beavy.RandomVector[T](g.p.rand(), g.numSIMD)
	if err != nil {
		return err
	}
	g.output.SecretShare = secret
	g.output.SetSetupReady()

	public := make([]T, g.numSIMD)
	mask := prg.Uints[T](g.p.myRNG, g.inputID, g.numSIMD)
	for i := range public {
		public[i] = secret[i] + mask[i]
	}
	g.output.PublicShare = public
	return nil
}

// EvaluateOnline implements beavy.Gate.
func (g *ArithmeticInputGateSender[T]) EvaluateOnline() error {
	inputs := <-g.input
	if len(inputs) != g.numSIMD {
		return fmt.Errorf("circuit: gate %d: %d inputs, want %d",
			g.id, len(inputs), g.numSIMD)
	}
	for i := range inputs {
		g.output.PublicShare[i] += inputs[i]
	}
	g.output.SetOnlineReady()
	return g.p.sendWire(g.id, beavy.UintsToBytes(g.output.PublicShare))
}

// ArithmeticInputGateReceiver is the peer's view of an input gate
// owned by the other party.
type ArithmeticInputGateReceiver[T beavy.Uint] struct {
	gateBase
	p           *Provider
	numSIMD     int
	inputID     uint64
	publicShare *p2p.Future
	output      *ArithmeticWire[T]
}

// MakeArithmeticInputGateTheirs creates the receiving side of an
// input gate owned by the peer.
func MakeArithmeticInputGateTheirs[T beavy.Uint](p *Provider, numSIMD int) (
	*ArithmeticWire[T], error) {

	if numSIMD <= 0 {
		return nil, fmt.Errorf("circuit: invalid input gate geometry")
	}
	gate := &ArithmeticInputGateReceiver[T]{
		gateBase: gateBase{id: p.reg.NextGateID()},
		p:        p,
		numSIMD:  numSIMD,
		inputID:  p.nextInputID(1),
		output:   NewArithmeticWire[T](numSIMD),
	}
	gate.publicShare = p.registerWire(gate.id)
	p.reg.Register(gate)
	return gate.output, nil
}

// NeedSetup implements beavy.Gate.
func (g *ArithmeticInputGateReceiver[T]) NeedSetup() bool { return true }

// NeedOnline implements beavy.Gate.
func (g *ArithmeticInputGateReceiver[T]) NeedOnline() bool { return true }

// EvaluateSetup implements beavy.Gate.
func (g *ArithmeticInputGateReceiver[T]) EvaluateSetup() error {
	g.output.SecretShare = prg.Uints[T](g.p.theirRNG, g.inputID, g.numSIMD)
	g.output.SetSetupReady()
	return nil
}

// EvaluateOnline implements beavy.Gate.
func (g *ArithmeticInputGateReceiver[T]) EvaluateOnline() error {
	data, err := g.publicShare.Get()
	if err != nil {
		return err
	}
	public := beavy.UintsFromBytes[T](data)
	if len(public) != g.numSIMD {
		return fmt.Errorf("circuit: gate %d: public share size %d, want %d",
			g.id, len(public), g.numSIMD)
	}
	g.output.PublicShare = public
	g.output.SetOnlineReady()
	return nil
}

// ArithmeticOutputGate reveals the wire's plaintext to the output
// owner.
type ArithmeticOutputGate[T beavy.Uint] struct {
	gateBase
	p           *Provider
	owner       int
	input       *ArithmeticWire[T]
	shareFuture *p2p.Future
	promise     *Promise[[]T]
}

// MakeArithmeticOutputGate creates an output gate revealing the wire
// to owner (a party id or beavy.AllParties).
func MakeArithmeticOutputGate[T beavy.Uint](p *Provider,
	input *ArithmeticWire[T], owner int) (*Promise[[]T], error) {

	gate := &ArithmeticOutputGate[T]{
		gateBase: gateBase{id: p.reg.NextGateID()},
		p:        p,
		owner:    owner,
		input:    input,
	}
	if gate.isRecipient() {
		gate.shareFuture = p.registerWire(gate.id)
		gate.promise = newPromise[[]T]()
	}
	p.reg.Register(gate)
	return gate.promise, nil
}

func (g *ArithmeticOutputGate[T]) isRecipient() bool {
	return g.owner == beavy.AllParties || g.owner == g.p.cfg.PartyID
}

// NeedSetup implements beavy.Gate.
func (g *ArithmeticOutputGate[T]) NeedSetup() bool { return true }

// NeedOnline implements beavy.Gate.
func (g *ArithmeticOutputGate[T]) NeedOnline() bool { return true }

// EvaluateSetup implements beavy.Gate.
func (g *ArithmeticOutputGate[T]) EvaluateSetup() error {
	if g.owner == g.p.cfg.PartyID {
		return nil
	}
	g.input.WaitSetup()
	return g.p.sendWire(g.id, beavy.UintsToBytes(g.input.SecretShare))
}

// EvaluateOnline implements beavy.Gate.
func (g *ArithmeticOutputGate[T]) EvaluateOnline() error {
	if !g.isRecipient() {
		return nil
	}
	data, err := g.shareFuture.Get()
	if err != nil {
		return err
	}
	other := beavy.UintsFromBytes[T](data)
	g.input.WaitSetup()
	g.input.WaitOnline()

	output := make([]T, g.input.NumSIMD())
	for i := range output {
		output[i] = g.input.PublicShare[i] -
			(g.input.SecretShare[i] + other[i])
	}
	g.promise.set(output)
	return nil
}

// ArithmeticOutputShareGate exposes the wire's secret and public
// shares for consumption by a non-MPC downstream.
type ArithmeticOutputShareGate[T beavy.Uint] struct {
	gateBase
	input         *ArithmeticWire[T]
	secretPromise *Promise[[]T]
	publicPromise *Promise[[]T]
}

// MakeArithmeticOutputShareGate creates an output-share gate. The
// first promise resolves to the secret share in setup, the second to
// the public share in online.
func MakeArithmeticOutputShareGate[T beavy.Uint](p *Provider,
	input *ArithmeticWire[T]) (*Promise[[]T], *Promise[[]T]) {

	gate := &ArithmeticOutputShareGate[T]{
		gateBase:      gateBase{id: p.reg.NextGateID()},
		input:         input,
		secretPromise: newPromise[[]T](),
		publicPromise: newPromise[[]T](),
	}
	p.reg.Register(gate)
	return gate.secretPromise, gate.publicPromise
}

// NeedSetup implements beavy.Gate.
func (g *ArithmeticOutputShareGate[T]) NeedSetup() bool { return true }

// NeedOnline implements beavy.Gate.
func (g *ArithmeticOutputShareGate[T]) NeedOnline() bool { return true }

// EvaluateSetup implements beavy.Gate.
func (g *ArithmeticOutputShareGate[T]) EvaluateSetup() error {
	g.input.WaitSetup()
	g.secretPromise.set(g.input.SecretShare)
	return nil
}

// EvaluateOnline implements beavy.Gate.
func (g *ArithmeticOutputShareGate[T]) EvaluateOnline() error {
	g.input.WaitOnline()
	g.publicPromise.set(g.input.PublicShare)
	return nil
}

// ArithmeticADDGate adds two wires locally.
type ArithmeticADDGate[T beavy.Uint] struct {
	gateBase
	inputA *ArithmeticWire[T]
	inputB *ArithmeticWire[T]
	output *ArithmeticWire[T]
}

// MakeADDGate creates an arithmetic addition gate.
func MakeADDGate[T beavy.Uint](p *Provider, inA, inB *ArithmeticWire[T]) (
	*ArithmeticWire[T], error) {

	if inA.NumSIMD() != inB.NumSIMD() {
		return nil, fmt.Errorf("circuit: ADD SIMD widths differ: %d != %d",
			inA.NumSIMD(), inB.NumSIMD())
	}
	gate := &ArithmeticADDGate[T]{
		gateBase: gateBase{id: p.reg.NextGateID()},
		inputA:   inA,
		inputB:   inB,
		output:   NewArithmeticWire[T](inA.NumSIMD()),
	}
	p.reg.Register(gate)
	return gate.output, nil
}

// NeedSetup implements beavy.Gate.
func (g *ArithmeticADDGate[T]) NeedSetup() bool { return true }

// NeedOnline implements beavy.Gate.
func (g *ArithmeticADDGate[T]) NeedOnline() bool { return true }

// EvaluateSetup implements beavy.Gate.
func (g *ArithmeticADDGate[T]) EvaluateSetup() error {
	g.inputA.WaitSetup()
	g.inputB.WaitSetup()
	out := make([]T, g.output.NumSIMD())
	for i := range out {
		out[i] = g.inputA.SecretShare[i] + g.inputB.SecretShare[i]
	}
	g.output.SecretShare = out
	g.output.SetSetupReady()
	return nil
}

// EvaluateOnline implements beavy.Gate.
func (g *ArithmeticADDGate[T]) EvaluateOnline() error {
	g.inputA.WaitOnline()
	g.inputB.WaitOnline()
	out := make([]T, g.output.NumSIMD())
	for i := range out {
		out[i] = g.inputA.PublicShare[i] + g.inputB.PublicShare[i]
	}
	g.output.PublicShare = out
	g.output.SetOnlineReady()
	return nil
}

// ArithmeticNEGGate negates a wire locally.
type ArithmeticNEGGate[T beavy.Uint] struct {
	gateBase
	input  *ArithmeticWire[T]
	output *ArithmeticWire[T]
}

// MakeNEGGate creates an arithmetic negation gate.
func MakeNEGGate[T beavy.Uint](p *Provider, in *ArithmeticWire[T]) (
	*ArithmeticWire[T], error) {

	gate := &ArithmeticNEGGate[T]{
		gateBase: gateBase{id: p.reg.NextGateID()},
		input:    in,
		output:   NewArithmeticWire[T](in.NumSIMD()),
	}
	p.reg.Register(gate)
	return gate.output, nil
}

// NeedSetup implements beavy.Gate.
func (g *ArithmeticNEGGate[T]) NeedSetup() bool { return true }

// NeedOnline implements beavy.Gate.
func (g *ArithmeticNEGGate[T]) NeedOnline() bool { return true }

// EvaluateSetup implements beavy.Gate.
func (g *ArithmeticNEGGate[T]) EvaluateSetup() error {
	g.input.WaitSetup()
	out := make([]T, g.output.NumSIMD())
	for i := range out {
		out[i] = -g.input.SecretShare[i]
	}
	g.output.SecretShare = out
	g.output.SetSetupReady()
	return nil
}

// EvaluateOnline implements beavy.Gate.
func (g *ArithmeticNEGGate[T]) EvaluateOnline() error {
	g.input.WaitOnline()
	out := make([]T, g.output.NumSIMD())
	for i := range out {
		out[i] = -g.input.PublicShare[i]
	}
	g.output.PublicShare = out
	g.output.SetOnlineReady()
	return nil
}

// ArithmeticMULGate multiplies two wires: setup produces an additive
// sharing of lambda_a*lambda_b with two Gilboa sessions; online
// combines public shares in one round.
type ArithmeticMULGate[T beavy.Uint] struct {
	gateBase
	p      *Provider
	inputA *ArithmeticWire[T]
	inputB *ArithmeticWire[T]
	output *ArithmeticWire[T]

	multSender   *arith.MultiplicationSender[T]
	multReceiver *arith.MultiplicationReceiver[T]
	share        *p2p.Future

	// interactive selects the MUL (broadcast and sum) or MULNI
	// (additive public shares, no exchange) online combine.
	interactive bool

	deltaYShare []T
}

// MakeMULGate creates an arithmetic multiplication gate.
func MakeMULGate[T beavy.Uint](p *Provider, inA, inB *ArithmeticWire[T]) (
	*ArithmeticWire[T], error) {

	return makeMULGate(p, inA, inB, true)
}

// MakeMULNIGate creates a multiplication gate without the online
// interaction: the output wire's public shares are additive shares
// of the product, different at each party, for consumption by an
// output-share downstream.
func MakeMULNIGate[T beavy.Uint](p *Provider, inA, inB *ArithmeticWire[T]) (
	*ArithmeticWire[T], error) {

	return makeMULGate(p, inA, inB, false)
}

func makeMULGate[T beavy.Uint](p *Provider, inA, inB *ArithmeticWire[T],
	interactive bool) (*ArithmeticWire[T], error) {

	if inA.NumSIMD() != inB.NumSIMD() {
		return nil, fmt.Errorf("circuit: MUL SIMD widths differ: %d != %d",
			inA.NumSIMD(), inB.NumSIMD())
	}
	numSIMD := inA.NumSIMD()
	gate := &ArithmeticMULGate[T]{
		gateBase:    gateBase{id: p.reg.NextGateID()},
		p:           p,
		inputA:      inA,
		inputB:      inB,
		output:      NewArithmeticWire[T](numSIMD),
		interactive: interactive,
	}
	var err error
	gate.multSender, err = arith.RegisterMultiplicationSend[T](p.arith,
		numSIMD, 1)
	if err != nil {
		return nil, err
	}
	gate.multReceiver, err = arith.RegisterMultiplicationReceive[T](p.arith,
		numSIMD, 1)
	if err != nil {
		return nil, err
	}
	if interactive {
		gate.share = p.registerWire(gate.id)
	}
	p.reg.Register(gate)
	return gate.output, nil
}

// NeedSetup implements beavy.Gate.
func (g *ArithmeticMULGate[T]) NeedSetup() bool { return true }

// NeedOnline implements beavy.Gate.
func (g *ArithmeticMULGate[T]) NeedOnline() bool { return true }

// EvaluateSetup implements beavy.Gate.
func (g *ArithmeticMULGate[T]) EvaluateSetup() error {
	numSIMD := g.output.NumSIMD()

	secret, err := beavy.RandomVector[T](g.p.rand(), numSIMD)
	if err != nil {
		return err
	}
	g.output.SecretShare = secret
	g.output.SetSetupReady()

	g.inputA.WaitSetup()
	g.inputB.WaitSetup()
	deltaA := g.inputA.SecretShare
	deltaB := g.inputB.SecretShare

	if err := g.multReceiver.SetInputs(deltaA); err != nil {
		return err
	}
	if err := g.multSender.SetInputs(deltaB); err != nil {
		return err
	}

	g.deltaYShare = make([]T, numSIMD)
	for i := range g.deltaYShare {
		g.deltaYShare[i] = deltaA[i] * deltaB[i]
		if g.interactive {
			g.deltaYShare[i] += secret[i]
		}
	}

	if err := g.multReceiver.ComputeOutputs(); err != nil {
		return err
	}
	if err := g.multSender.ComputeOutputs(); err != nil {
		return err
	}
	cross1 := g.multReceiver.GetOutputs()
	cross2 := g.multSender.GetOutputs()
	for i := range g.deltaYShare {
		g.deltaYShare[i] += cross1[i] + cross2[i]
	}
	return nil
}

// EvaluateOnline implements beavy.Gate.
func (g *ArithmeticMULGate[T]) EvaluateOnline() error {
	g.inputA.WaitOnline()
	g.inputB.WaitOnline()
	deltaA := g.inputA.PublicShare
	deltaB := g.inputB.PublicShare
	lambdaA := g.inputA.SecretShare
	lambdaB := g.inputB.SecretShare

	myJob := g.p.isMyJob(g.id)
	for i := range g.deltaYShare {
		g.deltaYShare[i] -= deltaA[i]*lambdaB[i] + deltaB[i]*lambdaA[i]
		if myJob {
			g.deltaYShare[i] += deltaA[i] * deltaB[i]
		}
	}

	if !g.interactive {
		g.output.PublicShare = g.deltaYShare
		g.output.SetOnlineReady()
		return nil
	}

	err := g.p.sendWire(g.id, beavy.UintsToBytes(g.deltaYShare))
	if err != nil {
		return err
	}
	data, err := g.share.Get()
	if err != nil {
		return err
	}
	other := beavy.UintsFromBytes[T](data)
	for i := range g.deltaYShare {
		g.deltaYShare[i] += other[i]
	}
	g.output.PublicShare = g.deltaYShare
	g.output.SetOnlineReady()
	return nil
}

// ArithmeticSQRGate squares a wire. Only one multiplication session
// is needed: the cross term is 2*lambda_a0*lambda_a1, with party 0
// as the session sender.
type ArithmeticSQRGate[T beavy.Uint] struct {
	gateBase
	p      *Provider
	input  *ArithmeticWire[T]
	output *ArithmeticWire[T]

	multSender   *arith.MultiplicationSender[T]
	multReceiver *arith.MultiplicationReceiver[T]
	share        *p2p.Future

	deltaYShare []T
}

// MakeSQRGate creates an arithmetic squaring gate.
func MakeSQRGate[T beavy.Uint](p *Provider, in *ArithmeticWire[T]) (
	*ArithmeticWire[T], error) {

	numSIMD := in.NumSIMD()
	gate := &ArithmeticSQRGate[T]{
		gateBase: gateBase{id: p.reg.NextGateID()},
		p:        p,
		input:    in,
		output:   NewArithmeticWire[T](numSIMD),
	}
	var err error
	if p.cfg.PartyID == 0 {
		gate.multSender, err = arith.RegisterMultiplicationSend[T](p.arith,
			numSIMD, 1)
	} else {
		gate.multReceiver, err = arith.RegisterMultiplicationReceive[T](
			p.arith, numSIMD, 1)
	}
	if err != nil {
		return nil, err
	}
	gate.share = p.registerWire(gate.id)
	p.reg.Register(gate)
	return gate.output, nil
}

// NeedSetup implements beavy.Gate.
func (g *ArithmeticSQRGate[T]) NeedSetup() bool { return true }

// NeedOnline implements beavy.Gate.
func (g *ArithmeticSQRGate[T]) NeedOnline() bool { return true }

// EvaluateSetup implements beavy.Gate.
func (g *ArithmeticSQRGate[T]) EvaluateSetup() error {
	numSIMD := g.output.NumSIMD()

	secret, err := beavy.RandomVector[T](g.p.rand(), numSIMD)
	if err != nil {
		return err
	}
	g.output.SecretShare = secret
	g.output.SetSetupReady()

	g.input.WaitSetup()
	lambdaA := g.input.SecretShare

	var cross []T
	if g.multSender != nil {
		if err := g.multSender.SetInputs(lambdaA); err != nil {
			return err
		}
		if err := g.multSender.ComputeOutputs(); err != nil {
			return err
		}
		cross = g.multSender.GetOutputs()
	} else {
		if err := g.multReceiver.SetInputs(lambdaA); err != nil {
			return err
		}
		if err := g.multReceiver.ComputeOutputs(); err != nil {
			return err
		}
		cross = g.multReceiver.GetOutputs()
	}

	g.deltaYShare = make([]T, numSIMD)
	for i := range g.deltaYShare {
		g.deltaYShare[i] = lambdaA[i]*lambdaA[i] + secret[i] + 2*cross[i]
	}
	return nil
}

// EvaluateOnline implements beavy.Gate.
func (g *ArithmeticSQRGate[T]) EvaluateOnline() error {
	g.input.WaitOnline()
	deltaA := g.input.PublicShare
	lambdaA := g.input.SecretShare

	myJob := g.p.isMyJob(g.id)
	for i := range g.deltaYShare {
		g.deltaYShare[i] -= 2 * deltaA[i] * lambdaA[i]
		if myJob {
			g.deltaYShare[i] += deltaA[i] * deltaA[i]
		}
	}

	err := g.p.sendWire(g.id, beavy.UintsToBytes(g.deltaYShare))
	if err != nil {
		return err
	}
	data, err := g.share.Get()
	if err != nil {
		return err
	}
	other := beavy.UintsFromBytes[T](data)
	for i := range g.deltaYShare {
		g.deltaYShare[i] += other[i]
	}
	g.output.PublicShare = g.deltaYShare
	g.output.SetOnlineReady()
	return nil
}
