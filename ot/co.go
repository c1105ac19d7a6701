//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//
// Chou Orlandi OT - The Simplest Protocol for Oblivious Transfer.
//  - https://eprint.iacr.org/2015/267.pdf

package ot

import (
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"math/big"
)

var (
	_ OT = &CO{}
)

// CO implements CO OT as the OT interface.
type CO struct {
	curve elliptic.Curve
	rand  io.Reader
	io    IO

	// Sender state: secret a and A = aG.
	a  *big.Int
	ax *big.Int
	ay *big.Int

	// Receiver state: sender's public A.
	rax *big.Int
	ray *big.Int
}

// NewCO creates a new CO OT implementing the OT interface.
func NewCO(rand io.Reader) *CO {
	return &CO{
		curve: elliptic.P256(),
		rand:  rand,
	}
}

// InitSender implements OT.InitSender.
func (co *CO) InitSender(io IO) error {
	co.io = io

	curveParams := co.curve.Params()

	// a <- Zp, A = aG
	a, err := rand.Int(co.rand, curveParams.N)
	if err != nil {
		return err
	}
	co.a = a
	co.ax, co.ay = co.curve.ScalarBaseMult(a.Bytes())

	if err := io.SendData(elliptic.Marshal(co.curve, co.ax, co.ay)); err != nil {
		return err
	}
	return io.Flush()
}

// InitReceiver implements OT.InitReceiver.
func (co *CO) InitReceiver(io IO) error {
	co.io = io

	data, err := io.ReceiveData()
	if err != nil {
		return err
	}
	co.rax, co.ray = elliptic.Unmarshal(co.curve, data)
	if co.rax == nil {
		return fmt.Errorf("ot: invalid sender point")
	}
	return nil
}

// Send implements OT.Send.
func (co *CO) Send(wires []Wire) error {
	if co.a == nil {
		return fmt.Errorf("ot: not initialized as sender")
	}
	curveParams := co.curve.Params()

	// A^-1 = {Ax, -Ay}
	aInvY := new(big.Int).Sub(curveParams.P, co.ay)

	for i, wire := range wires {
		// Receive B = bG + cA.
		data, err := co.io.ReceiveData()
		if err != nil {
			return err
		}
		bx, by := elliptic.Unmarshal(co.curve, data)
		if bx == nil {
			return fmt.Errorf("ot: invalid receiver point %d", i)
		}

		// k0 = H(i, aB), k1 = H(i, a(B - A))
		k0x, k0y := co.curve.ScalarMult(bx, by, co.a.Bytes())
		bax, bay := co.curve.Add(bx, by, co.ax, aInvY)
		k1x, k1y := co.curve.ScalarMult(bax, bay, co.a.Bytes())

		e0 := encryptLabel(hashPoint(uint64(i), k0x, k0y), wire.L0)
		e1 := encryptLabel(hashPoint(uint64(i), k1x, k1y), wire.L1)

		if err := co.io.SendData(append(e0, e1...)); err != nil {
			return err
		}
	}
	return co.io.Flush()
}

// Receive implements OT.Receive.
func (co *CO) Receive(flags []bool, result []Label) error {
	if co.rax == nil {
		return fmt.Errorf("ot: not initialized as receiver")
	}
	curveParams := co.curve.Params()

	secrets := make([]*big.Int, len(flags))

	for i, flag := range flags {
		// b <- Zp, B = bG + cA
		b, err := rand.Int(co.rand, curveParams.N)
		if err != nil {
			return err
		}
		secrets[i] = b

		bx, by := co.curve.ScalarBaseMult(b.Bytes())
		if flag {
			bx, by = co.curve.Add(bx, by, co.rax, co.ray)
		}
		if err := co.io.SendData(elliptic.Marshal(co.curve, bx, by)); err != nil {
			return err
		}
	}
	if err := co.io.Flush(); err != nil {
		return err
	}

	for i, flag := range flags {
		data, err := co.io.ReceiveData()
		if err != nil {
			return err
		}
		if len(data) != 32 {
			return fmt.Errorf("ot: invalid sender message %d", i)
		}

		// k = H(i, bA)
		kx, ky := co.curve.ScalarMult(co.rax, co.ray, secrets[i].Bytes())
		key := hashPoint(uint64(i), kx, ky)

		e := data[:16]
		if flag {
			e = data[16:]
		}
		result[i] = decryptLabel(key, e)
	}
	return nil
}

func hashPoint(i uint64, x, y *big.Int) [16]byte {
	h := sha256.New()
	var tweak [8]byte
	binary.BigEndian.PutUint64(tweak[:], i)
	h.Write(tweak[:])
	h.Write(x.Bytes())
	h.Write(y.Bytes())

	var key [16]byte
	copy(key[:], h.Sum(nil))
	return key
}

func encryptLabel(key [16]byte, label Label) []byte {
	var buf LabelData
	label.GetData(&buf)
	out := make([]byte, 16)
	for i := 0; i < 16; i++ {
		out[i] = buf[i] ^ key[i]
	}
	return out
}

func decryptLabel(key [16]byte, data []byte) Label {
	var buf LabelData
	for i := 0; i < 16; i++ {
		buf[i] = data[i] ^ key[i]
	}
	var label Label
	label.SetData(&buf)
	return label
}
