//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package bitvec

import (
	"crypto/rand"
	"testing"
)

func TestGetSet(t *testing.T) {
	bv := New(71)
	for i := 0; i < bv.Size(); i++ {
		if bv.Get(i) {
			t.Fatalf("new vector has bit %d set", i)
		}
	}
	bv.Set(0, true)
	bv.Set(63, true)
	bv.Set(70, true)
	for i := 0; i < bv.Size(); i++ {
		want := i == 0 || i == 63 || i == 70
		if bv.Get(i) != want {
			t.Errorf("bit %d: got %v, want %v", i, bv.Get(i), want)
		}
	}
	bv.Set(63, false)
	if bv.Get(63) {
		t.Error("clearing bit 63 failed")
	}
}

func TestXorAnd(t *testing.T) {
	a, err := Random(rand.Reader, 200)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Random(rand.Reader, 200)
	if err != nil {
		t.Fatal(err)
	}

	x := a.Clone()
	x.Xor(b)
	for i := 0; i < 200; i++ {
		if x.Get(i) != (a.Get(i) != b.Get(i)) {
			t.Fatalf("xor mismatch at %d", i)
		}
	}
	x.Xor(b)
	if !x.Equal(a) {
		t.Error("xor is not an involution")
	}

	y := a.Clone()
	y.And(b)
	for i := 0; i < 200; i++ {
		if y.Get(i) != (a.Get(i) && b.Get(i)) {
			t.Fatalf("and mismatch at %d", i)
		}
	}
}

func TestInvert(t *testing.T) {
	a, err := Random(rand.Reader, 13)
	if err != nil {
		t.Fatal(err)
	}
	b := a.Clone()
	b.Invert()
	for i := 0; i < 13; i++ {
		if a.Get(i) == b.Get(i) {
			t.Fatalf("invert left bit %d unchanged", i)
		}
	}
	// Tail bits beyond the size must stay clear.
	if b.Bytes()[1]&0xe0 != 0 {
		t.Error("invert set tail bits")
	}
}

func TestAppendSubset(t *testing.T) {
	a, err := Random(rand.Reader, 17)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Random(rand.Reader, 23)
	if err != nil {
		t.Fatal(err)
	}
	c := a.Clone()
	c.Append(b)
	if c.Size() != 40 {
		t.Fatalf("append size: got %d, want 40", c.Size())
	}
	if !c.Subset(0, 17).Equal(a) {
		t.Error("prefix does not match first operand")
	}
	if !c.Subset(17, 40).Equal(b) {
		t.Error("suffix does not match second operand")
	}
}

func TestTranspose(t *testing.T) {
	const n = 200

	rows := make([][]byte, Kappa)
	for i := range rows {
		rows[i] = make([]byte, (n+7)/8)
		rand.Read(rows[i])
	}
	cols := TransposeToBlocks(rows, n)
	if len(cols) != n {
		t.Fatalf("got %d columns, want %d", len(cols), n)
	}
	for j := 0; j < n; j++ {
		for i := 0; i < Kappa; i++ {
			rowBit := (rows[i][j/8]>>(j%8))&1 == 1
			if cols[j].Bit(i) != rowBit {
				t.Fatalf("transpose mismatch at row %d col %d", i, j)
			}
		}
	}
}
