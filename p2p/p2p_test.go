//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"bytes"
	"sync"
	"testing"
)

func TestConnData(t *testing.T) {
	c0, c1 := Pipe()

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		c0.SendUint32(42)
		c0.SendData([]byte("hello"))
		c0.Flush()
	}()

	val, err := c1.ReceiveUint32()
	if err != nil {
		t.Fatal(err)
	}
	if val != 42 {
		t.Errorf("got %d, want 42", val)
	}
	data, err := c1.ReceiveData()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, []byte("hello")) {
		t.Errorf("got %q, want hello", data)
	}
	wg.Wait()
}

func TestMuxRouting(t *testing.T) {
	c0, c1 := Pipe()
	mux := NewMux(c1)

	// Register before arrival.
	f1 := mux.Register(MsgWire, 0, 1)
	// Send two messages; the second is claimed after arrival.
	if err := c0.SendMsg(MsgWire, 0, 1, []byte("one")); err != nil {
		t.Fatal(err)
	}
	if err := c0.SendMsg(MsgOTSender, 0, 7, []byte("two")); err != nil {
		t.Fatal(err)
	}

	data, err := f1.Get()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, []byte("one")) {
		t.Errorf("got %q, want one", data)
	}

	// Stashed message resolves immediately.
	f2 := mux.Register(MsgOTSender, 0, 7)
	data, err = f2.Get()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, []byte("two")) {
		t.Errorf("got %q, want two", data)
	}

	// Sub keys separate messages with the same id.
	fa := mux.Register(MsgWire, 0, 9)
	fb := mux.Register(MsgWire, 1, 9)
	c0.SendMsg(MsgWire, 1, 9, []byte("sub1"))
	c0.SendMsg(MsgWire, 0, 9, []byte("sub0"))
	data, _ = fa.Get()
	if !bytes.Equal(data, []byte("sub0")) {
		t.Errorf("sub 0: got %q", data)
	}
	data, _ = fb.Get()
	if !bytes.Equal(data, []byte("sub1")) {
		t.Errorf("sub 1: got %q", data)
	}
}

func TestMuxClose(t *testing.T) {
	c0, c1 := Pipe()
	mux := NewMux(c1)

	f := mux.Register(MsgWire, 0, 1)
	c0.Close()

	if _, err := f.Get(); err == nil {
		t.Error("expected error from closed transport")
	}
}
