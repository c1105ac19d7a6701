//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"fmt"
	"sync"
)

// MsgType identifies the inter-party message types routed by the
// Mux.
type MsgType uint8

// Message types.
const (
	// MsgWire carries a gate's online message (public shares or
	// share contributions), keyed by gate id.
	MsgWire MsgType = iota + 1

	// MsgOTMasks carries one row of the OT-extension receiver's
	// expanded bit matrix, keyed by row index.
	MsgOTMasks

	// MsgOTCorrections carries an OT-extension batch's correction
	// bits, keyed by batch id.
	MsgOTCorrections

	// MsgOTSender carries an OT-extension batch's sender message,
	// keyed by batch id.
	MsgOTSender

	// MsgSync is the synchronization fence.
	MsgSync
)

var msgTypeNames = map[MsgType]string{
	MsgWire:          "wire",
	MsgOTMasks:       "ot-masks",
	MsgOTCorrections: "ot-corrections",
	MsgOTSender:      "ot-sender",
	MsgSync:          "sync",
}

func (t MsgType) String() string {
	name, ok := msgTypeNames[t]
	if ok {
		return name
	}
	return fmt.Sprintf("{MsgType %d}", uint8(t))
}

type msgKey struct {
	t   MsgType
	sub uint8
	id  uint64
}

// Future resolves to a message payload delivered by the Mux.
type Future struct {
	mux  *Mux
	ch   chan []byte
	once sync.Once
	data []byte
	err  error
}

// Get blocks until the message has been delivered. The resolved
// value is cached, so Get may be called multiple times.
func (f *Future) Get() ([]byte, error) {
	f.once.Do(func() {
		data, ok := <-f.ch
		if !ok {
			f.err = f.mux.err()
			return
		}
		f.data = data
	})
	return f.data, f.err
}

// Mux routes incoming message frames into one-shot futures keyed by
// (type, sub, id). Messages may arrive before or after registration;
// unclaimed messages are stashed. The receive pump runs in its own
// goroutine; a transport error fails every pending and future
// registration.
type Mux struct {
	conn *Conn

	m       sync.Mutex
	futures map[msgKey]*Future
	stash   map[msgKey][]byte
	closed  bool
	pumpErr error
}

// NewMux creates a message router on the connection and starts its
// receive pump.
func NewMux(conn *Conn) *Mux {
	mux := &Mux{
		conn:    conn,
		futures: make(map[msgKey]*Future),
		stash:   make(map[msgKey][]byte),
	}
	go mux.pump()
	return mux
}

func (mux *Mux) pump() {
	for {
		t, sub, id, payload, err := mux.conn.ReceiveMsg()
		if err != nil {
			mux.close(err)
			return
		}
		mux.deliver(msgKey{t: t, sub: sub, id: id}, payload)
	}
}

func (mux *Mux) deliver(key msgKey, payload []byte) {
	mux.m.Lock()
	defer mux.m.Unlock()

	if mux.closed {
		return
	}
	future, ok := mux.futures[key]
	if ok {
		delete(mux.futures, key)
		future.ch <- payload
		close(future.ch)
		return
	}
	if _, ok := mux.stash[key]; ok {
		// Duplicate message for an unclaimed key.
		mux.closeLocked(fmt.Errorf("p2p: duplicate %v message id %d",
			key.t, key.id))
		return
	}
	mux.stash[key] = payload
}

// Register registers a one-shot future for the message (t, sub, id).
// Registering the same key twice while the first registration is
// still pending is a programming error.
func (mux *Mux) Register(t MsgType, sub uint8, id uint64) *Future {
	key := msgKey{t: t, sub: sub, id: id}
	future := &Future{
		mux: mux,
		ch:  make(chan []byte, 1),
	}

	mux.m.Lock()
	defer mux.m.Unlock()

	if mux.closed {
		close(future.ch)
		return future
	}
	if payload, ok := mux.stash[key]; ok {
		delete(mux.stash, key)
		future.ch <- payload
		close(future.ch)
		return future
	}
	if _, ok := mux.futures[key]; ok {
		panic(fmt.Sprintf("p2p: duplicate registration for %v id %d",
			t, id))
	}
	mux.futures[key] = future
	return future
}

// close fails all pending futures.
func (mux *Mux) close(err error) {
	mux.m.Lock()
	defer mux.m.Unlock()
	mux.closeLocked(err)
}

func (mux *Mux) closeLocked(err error) {
	if mux.closed {
		return
	}
	mux.closed = true
	mux.pumpErr = err
	for key, future := range mux.futures {
		delete(mux.futures, key)
		close(future.ch)
	}
}

func (mux *Mux) err() error {
	mux.m.Lock()
	defer mux.m.Unlock()
	if mux.pumpErr != nil {
		return mux.pumpErr
	}
	return fmt.Errorf("p2p: message router closed")
}
