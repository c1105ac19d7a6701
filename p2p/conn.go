//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package p2p implements the peer-to-peer connection between the two
// parties: a buffered framed connection, an in-process pipe pair for
// tests, and the message router that delivers typed messages into
// one-shot futures.
package p2p

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// IOStats implements I/O statistics.
type IOStats struct {
	Sent  *atomic.Uint64
	Recvd *atomic.Uint64
}

// NewIOStats creates a new I/O statistics object.
func NewIOStats() IOStats {
	return IOStats{
		Sent:  new(atomic.Uint64),
		Recvd: new(atomic.Uint64),
	}
}

// Add adds the argument stats to this IOStats and returns the sum.
func (stats IOStats) Add(o IOStats) IOStats {
	sum := NewIOStats()
	sum.Sent.Store(stats.Sent.Load() + o.Sent.Load())
	sum.Recvd.Store(stats.Recvd.Load() + o.Recvd.Load())
	return sum
}

// Sum returns sum of sent and received bytes.
func (stats IOStats) Sum() uint64 {
	return stats.Sent.Load() + stats.Recvd.Load()
}

// Conn implements a framed connection between the parties. Writes
// are buffered until Flush. SendMsg is safe for concurrent use;
// everything else must be called from one goroutine at a time.
type Conn struct {
	conn  io.ReadWriter
	out   *bufio.Writer
	in    *bufio.Reader
	Stats IOStats

	writeM sync.Mutex
}

// NewConn creates a new connection around the argument connection.
func NewConn(conn io.ReadWriter) *Conn {
	return &Conn{
		conn:  conn,
		out:   bufio.NewWriterSize(conn, 64*1024),
		in:    bufio.NewReaderSize(conn, 1024*1024),
		Stats: NewIOStats(),
	}
}

// Flush flushes any pending data in the connection.
func (c *Conn) Flush() error {
	return c.out.Flush()
}

// Close flushes any pending data and closes the connection.
func (c *Conn) Close() error {
	if err := c.Flush(); err != nil {
		return err
	}
	closer, ok := c.conn.(io.Closer)
	if ok {
		return closer.Close()
	}
	return nil
}

// SendData sends binary data.
func (c *Conn) SendData(val []byte) error {
	if err := c.SendUint32(len(val)); err != nil {
		return err
	}
	_, err := c.out.Write(val)
	c.Stats.Sent.Add(uint64(len(val)))
	return err
}

// ReceiveData receives binary data.
func (c *Conn) ReceiveData() ([]byte, error) {
	n, err := c.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(c.in, data); err != nil {
		return nil, err
	}
	c.Stats.Recvd.Add(uint64(n))
	return data, nil
}

// SendUint32 sends an uint32 value.
func (c *Conn) SendUint32(val int) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(val))
	_, err := c.out.Write(buf[:])
	c.Stats.Sent.Add(4)
	return err
}

// ReceiveUint32 receives an uint32 value.
func (c *Conn) ReceiveUint32() (int, error) {
	var buf [4]byte
	if _, err := io.ReadFull(c.in, buf[:]); err != nil {
		return 0, err
	}
	c.Stats.Recvd.Add(4)
	return int(binary.BigEndian.Uint32(buf[:])), nil
}

// SendMsg sends a typed message frame. It is safe for concurrent
// use and flushes the connection so the frame is delivered promptly.
func (c *Conn) SendMsg(t MsgType, sub uint8, id uint64, payload []byte) error {
	c.writeM.Lock()
	defer c.writeM.Unlock()

	var hdr [10]byte
	hdr[0] = byte(t)
	hdr[1] = sub
	binary.BigEndian.PutUint64(hdr[2:], id)

	if err := c.SendUint32(len(hdr) + len(payload)); err != nil {
		return err
	}
	if _, err := c.out.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := c.out.Write(payload); err != nil {
		return err
	}
	c.Stats.Sent.Add(uint64(len(hdr) + len(payload)))
	return c.out.Flush()
}

// ReceiveMsg receives a typed message frame. It must be called only
// from the router's receive pump.
func (c *Conn) ReceiveMsg() (MsgType, uint8, uint64, []byte, error) {
	data, err := c.ReceiveData()
	if err != nil {
		return 0, 0, 0, nil, err
	}
	if len(data) < 10 {
		return 0, 0, 0, nil, fmt.Errorf("p2p: short message frame: %d bytes",
			len(data))
	}
	t := MsgType(data[0])
	sub := data[1]
	id := binary.BigEndian.Uint64(data[2:10])
	return t, sub, id, data[10:], nil
}
