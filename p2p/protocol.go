//
// protocol.go
//
// Copyright (c) 2019 Markku Rossi
//
// All rights reserved.
//

// Package p2p implements the length-prefixed, request/reply binary
// framing the protocol driver uses to talk to its peer, whether over
// a real TCP connection or an in-memory Pipe.
package p2p

import (
	"bufio"
	"encoding/binary"
	"io"
)

// DefaultPort is the TCP port the Evaluator listens on by default.
const DefaultPort = 4080

// Conn wraps a byte stream with length-prefixed send/receive
// primitives and running traffic statistics.
type Conn struct {
	closer io.Closer
	io     *bufio.ReadWriter
	Stats  IOStats
}

// IOStats counts bytes sent and received on a Conn.
type IOStats struct {
	Sent  uint64
	Recvd uint64
}

// Sub returns the difference between two IOStats snapshots.
func (stats IOStats) Sub(o IOStats) IOStats {
	return IOStats{
		Sent:  stats.Sent - o.Sent,
		Recvd: stats.Recvd - o.Recvd,
	}
}

// Sum returns the total bytes sent and received.
func (stats IOStats) Sum() uint64 {
	return stats.Sent + stats.Recvd
}

// NewConn wraps conn with length-prefixed framing.
func NewConn(conn io.ReadWriter) *Conn {
	closer, _ := conn.(io.Closer)

	return &Conn{
		closer: closer,
		io: bufio.NewReadWriter(bufio.NewReader(conn),
			bufio.NewWriter(conn)),
	}
}

// Flush flushes any pending buffered writes.
func (c *Conn) Flush() error {
	return c.io.Flush()
}

// Close flushes and closes the underlying connection.
func (c *Conn) Close() error {
	if err := c.Flush(); err != nil {
		return err
	}
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// SendUint32 sends val as a 4-byte big-endian integer.
func (c *Conn) SendUint32(val int) error {
	err := binary.Write(c.io, binary.BigEndian, uint32(val))
	if err != nil {
		return err
	}
	c.Stats.Sent += 4
	return c.Flush()
}

// SendData sends val as a length-prefixed byte string.
func (c *Conn) SendData(val []byte) error {
	if err := c.SendUint32(len(val)); err != nil {
		return err
	}
	_, err := c.io.Write(val)
	if err != nil {
		return err
	}
	c.Stats.Sent += uint64(len(val))
	return c.Flush()
}

// SendBool sends a single boolean byte, used for handshake
// acknowledgements.
func (c *Conn) SendBool(val bool) error {
	var b byte
	if val {
		b = 1
	}
	return c.SendData([]byte{b})
}

// ReceiveUint32 receives a 4-byte big-endian integer.
func (c *Conn) ReceiveUint32() (int, error) {
	var buf [4]byte

	_, err := io.ReadFull(c.io, buf[:])
	if err != nil {
		return 0, err
	}
	c.Stats.Recvd += 4

	return int(binary.BigEndian.Uint32(buf[:])), nil
}

// ReceiveData receives a length-prefixed byte string.
func (c *Conn) ReceiveData() ([]byte, error) {
	length, err := c.ReceiveUint32()
	if err != nil {
		return nil, err
	}

	result := make([]byte, length)
	_, err = io.ReadFull(c.io, result)
	if err != nil {
		return nil, err
	}
	c.Stats.Recvd += uint64(length)

	return result, nil
}

// ReceiveBool receives a single boolean byte sent by SendBool.
func (c *Conn) ReceiveBool() (bool, error) {
	data, err := c.ReceiveData()
	if err != nil {
		return false, err
	}
	if len(data) != 1 {
		return false, io.ErrUnexpectedEOF
	}
	return data[0] != 0, nil
}
