//
// ot.go
//
// Copyright (c) 2019 Markku Rossi
//
// All rights reserved.

// Package ot implements the Bellare-Micali (Naor-Pinkas variant)
// 1-out-of-2 oblivious transfer over a prime-order cyclic group.
package ot

import (
	"fmt"
	"math/big"

	"github.com/abreen/yaogc/group"
	"github.com/abreen/yaogc/protoerr"
	"golang.org/x/crypto/sha3"
)

// IO is the transport one OT instance runs over: whatever the
// Garbler and Evaluator sides are embedded in (a live p2p.Conn, an
// in-memory p2p.Pipe endpoint, ...) must implement it.
type IO interface {
	// SendData writes one length-prefixed byte slice.
	SendData(val []byte) error

	// SendUint32 writes one 4-byte big-endian uint32.
	SendUint32(val int) error

	// Flush pushes any buffered writes out to the peer.
	Flush() error

	// ReceiveData reads one length-prefixed byte slice.
	ReceiveData() ([]byte, error)

	// ReceiveUint32 reads one 4-byte big-endian uint32.
	ReceiveUint32() (int, error)
}

// Garbler drives the Garbler's side of one OT instance: it holds
// two equal-length messages and learns nothing about which one the
// Evaluator selects.
type Garbler struct {
	io IO
}

// NewGarbler returns a Garbler side driver using io as the
// transport for one OT instance.
func NewGarbler(io IO) *Garbler {
	return &Garbler{io: io}
}

// Send runs one Bellare-Micali OT instance, offering m0 and m1 to
// the Evaluator. A fresh PrimeGroup is generated for this instance;
// c and r are never reused across OTs.
func (s *Garbler) Send(m0, m1 []byte) error {
	g, err := group.New(group.PrimeBits)
	if err != nil {
		return err
	}
	if err := sendGroup(s.io, g); err != nil {
		return err
	}
	if err := receiveAck(s.io); err != nil {
		return err
	}

	r, err := g.RandInt()
	if err != nil {
		return err
	}
	c := g.GenPow(r)
	if err := sendBigInt(s.io, c); err != nil {
		return err
	}

	h0, err := receiveBigInt(s.io)
	if err != nil {
		return err
	}
	invH0, err := g.Inv(h0)
	if err != nil {
		return protoerr.New(protoerr.CryptoParam, "", err)
	}
	h1 := g.Mul(c, invH0)

	k, err := g.RandInt()
	if err != nil {
		return err
	}
	c1 := g.GenPow(k)

	e0 := xorBytes(m0, otHash(g.Pow(h0, k), len(m0)))
	e1 := xorBytes(m1, otHash(g.Pow(h1, k), len(m1)))

	if err := sendBigInt(s.io, c1); err != nil {
		return err
	}
	if err := s.io.SendData(e0); err != nil {
		return err
	}
	return s.io.SendData(e1)
}

// Evaluator drives the Evaluator's side of one OT instance: it holds
// a choice bit and, after the exchange, learns exactly the message
// the Garbler sent at that index.
type Evaluator struct {
	io IO
}

// NewEvaluator returns an Evaluator side driver using io as the
// transport for one OT instance.
func NewEvaluator(io IO) *Evaluator {
	return &Evaluator{io: io}
}

// Receive runs one Bellare-Micali OT instance, recovering the
// message at index bit without revealing bit to the Garbler.
func (r *Evaluator) Receive(bit byte) ([]byte, error) {
	g, err := receiveGroup(r.io)
	if err != nil {
		return nil, err
	}
	if err := sendAck(r.io); err != nil {
		return nil, err
	}

	c, err := receiveBigInt(r.io)
	if err != nil {
		return nil, err
	}

	x, err := g.RandInt()
	if err != nil {
		return nil, err
	}
	xPow := g.GenPow(x)
	invXPow, err := g.Inv(xPow)
	if err != nil {
		return nil, protoerr.New(protoerr.CryptoParam, "", err)
	}
	h := [2]*big.Int{xPow, g.Mul(c, invXPow)}

	if bit > 1 {
		return nil, protoerr.New(protoerr.CryptoParam, "",
			fmt.Errorf("ot: choice bit out of range: %d", bit))
	}
	if err := sendBigInt(r.io, h[bit]); err != nil {
		return nil, err
	}

	c1, err := receiveBigInt(r.io)
	if err != nil {
		return nil, err
	}
	e0, err := r.io.ReceiveData()
	if err != nil {
		return nil, err
	}
	e1, err := r.io.ReceiveData()
	if err != nil {
		return nil, err
	}
	e := [2][]byte{e0, e1}

	mask := otHash(g.Pow(c1, x), len(e[bit]))
	return xorBytes(e[bit], mask), nil
}

// otHash is the random-oracle mask function H(x, n): a SHAKE-256
// extendable-output hash of x's big-endian minimal byte encoding,
// truncated to n bytes.
func otHash(x *big.Int, n int) []byte {
	h := sha3.NewShake256()
	h.Write(x.Bytes())
	out := make([]byte, n)
	h.Read(out)
	return out
}

func xorBytes(a, b []byte) []byte {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = a[i] ^ b[i]
	}
	return out
}

func sendBigInt(io IO, x *big.Int) error {
	return io.SendData(x.Bytes())
}

func receiveBigInt(io IO) (*big.Int, error) {
	data, err := io.ReceiveData()
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(data), nil
}

func sendGroup(io IO, g *group.Group) error {
	if err := sendBigInt(io, g.P); err != nil {
		return err
	}
	return sendBigInt(io, g.G)
}

func receiveGroup(io IO) (*group.Group, error) {
	p, err := receiveBigInt(io)
	if err != nil {
		return nil, err
	}
	gen, err := receiveBigInt(io)
	if err != nil {
		return nil, err
	}
	return group.NewFromParams(p, gen), nil
}

func sendAck(io IO) error {
	return io.SendUint32(1)
}

func receiveAck(io IO) error {
	_, err := io.ReceiveUint32()
	return err
}
