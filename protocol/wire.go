//
// wire.go
//
// Copyright (c) 2019 Markku Rossi
//
// All rights reserved.
//

// Package protocol implements the Garbler-side and Evaluator-side
// message exchange described by the protocol driver: the circuit
// structure, garbled tables, and output p-bits are sent as three
// acknowledged handshakes; the Garbler's own input labels follow in
// clear; then one oblivious transfer runs per Evaluator input wire.
package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/abreen/yaogc/circuit"
	"github.com/abreen/yaogc/p2p"
	"github.com/abreen/yaogc/protoerr"
	"github.com/abreen/yaogc/symcrypt"
)

// conn is the subset of *p2p.Conn this package depends on, so tests
// can run over p2p.Pipe() just as well as a real p2p.Conn.
type conn interface {
	SendUint32(int) error
	SendData([]byte) error
	SendBool(bool) error
	ReceiveUint32() (int, error)
	ReceiveData() ([]byte, error)
	ReceiveBool() (bool, error)
	Flush() error
}

var _ conn = (*p2p.Conn)(nil)

func sendWireIDs(c conn, ids []circuit.WireID) error {
	buf := make([]byte, 4*len(ids))
	for i, id := range ids {
		binary.BigEndian.PutUint32(buf[i*4:], uint32(id))
	}
	return c.SendData(buf)
}

func receiveWireIDs(c conn) ([]circuit.WireID, error) {
	data, err := c.ReceiveData()
	if err != nil {
		return nil, err
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("protocol: malformed wire id list (%d bytes)", len(data))
	}
	ids := make([]circuit.WireID, len(data)/4)
	for i := range ids {
		ids[i] = circuit.WireID(binary.BigEndian.Uint32(data[i*4:]))
	}
	return ids, nil
}

// sendCircuitStructure sends the circuit's structure (no secret
// data): name, id, gates, and the alice/bob/out wire sets.
func sendCircuitStructure(c conn, spec *circuit.CircuitSpec) error {
	if err := c.SendData([]byte(spec.Name)); err != nil {
		return err
	}
	if err := c.SendData([]byte(spec.ID)); err != nil {
		return err
	}
	if err := c.SendUint32(len(spec.Gates)); err != nil {
		return err
	}
	for _, g := range spec.Gates {
		if err := c.SendUint32(int(g.ID)); err != nil {
			return err
		}
		if err := c.SendUint32(int(g.Type)); err != nil {
			return err
		}
		if err := sendWireIDs(c, g.Inputs); err != nil {
			return err
		}
	}
	if err := sendWireIDs(c, spec.Alice); err != nil {
		return err
	}
	if err := sendWireIDs(c, spec.Bob); err != nil {
		return err
	}
	return sendWireIDs(c, spec.Out)
}

func receiveCircuitStructure(c conn) (*circuit.CircuitSpec, error) {
	name, err := c.ReceiveData()
	if err != nil {
		return nil, err
	}
	id, err := c.ReceiveData()
	if err != nil {
		return nil, err
	}
	numGates, err := c.ReceiveUint32()
	if err != nil {
		return nil, err
	}

	gates := make([]circuit.GateSpec, numGates)
	for i := 0; i < numGates; i++ {
		gid, err := c.ReceiveUint32()
		if err != nil {
			return nil, err
		}
		gtype, err := c.ReceiveUint32()
		if err != nil {
			return nil, err
		}
		inputs, err := receiveWireIDs(c)
		if err != nil {
			return nil, err
		}
		gates[i] = circuit.GateSpec{
			ID:     circuit.WireID(gid),
			Type:   circuit.GateType(gtype),
			Inputs: inputs,
		}
	}

	alice, err := receiveWireIDs(c)
	if err != nil {
		return nil, err
	}
	bob, err := receiveWireIDs(c)
	if err != nil {
		return nil, err
	}
	out, err := receiveWireIDs(c)
	if err != nil {
		return nil, err
	}

	spec := &circuit.CircuitSpec{
		Name:  string(name),
		ID:    string(id),
		Gates: gates,
		Alice: alice,
		Bob:   bob,
		Out:   out,
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// sendGarbledTables sends every gate's GarbledRow, keyed by gate id
// in spec.Gates order so the receiver does not need to know the
// table's map iteration order.
func sendGarbledTables(c conn, spec *circuit.CircuitSpec, tables circuit.GarbledTable) error {
	if err := c.SendUint32(len(spec.Gates)); err != nil {
		return err
	}
	for _, g := range spec.Gates {
		row, ok := tables[g.ID]
		if !ok {
			return protoerr.New(protoerr.CircuitStructure, spec.ID,
				fmt.Errorf("missing garbled table for gate %s", g.ID))
		}
		if err := c.SendUint32(int(g.ID)); err != nil {
			return err
		}
		if err := c.SendUint32(len(row.Entries)); err != nil {
			return err
		}
		for _, entry := range row.Entries {
			if err := c.SendData(entry); err != nil {
				return err
			}
		}
	}
	return nil
}

func receiveGarbledTables(c conn, spec *circuit.CircuitSpec) (circuit.GarbledTable, error) {
	numGates, err := c.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	if numGates != len(spec.Gates) {
		return nil, protoerr.New(protoerr.CircuitStructure, spec.ID,
			fmt.Errorf("garbled table gate count mismatch: got %d, want %d",
				numGates, len(spec.Gates)))
	}

	tables := make(circuit.GarbledTable, numGates)
	for i := 0; i < numGates; i++ {
		gid, err := c.ReceiveUint32()
		if err != nil {
			return nil, err
		}
		numEntries, err := c.ReceiveUint32()
		if err != nil {
			return nil, err
		}
		entries := make([][]byte, numEntries)
		for j := range entries {
			entries[j], err = c.ReceiveData()
			if err != nil {
				return nil, err
			}
		}
		tables[circuit.WireID(gid)] = &circuit.GarbledRow{Entries: entries}
	}
	return tables, nil
}

// sendPBitsOut sends the p-bits restricted to spec's output wires.
func sendPBitsOut(c conn, spec *circuit.CircuitSpec, pbitsOut map[circuit.WireID]byte) error {
	if err := c.SendUint32(len(spec.Out)); err != nil {
		return err
	}
	for _, w := range spec.Out {
		if err := c.SendUint32(int(w)); err != nil {
			return err
		}
		if err := c.SendData([]byte{pbitsOut[w]}); err != nil {
			return err
		}
	}
	return nil
}

func receivePBitsOut(c conn) (map[circuit.WireID]byte, error) {
	n, err := c.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	pbits := make(map[circuit.WireID]byte, n)
	for i := 0; i < n; i++ {
		wid, err := c.ReceiveUint32()
		if err != nil {
			return nil, err
		}
		b, err := c.ReceiveData()
		if err != nil {
			return nil, err
		}
		if len(b) != 1 {
			return nil, fmt.Errorf("protocol: malformed pbit for wire %d", wid)
		}
		pbits[circuit.WireID(wid)] = b[0]
	}
	return pbits, nil
}

// sendLabel sends a WireLabel as a fixed (KeyBytes[32], encr_bit
// byte) payload.
func sendLabel(c conn, lbl circuit.WireLabel) error {
	buf := make([]byte, symcrypt.KeySize+1)
	copy(buf, lbl.Key[:])
	buf[symcrypt.KeySize] = lbl.EncrBit
	return c.SendData(buf)
}

func receiveLabel(c conn) (circuit.WireLabel, error) {
	data, err := c.ReceiveData()
	if err != nil {
		return circuit.WireLabel{}, err
	}
	if len(data) != symcrypt.KeySize+1 {
		return circuit.WireLabel{}, fmt.Errorf(
			"protocol: malformed label payload (%d bytes)", len(data))
	}
	var lbl circuit.WireLabel
	copy(lbl.Key[:], data[:symcrypt.KeySize])
	lbl.EncrBit = data[symcrypt.KeySize]
	return lbl, nil
}

// sendAInputs sends the Garbler's own input labels in clear: for
// each Garbler input wire, a single correct WireLabel.
func sendAInputs(c conn, spec *circuit.CircuitSpec, aInputs map[circuit.WireID]circuit.WireLabel) error {
	if err := c.SendUint32(len(spec.Alice)); err != nil {
		return err
	}
	for _, w := range spec.Alice {
		if err := c.SendUint32(int(w)); err != nil {
			return err
		}
		if err := sendLabel(c, aInputs[w]); err != nil {
			return err
		}
	}
	return nil
}

func receiveAInputs(c conn) (map[circuit.WireID]circuit.WireLabel, error) {
	n, err := c.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	inputs := make(map[circuit.WireID]circuit.WireLabel, n)
	for i := 0; i < n; i++ {
		wid, err := c.ReceiveUint32()
		if err != nil {
			return nil, err
		}
		lbl, err := receiveLabel(c)
		if err != nil {
			return nil, err
		}
		inputs[circuit.WireID(wid)] = lbl
	}
	return inputs, nil
}

// sendOutputs sends the final output-bit mapping, in spec.Out order.
func sendOutputs(c conn, spec *circuit.CircuitSpec, outputs map[circuit.WireID]byte) error {
	for _, w := range spec.Out {
		if err := c.SendData([]byte{outputs[w]}); err != nil {
			return err
		}
	}
	return nil
}

func receiveOutputs(c conn, spec *circuit.CircuitSpec) (map[circuit.WireID]byte, error) {
	outputs := make(map[circuit.WireID]byte, len(spec.Out))
	for _, w := range spec.Out {
		b, err := c.ReceiveData()
		if err != nil {
			return nil, err
		}
		if len(b) != 1 {
			return nil, fmt.Errorf("protocol: malformed output bit for wire %s", w)
		}
		outputs[w] = b[0]
	}
	return outputs, nil
}
