//
// garble.go
//
// Copyright (c) 2019 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"crypto/rand"
	"fmt"

	"github.com/abreen/yaogc/protoerr"
	"github.com/abreen/yaogc/symcrypt"
)

// verbose gates the per-gate debug traces Garble/Evaluate print,
// set from the CLI's log-level flag.
var verbose bool

// SetVerbose enables or disables per-gate debug tracing.
func SetVerbose(v bool) {
	verbose = v
}

// KeyPair holds the two wire keys (k0, k1) generated for one wire at
// garbling time. There is no order relation between the two beyond
// their index.
type KeyPair [2]symcrypt.Key

// WireLabel is the pair (key, encrypted bit) carried along a wire
// during evaluation.
type WireLabel struct {
	Key     symcrypt.Key
	EncrBit byte
}

// GarbledRow is one gate's encrypted truth table, indexed directly
// by the row's permuted input bits so the Evaluator never needs
// trial decryption. A two-input gate has 4 entries indexed by
// ea<<1|eb; a NOT gate has 2 entries indexed by e.
type GarbledRow struct {
	Entries [][]byte
}

// GarbledTable maps a gate's output wire id to that gate's
// GarbledRow.
type GarbledTable map[WireID]*GarbledRow

// GarbledCircuit is the complete garbled form of a CircuitSpec: one
// KeyPair and one PBit per wire, and one GarbledRow per gate.
//
// Keys and pbits are the Garbler's secrets; GarbledTables() is what
// gets transmitted to the Evaluator.
type GarbledCircuit struct {
	spec   *CircuitSpec
	pbits  map[WireID]byte
	keys   map[WireID]KeyPair
	tables GarbledTable
}

// Garble constructs a GarbledCircuit for spec, drawing fresh
// uniformly random keys and p-bits for every wire.
func Garble(spec *CircuitSpec) (*GarbledCircuit, error) {
	pbits, err := randomPBits(spec)
	if err != nil {
		return nil, err
	}
	return GarbleWithPBits(spec, pbits)
}

// GarbleWithPBits constructs a GarbledCircuit using caller-supplied
// p-bits, for deterministic/testable garbling. Keys are still drawn
// fresh.
func GarbleWithPBits(spec *CircuitSpec, pbits map[WireID]byte) (*GarbledCircuit, error) {
	keys, err := randomKeys(spec)
	if err != nil {
		return nil, err
	}

	tables := make(GarbledTable, len(spec.Gates))
	for _, g := range spec.Gates {
		row, err := garbleGate(g, keys, pbits)
		if err != nil {
			return nil, err
		}
		tables[g.ID] = row
		if verbose {
			fmt.Printf("garble %s: %d row(s)\n", g.ID, len(row.Entries))
		}
	}

	return &GarbledCircuit{
		spec:   spec,
		pbits:  pbits,
		keys:   keys,
		tables: tables,
	}, nil
}

// PBits returns the per-wire point-and-permute bits. Garbler-only.
func (gc *GarbledCircuit) PBits() map[WireID]byte {
	return gc.pbits
}

// GarbledTables returns the per-gate encrypted truth tables. This is
// the value transmitted to the Evaluator.
func (gc *GarbledCircuit) GarbledTables() GarbledTable {
	return gc.tables
}

// Keys returns the per-wire key pairs. Garbler-only; must never be
// transmitted in its entirety.
func (gc *GarbledCircuit) Keys() map[WireID]KeyPair {
	return gc.keys
}

// OutputPBits returns the p-bits restricted to the circuit's output
// wires, the pbits_out value the protocol driver transmits.
func (gc *GarbledCircuit) OutputPBits() map[WireID]byte {
	out := make(map[WireID]byte, len(gc.spec.Out))
	for _, w := range gc.spec.Out {
		out[w] = gc.pbits[w]
	}
	return out
}

// Label returns the WireLabel carrying true bit v on wire w: the key
// keys(w)[v] and the permuted bit v XOR pbit(w).
func (gc *GarbledCircuit) Label(w WireID, v byte) WireLabel {
	kp := gc.keys[w]
	return WireLabel{
		Key:     kp[v&1],
		EncrBit: v ^ gc.pbits[w],
	}
}

func randomPBits(spec *CircuitSpec) (map[WireID]byte, error) {
	pbits := make(map[WireID]byte, len(spec.Alice)+len(spec.Bob)+len(spec.Gates))
	for _, w := range allWires(spec) {
		b, err := randBit()
		if err != nil {
			return nil, err
		}
		pbits[w] = b
	}
	return pbits, nil
}

func randomKeys(spec *CircuitSpec) (map[WireID]KeyPair, error) {
	keys := make(map[WireID]KeyPair, len(spec.Alice)+len(spec.Bob)+len(spec.Gates))
	for _, w := range allWires(spec) {
		k0, err := symcrypt.GenerateKey()
		if err != nil {
			return nil, err
		}
		k1, err := symcrypt.GenerateKey()
		if err != nil {
			return nil, err
		}
		keys[w] = KeyPair{k0, k1}
	}
	return keys, nil
}

// allWires enumerates every wire referenced by the circuit: every
// declared input and every gate output.
func allWires(spec *CircuitSpec) []WireID {
	var wires []WireID
	wires = append(wires, spec.Alice...)
	wires = append(wires, spec.Bob...)
	for _, g := range spec.Gates {
		wires = append(wires, g.ID)
	}
	return wires
}

func randBit() (byte, error) {
	var b [1]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return b[0] & 1, nil
}

// garbleGate builds one gate's GarbledRow. For a two-input gate with
// inputs a, b and output c, every (ea, eb) in {0,1}^2 is processed:
// the plaintext input bits are recovered via the p-bits, the gate's
// boolean operator is applied, the output is permuted by pbit(c),
// and the resulting (key, encrypted bit) payload is wrapped with
// enc(ka, enc(kb, payload)) — outer layer a, inner layer b.
func garbleGate(g GateSpec, keys map[WireID]KeyPair, pbits map[WireID]byte) (*GarbledRow, error) {
	for _, w := range append([]WireID{g.ID}, g.Inputs...) {
		if _, ok := pbits[w]; !ok {
			return nil, missingWireErr(g, w)
		}
	}
	switch g.Type.NumInputs() {
	case 1:
		return garbleUnaryGate(g, keys, pbits)
	case 2:
		return garbleBinaryGate(g, keys, pbits)
	default:
		return nil, protoerr.New(protoerr.CircuitStructure, "",
			fmt.Errorf("gate %s: unsupported gate type %s", g.ID, g.Type))
	}
}

func garbleUnaryGate(g GateSpec, keys map[WireID]KeyPair, pbits map[WireID]byte) (*GarbledRow, error) {
	a := g.Inputs[0]
	c := g.ID

	ka, ok := keys[a]
	if !ok {
		return nil, missingWireErr(g, a)
	}
	kc, ok := keys[c]
	if !ok {
		return nil, missingWireErr(g, c)
	}

	row := &GarbledRow{Entries: make([][]byte, 2)}
	for ea := byte(0); ea < 2; ea++ {
		ba := ea ^ pbits[a]
		bc := g.Type.Eval([]byte{ba})
		ec := bc ^ pbits[c]

		payload := encodeLabel(kc[bc], ec)
		row.Entries[ea] = symcrypt.Seal(ka[ba], payload)
	}
	return row, nil
}

func garbleBinaryGate(g GateSpec, keys map[WireID]KeyPair, pbits map[WireID]byte) (*GarbledRow, error) {
	a, b := g.Inputs[0], g.Inputs[1]
	c := g.ID

	ka, ok := keys[a]
	if !ok {
		return nil, missingWireErr(g, a)
	}
	kb, ok := keys[b]
	if !ok {
		return nil, missingWireErr(g, b)
	}
	kc, ok := keys[c]
	if !ok {
		return nil, missingWireErr(g, c)
	}

	row := &GarbledRow{Entries: make([][]byte, 4)}
	for ea := byte(0); ea < 2; ea++ {
		for eb := byte(0); eb < 2; eb++ {
			ba := ea ^ pbits[a]
			bb := eb ^ pbits[b]
			bc := g.Type.Eval([]byte{ba, bb})
			ec := bc ^ pbits[c]

			payload := encodeLabel(kc[bc], ec)
			inner := symcrypt.Seal(kb[bb], payload)
			outer := symcrypt.Seal(ka[ba], inner)
			row.Entries[ea<<1|eb] = outer
		}
	}
	return row, nil
}

func missingWireErr(g GateSpec, w WireID) error {
	return protoerr.New(protoerr.CircuitStructure, "",
		fmt.Errorf("gate %s: missing key/pbit for wire %s", g.ID, w))
}

// encodeLabel lays out the fixed (KeyBytes[32], encr_bit byte)
// payload a garbled row entry carries.
func encodeLabel(k symcrypt.Key, encrBit byte) []byte {
	buf := make([]byte, symcrypt.KeySize+1)
	copy(buf, k[:])
	buf[symcrypt.KeySize] = encrBit
	return buf
}

// decodeLabel parses the fixed-layout payload encodeLabel produces.
func decodeLabel(data []byte) (WireLabel, error) {
	if len(data) != symcrypt.KeySize+1 {
		return WireLabel{}, protoerr.New(protoerr.DecryptFailure, "",
			fmt.Errorf("malformed label payload: %d bytes", len(data)))
	}
	var lbl WireLabel
	copy(lbl.Key[:], data[:symcrypt.KeySize])
	lbl.EncrBit = data[symcrypt.KeySize]
	return lbl, nil
}
