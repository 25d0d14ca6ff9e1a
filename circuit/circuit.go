//
// circuit.go
//
// Copyright (c) 2019 Markku Rossi
//
// All rights reserved.
//

// Package circuit implements plaintext boolean circuits, their
// garbled form, and the evaluator that computes a garbled circuit
// against a set of wire labels.
package circuit

import (
	"fmt"

	"github.com/abreen/yaogc/protoerr"
)

// WireID identifies a wire within one circuit. Ids are compared with
// the natural numeric ordering of uint32: gates are processed in
// ascending id order, which doubles as the topological order every
// CircuitSpec must already satisfy.
type WireID uint32

func (w WireID) String() string {
	return fmt.Sprintf("w%d", uint32(w))
}

// GateType enumerates the boolean operators a GateSpec may carry.
type GateType byte

// Gate types.
const (
	NOT GateType = iota
	AND
	OR
	XOR
	NAND
	NOR
	XNOR
)

func (t GateType) String() string {
	switch t {
	case NOT:
		return "NOT"
	case AND:
		return "AND"
	case OR:
		return "OR"
	case XOR:
		return "XOR"
	case NAND:
		return "NAND"
	case NOR:
		return "NOR"
	case XNOR:
		return "XNOR"
	default:
		return fmt.Sprintf("{GateType %d}", t)
	}
}

// NumInputs returns the arity of the gate type: 1 for NOT, 2 for
// every other gate type.
func (t GateType) NumInputs() int {
	if t == NOT {
		return 1
	}
	return 2
}

// Eval applies the gate's boolean operator to its plaintext input
// bits. inputs must have length t.NumInputs().
func (t GateType) Eval(inputs []byte) byte {
	switch t {
	case NOT:
		return inputs[0] ^ 1
	case AND:
		return inputs[0] & inputs[1]
	case OR:
		return inputs[0] | inputs[1]
	case XOR:
		return inputs[0] ^ inputs[1]
	case NAND:
		return (inputs[0] & inputs[1]) ^ 1
	case NOR:
		return (inputs[0] | inputs[1]) ^ 1
	case XNOR:
		return (inputs[0] ^ inputs[1]) ^ 1
	default:
		panic(fmt.Sprintf("circuit: unsupported gate type %s", t))
	}
}

// GateSpec describes one gate of a plaintext circuit.
type GateSpec struct {
	ID     WireID
	Type   GateType
	Inputs []WireID
}

func (g GateSpec) String() string {
	return fmt.Sprintf("%s %v -> %s", g.Type, g.Inputs, g.ID)
}

// CircuitSpec is a plaintext boolean circuit: a set of gates over
// Alice's (the Garbler's) and Bob's (the Evaluator's) input wires,
// naming a subset of gate outputs as the circuit's outputs.
type CircuitSpec struct {
	Name  string
	ID    string
	Gates []GateSpec
	Alice []WireID
	Bob   []WireID
	Out   []WireID
}

// Validate checks the structural invariants a CircuitSpec must
// satisfy: every gate has the right arity for its type, gate ids
// are sorted ascending (so ascending-id order is a valid topological
// order), every gate input refers either to a declared input wire
// or to an earlier gate's output, alice/bob/out are pairwise
// disjoint, and alice ∪ bob covers every wire that is never a gate
// output.
func (c *CircuitSpec) Validate() error {
	defined := make(map[WireID]bool, len(c.Alice)+len(c.Bob))
	for _, w := range c.Alice {
		defined[w] = true
	}
	for _, w := range c.Bob {
		defined[w] = true
	}

	seen := make(map[WireID]bool)
	var lastID WireID
	for i, g := range c.Gates {
		if i > 0 && g.ID <= lastID {
			return c.structErr(fmt.Errorf("gate ids not strictly ascending at %s",
				g.ID))
		}
		lastID = g.ID

		if len(g.Inputs) != g.Type.NumInputs() {
			return c.structErr(fmt.Errorf("gate %s: %s expects %d inputs, got %d",
				g.ID, g.Type, g.Type.NumInputs(), len(g.Inputs)))
		}
		for _, in := range g.Inputs {
			if !defined[in] && !seen[in] {
				return c.structErr(fmt.Errorf("gate %s: input %s not yet defined",
					g.ID, in))
			}
		}
		if defined[g.ID] || seen[g.ID] {
			return c.structErr(fmt.Errorf("wire %s defined more than once", g.ID))
		}
		seen[g.ID] = true
	}

	aliceSet := idSet(c.Alice)
	bobSet := idSet(c.Bob)
	for w := range aliceSet {
		if bobSet[w] {
			return c.structErr(fmt.Errorf("wire %s is in both alice and bob", w))
		}
	}
	for _, w := range c.Out {
		if !seen[w] {
			return c.structErr(fmt.Errorf("output wire %s is not a gate output", w))
		}
	}
	for w := range defined {
		if !aliceSet[w] && !bobSet[w] {
			// unreachable: defined is built from alice/bob only.
			continue
		}
		if seen[w] {
			return c.structErr(fmt.Errorf("wire %s is both an input and a gate output", w))
		}
	}
	return nil
}

func (c *CircuitSpec) structErr(err error) error {
	return protoerr.New(protoerr.CircuitStructure, c.ID, err)
}

func idSet(ids []WireID) map[WireID]bool {
	m := make(map[WireID]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}
