//
// eval.go
//
// Copyright (c) 2019 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"fmt"

	"github.com/abreen/yaogc/protoerr"
	"github.com/abreen/yaogc/symcrypt"
)

// Evaluate walks spec's gates in ascending gate-id order — which
// must be a topological order, a contract imposed on circuit
// authoring — decrypting one GarbledRow entry per gate using the
// labels already known for its input wires, and recovers the output
// bits named by spec.Out.
//
// aInputs and bInputs seed the wire_labels map: aInputs holds the
// Garbler's own input labels sent in clear, bInputs holds the labels
// the Evaluator obtained via oblivious transfer. No partial result is
// ever returned: any error aborts evaluation before producing output.
func Evaluate(
	spec *CircuitSpec,
	tables GarbledTable,
	pbitsOut map[WireID]byte,
	aInputs, bInputs map[WireID]WireLabel,
) (map[WireID]byte, error) {
	labels := make(map[WireID]WireLabel, len(aInputs)+len(bInputs)+len(spec.Gates))
	for w, l := range aInputs {
		labels[w] = l
	}
	for w, l := range bInputs {
		labels[w] = l
	}

	for _, g := range spec.Gates {
		row, ok := tables[g.ID]
		if !ok {
			return nil, protoerr.New(protoerr.CircuitStructure, spec.ID,
				fmt.Errorf("gate %s: no garbled table entry", g.ID))
		}

		lbl, err := evalGate(spec.ID, g, row, labels)
		if err != nil {
			return nil, err
		}
		labels[g.ID] = lbl

		if verbose {
			fmt.Printf("eval %s: encr_bit=%d\n", g.ID, lbl.EncrBit)
		}
	}

	outputs := make(map[WireID]byte, len(spec.Out))
	for _, w := range spec.Out {
		lbl, ok := labels[w]
		if !ok {
			return nil, protoerr.New(protoerr.CircuitStructure, spec.ID,
				fmt.Errorf("output wire %s never labelled", w))
		}
		pbit, ok := pbitsOut[w]
		if !ok {
			return nil, protoerr.New(protoerr.CircuitStructure, spec.ID,
				fmt.Errorf("output wire %s has no pbits_out entry", w))
		}
		outputs[w] = lbl.EncrBit ^ pbit
	}
	return outputs, nil
}

func evalGate(circuitID string, g GateSpec, row *GarbledRow, labels map[WireID]WireLabel) (WireLabel, error) {
	switch g.Type.NumInputs() {
	case 1:
		return evalUnaryGate(circuitID, g, row, labels)
	case 2:
		return evalBinaryGate(circuitID, g, row, labels)
	default:
		return WireLabel{}, protoerr.New(protoerr.CircuitStructure, circuitID,
			fmt.Errorf("gate %s: unsupported gate type %s", g.ID, g.Type))
	}
}

func evalUnaryGate(circuitID string, g GateSpec, row *GarbledRow, labels map[WireID]WireLabel) (WireLabel, error) {
	a := g.Inputs[0]
	la, ok := labels[a]
	if !ok {
		return WireLabel{}, unresolvedErr(circuitID, g, a)
	}
	if int(la.EncrBit) >= len(row.Entries) {
		return WireLabel{}, integrityErr(circuitID, g)
	}

	payload, err := symcrypt.Open(la.Key, row.Entries[la.EncrBit])
	if err != nil {
		return WireLabel{}, decryptErr(circuitID, g, err)
	}
	return decodeLabel(payload)
}

func evalBinaryGate(circuitID string, g GateSpec, row *GarbledRow, labels map[WireID]WireLabel) (WireLabel, error) {
	a, b := g.Inputs[0], g.Inputs[1]
	la, ok := labels[a]
	if !ok {
		return WireLabel{}, unresolvedErr(circuitID, g, a)
	}
	lb, ok := labels[b]
	if !ok {
		return WireLabel{}, unresolvedErr(circuitID, g, b)
	}

	idx := int(la.EncrBit)<<1 | int(lb.EncrBit)
	if idx >= len(row.Entries) {
		return WireLabel{}, integrityErr(circuitID, g)
	}

	// Outer layer a, inner layer b: the Evaluator must decrypt with
	// ka first, then kb.
	inner, err := symcrypt.Open(la.Key, row.Entries[idx])
	if err != nil {
		return WireLabel{}, decryptErr(circuitID, g, err)
	}
	payload, err := symcrypt.Open(lb.Key, inner)
	if err != nil {
		return WireLabel{}, decryptErr(circuitID, g, err)
	}
	return decodeLabel(payload)
}

func unresolvedErr(circuitID string, g GateSpec, w WireID) error {
	return protoerr.New(protoerr.UnresolvedWire, circuitID,
		fmt.Errorf("gate %s: wire %s not yet labelled", g.ID, w))
}

func integrityErr(circuitID string, g GateSpec) error {
	return protoerr.New(protoerr.CircuitStructure, circuitID,
		fmt.Errorf("gate %s: row index out of range", g.ID))
}

func decryptErr(circuitID string, g GateSpec, cause error) error {
	return protoerr.New(protoerr.DecryptFailure, circuitID,
		fmt.Errorf("gate %s: %w", g.ID, cause))
}
