//
// table.go
//
// Copyright (c) 2019 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"fmt"
	"io"

	"github.com/markkurossi/tabulate"
)

// PrintGarbledTables prints the p-bits and a clear representation of
// every gate's garbled table: gate id, type, and the row index each
// ciphertext is stored under. The ciphertexts themselves stay
// opaque — this is a debugging aid, not a key-recovery tool.
func PrintGarbledTables(w io.Writer, spec *CircuitSpec, gc *GarbledCircuit) {
	fmt.Fprintf(w, "======== %s ========\n", spec.ID)
	fmt.Fprintf(w, "P-BITS: %v\n", gc.PBits())

	tab := tabulate.New(tabulate.Github)
	tab.Header("Gate")
	tab.Header("Type")
	tab.Header("Row").SetAlign(tabulate.MR)
	tab.Header("Bytes").SetAlign(tabulate.MR)

	for _, g := range spec.Gates {
		row := gc.tables[g.ID]
		for idx, entry := range row.Entries {
			r := tab.Row()
			r.Column(g.ID.String())
			r.Column(g.Type.String())
			r.Column(fmt.Sprintf("%d", idx))
			r.Column(fmt.Sprintf("%d", len(entry)))
		}
	}
	tab.Print(w)
}

// PrintTruthTable evaluates spec over every combination of Alice's
// and Bob's input bits and prints the resulting outputs, the way a
// local run without a transport can show a full truth table rather
// than one input assignment's result.
func PrintTruthTable(w io.Writer, spec *CircuitSpec, gc *GarbledCircuit) error {
	fmt.Fprintf(w, "======== %s ========\n", spec.ID)

	pbitsOut := gc.OutputPBits()
	tables := gc.GarbledTables()
	n := len(spec.Alice) + len(spec.Bob)

	for combo := 0; combo < (1 << uint(n)); combo++ {
		aInputs := make(map[WireID]WireLabel, len(spec.Alice))
		bInputs := make(map[WireID]WireLabel, len(spec.Bob))

		bitsA := make([]byte, len(spec.Alice))
		for i, wire := range spec.Alice {
			b := bitAt(combo, n, i)
			bitsA[i] = b
			aInputs[wire] = gc.Label(wire, b)
		}
		bitsB := make([]byte, len(spec.Bob))
		for i, wire := range spec.Bob {
			b := bitAt(combo, n, len(spec.Alice)+i)
			bitsB[i] = b
			bInputs[wire] = gc.Label(wire, b)
		}

		outputs, err := Evaluate(spec, tables, pbitsOut, aInputs, bInputs)
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "  Alice%v = %s Bob%v = %s  Outputs%v = %s\n",
			spec.Alice, bitsString(bitsA), spec.Bob, bitsString(bitsB),
			spec.Out, outputsString(spec.Out, outputs))
	}
	return nil
}

func bitAt(combo, total, index int) byte {
	shift := uint(total - 1 - index)
	return byte((combo >> shift) & 1)
}

func bitsString(bits []byte) string {
	s := ""
	for i, b := range bits {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%d", b)
	}
	return s
}

func outputsString(order []WireID, outputs map[WireID]byte) string {
	s := ""
	for i, w := range order {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%d", outputs[w])
	}
	return s
}
