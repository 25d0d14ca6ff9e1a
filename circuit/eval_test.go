//
// eval_test.go
//
// Copyright (c) 2019 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"testing"

	"github.com/abreen/yaogc/symcrypt"
)

// runProtocol garbles spec, builds input labels for the given
// Alice/Bob bit assignments directly (bypassing transport and OT,
// exactly like the "local" test driver), and evaluates.
func runProtocol(t *testing.T, spec *CircuitSpec, alice, bob map[WireID]byte) map[WireID]byte {
	t.Helper()

	gc, err := Garble(spec)
	if err != nil {
		t.Fatalf("Garble failed: %v", err)
	}

	aInputs := make(map[WireID]WireLabel, len(alice))
	for w, v := range alice {
		aInputs[w] = gc.Label(w, v)
	}
	bInputs := make(map[WireID]WireLabel, len(bob))
	for w, v := range bob {
		bInputs[w] = gc.Label(w, v)
	}

	outputs, err := Evaluate(spec, gc.GarbledTables(), gc.OutputPBits(), aInputs, bInputs)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	return outputs
}

func identityNotSpec() *CircuitSpec {
	return &CircuitSpec{
		Name:  "identity-not",
		ID:    "identity-not",
		Alice: []WireID{1},
		Gates: []GateSpec{
			{ID: 2, Type: NOT, Inputs: []WireID{1}},
		},
		Out: []WireID{2},
	}
}

func TestIdentityNot(t *testing.T) {
	spec := identityNotSpec()

	out := runProtocol(t, spec, map[WireID]byte{1: 0}, nil)
	if out[2] != 1 {
		t.Errorf("NOT(0): got %d, want 1", out[2])
	}

	out = runProtocol(t, spec, map[WireID]byte{1: 1}, nil)
	if out[2] != 0 {
		t.Errorf("NOT(1): got %d, want 0", out[2])
	}
}

func and2Spec() *CircuitSpec {
	return &CircuitSpec{
		Name:  "and-2",
		ID:    "and-2",
		Alice: []WireID{1},
		Bob:   []WireID{2},
		Gates: []GateSpec{
			{ID: 3, Type: AND, Inputs: []WireID{1, 2}},
		},
		Out: []WireID{3},
	}
}

func xor2Spec() *CircuitSpec {
	return &CircuitSpec{
		Name:  "xor-2",
		ID:    "xor-2",
		Alice: []WireID{1},
		Bob:   []WireID{2},
		Gates: []GateSpec{
			{ID: 3, Type: XOR, Inputs: []WireID{1, 2}},
		},
		Out: []WireID{3},
	}
}

func TestAnd2TruthTable(t *testing.T) {
	spec := and2Spec()
	want := map[[2]byte]byte{
		{0, 0}: 0, {0, 1}: 0, {1, 0}: 0, {1, 1}: 1,
	}
	for in, exp := range want {
		out := runProtocol(t, spec, map[WireID]byte{1: in[0]}, map[WireID]byte{2: in[1]})
		if out[3] != exp {
			t.Errorf("AND(%d,%d): got %d, want %d", in[0], in[1], out[3], exp)
		}
	}
}

func TestXor2TruthTable(t *testing.T) {
	spec := xor2Spec()
	want := map[[2]byte]byte{
		{0, 0}: 0, {0, 1}: 1, {1, 0}: 1, {1, 1}: 0,
	}
	for in, exp := range want {
		out := runProtocol(t, spec, map[WireID]byte{1: in[0]}, map[WireID]byte{2: in[1]})
		if out[3] != exp {
			t.Errorf("XOR(%d,%d): got %d, want %d", in[0], in[1], out[3], exp)
		}
	}
}

// twoBitAdderSpec adds a1:a0 (Alice) with b1:b0 (Bob), producing
// s1:s0 and a carry-out bit, bit order matching a ripple-carry
// full-adder built from XOR/AND/OR gates.
func twoBitAdderSpec() *CircuitSpec {
	// wires: 1=a0 2=a1 (alice), 3=b0 4=b1 (bob)
	// half adder on bit 0: s0 = a0^b0 (5), c0 = a0&b0 (6)
	// full adder on bit 1: t1 = a1^b1 (7), s1 = t1^c0 (8)
	//   u1 = t1&c0 (9), v1 = a1&b1 (10), cout = u1|v1 (11)
	return &CircuitSpec{
		Name:  "adder-2bit",
		ID:    "adder-2bit",
		Alice: []WireID{1, 2},
		Bob:   []WireID{3, 4},
		Gates: []GateSpec{
			{ID: 5, Type: XOR, Inputs: []WireID{1, 3}},
			{ID: 6, Type: AND, Inputs: []WireID{1, 3}},
			{ID: 7, Type: XOR, Inputs: []WireID{2, 4}},
			{ID: 8, Type: XOR, Inputs: []WireID{7, 6}},
			{ID: 9, Type: AND, Inputs: []WireID{7, 6}},
			{ID: 10, Type: AND, Inputs: []WireID{2, 4}},
			{ID: 11, Type: OR, Inputs: []WireID{9, 10}},
		},
		Out: []WireID{8, 5, 11}, // s1, s0, cout
	}
}

func TestTwoBitAdder(t *testing.T) {
	spec := twoBitAdderSpec()

	// alice = a1:a0 = 1:0 = 2 ; bob = b1:b0 = 1:1 = 3 ; 2+3=5=101 => s1=0 s0=1 cout=1
	out := runProtocol(t, spec,
		map[WireID]byte{1: 0, 2: 1},
		map[WireID]byte{3: 1, 4: 1},
	)
	if out[8] != 0 || out[5] != 1 || out[11] != 1 {
		t.Errorf("2+3: got s1=%d s0=%d cout=%d, want s1=0 s0=1 cout=1",
			out[8], out[5], out[11])
	}
}

func TestTwoBitAdderExhaustive(t *testing.T) {
	spec := twoBitAdderSpec()
	for a := 0; a < 4; a++ {
		for b := 0; b < 4; b++ {
			out := runProtocol(t, spec,
				map[WireID]byte{1: byte(a & 1), 2: byte((a >> 1) & 1)},
				map[WireID]byte{3: byte(b & 1), 4: byte((b >> 1) & 1)},
			)
			sum := a + b
			wantS0 := byte(sum & 1)
			wantS1 := byte((sum >> 1) & 1)
			wantCout := byte((sum >> 2) & 1)
			if out[5] != wantS0 || out[8] != wantS1 || out[11] != wantCout {
				t.Errorf("%d+%d: got s1=%d s0=%d cout=%d, want s1=%d s0=%d cout=%d",
					a, b, out[8], out[5], out[11], wantS1, wantS0, wantCout)
			}
		}
	}
}

// billionairesSpec compares two 2-bit integers a (alice) and b
// (bob), producing gt, eq, lt.
func billionairesSpec() *CircuitSpec {
	// wires: 1=a1 2=a0 (alice), 3=b1 4=b0 (bob)
	// eq1 = a1 XNOR b1 (5); eq0 = a0 XNOR b0 (6); eq = eq1 & eq0 (7)
	// gt1 = a1 & !b1 (9, via NOT(b1)=8); gt0 = eq1 & a0 & !b0
	//   nb1 = NOT b1 (8); gt1 = a1 & nb1 (9)
	//   nb0 = NOT b0 (10); a0_and_nb0 = a0 & nb0 (11); gt0 = eq1 & a0_and_nb0 (12)
	//   gt = gt1 | gt0 (13)
	// lt = NOT(gt | eq) computed as: gtoreq = gt | eq (14); lt = NOT gtoreq (15)
	return &CircuitSpec{
		Name:  "billionaires",
		ID:    "billionaires",
		Alice: []WireID{1, 2},
		Bob:   []WireID{3, 4},
		Gates: []GateSpec{
			{ID: 5, Type: XNOR, Inputs: []WireID{1, 3}},
			{ID: 6, Type: XNOR, Inputs: []WireID{2, 4}},
			{ID: 7, Type: AND, Inputs: []WireID{5, 6}},
			{ID: 8, Type: NOT, Inputs: []WireID{3}},
			{ID: 9, Type: AND, Inputs: []WireID{1, 8}},
			{ID: 10, Type: NOT, Inputs: []WireID{4}},
			{ID: 11, Type: AND, Inputs: []WireID{2, 10}},
			{ID: 12, Type: AND, Inputs: []WireID{5, 11}},
			{ID: 13, Type: OR, Inputs: []WireID{9, 12}},
			{ID: 14, Type: OR, Inputs: []WireID{13, 7}},
			{ID: 15, Type: NOT, Inputs: []WireID{14}},
		},
		Out: []WireID{13, 7, 15}, // gt, eq, lt
	}
}

func TestBillionaires(t *testing.T) {
	spec := billionairesSpec()
	for a := 0; a < 4; a++ {
		for b := 0; b < 4; b++ {
			out := runProtocol(t, spec,
				map[WireID]byte{1: byte((a >> 1) & 1), 2: byte(a & 1)},
				map[WireID]byte{3: byte((b >> 1) & 1), 4: byte(b & 1)},
			)
			wantGT, wantEQ, wantLT := byte(0), byte(0), byte(0)
			switch {
			case a > b:
				wantGT = 1
			case a == b:
				wantEQ = 1
			default:
				wantLT = 1
			}
			if out[13] != wantGT || out[7] != wantEQ || out[15] != wantLT {
				t.Errorf("compare(%d,%d): got gt=%d eq=%d lt=%d, want gt=%d eq=%d lt=%d",
					a, b, out[13], out[7], out[15], wantGT, wantEQ, wantLT)
			}
		}
	}
}

func TestPointAndPermuteIndexesCorrectRow(t *testing.T) {
	spec := and2Spec()
	gc, err := Garble(spec)
	if err != nil {
		t.Fatalf("Garble failed: %v", err)
	}

	row := gc.GarbledTables()[3]
	for a := byte(0); a < 2; a++ {
		for b := byte(0); b < 2; b++ {
			la := gc.Label(1, a)
			lb := gc.Label(2, b)
			idx := int(la.EncrBit)<<1 | int(lb.EncrBit)
			if idx < 0 || idx > 3 {
				t.Fatalf("label for (%d,%d) produced out-of-range row index %d", a, b, idx)
			}

			inner, err := symcrypt.Open(la.Key, row.Entries[idx])
			if err != nil {
				t.Fatalf("(%d,%d): row %d outer layer: %v", a, b, idx, err)
			}
			payload, err := symcrypt.Open(lb.Key, inner)
			if err != nil {
				t.Fatalf("(%d,%d): row %d inner layer: %v", a, b, idx, err)
			}
			got, err := decodeLabel(payload)
			if err != nil {
				t.Fatalf("(%d,%d): row %d payload: %v", a, b, idx, err)
			}
			if got != gc.Label(3, a&b) {
				t.Errorf("(%d,%d): row %d does not hold the label for AND=%d", a, b, idx, a&b)
			}
		}
	}
}
