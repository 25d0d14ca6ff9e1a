//
// garble_test.go
//
// Copyright (c) 2019 Markku Rossi
//
// All rights reserved.
//

package circuit

import "testing"

func TestGarbleProducesExpectedRowCounts(t *testing.T) {
	spec := and2Spec()
	gc, err := Garble(spec)
	if err != nil {
		t.Fatalf("Garble failed: %v", err)
	}
	tables := gc.GarbledTables()
	if len(tables[3].Entries) != 4 {
		t.Errorf("AND gate: got %d rows, want 4", len(tables[3].Entries))
	}

	not := identityNotSpec()
	gc2, err := Garble(not)
	if err != nil {
		t.Fatalf("Garble failed: %v", err)
	}
	if len(gc2.GarbledTables()[2].Entries) != 2 {
		t.Errorf("NOT gate: got %d rows, want 2", len(gc2.GarbledTables()[2].Entries))
	}
}

func TestGarbleWithPBitsIsDeterministicOverPermutation(t *testing.T) {
	spec := and2Spec()
	pbits := map[WireID]byte{1: 0, 2: 1, 3: 0}

	gc, err := GarbleWithPBits(spec, pbits)
	if err != nil {
		t.Fatalf("GarbleWithPBits failed: %v", err)
	}
	for w, want := range pbits {
		if gc.PBits()[w] != want {
			t.Errorf("pbit(%s): got %d, want %d", w, gc.PBits()[w], want)
		}
	}
}

func TestEvaluateFailsOnTamperedRow(t *testing.T) {
	spec := and2Spec()
	gc, err := Garble(spec)
	if err != nil {
		t.Fatalf("Garble failed: %v", err)
	}

	aInputs := map[WireID]WireLabel{1: gc.Label(1, 0)}
	bInputs := map[WireID]WireLabel{2: gc.Label(2, 0)}

	// Tamper with the row these labels index.
	tables := gc.GarbledTables()
	row := tables[3]
	idx := int(aInputs[1].EncrBit)<<1 | int(bInputs[2].EncrBit)
	row.Entries[idx][len(row.Entries[idx])-1] ^= 0xff

	_, err = Evaluate(spec, tables, gc.OutputPBits(), aInputs, bInputs)
	if err == nil {
		t.Fatalf("expected decryption failure on tampered row")
	}
}

func TestEvaluateFailsOnMissingInputLabel(t *testing.T) {
	spec := and2Spec()
	gc, err := Garble(spec)
	if err != nil {
		t.Fatalf("Garble failed: %v", err)
	}

	aInputs := map[WireID]WireLabel{1: gc.Label(1, 0)}
	_, err = Evaluate(spec, gc.GarbledTables(), gc.OutputPBits(), aInputs, nil)
	if err == nil {
		t.Fatalf("expected unresolved-wire failure when bob's label is missing")
	}
}

func TestCircuitSpecValidateRejectsSharedWire(t *testing.T) {
	spec := &CircuitSpec{
		ID:    "bad",
		Alice: []WireID{1},
		Bob:   []WireID{1},
		Gates: []GateSpec{{ID: 2, Type: NOT, Inputs: []WireID{1}}},
		Out:   []WireID{2},
	}
	if err := spec.Validate(); err == nil {
		t.Fatalf("expected validation error for wire in both alice and bob")
	}
}
