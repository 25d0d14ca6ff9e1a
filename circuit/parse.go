//
// parse.go
//
// Copyright (c) 2019 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/abreen/yaogc/protoerr"
)

// gateTypeNames maps the seven gate-type strings the circuit file
// format allows onto GateType values.
var gateTypeNames = map[string]GateType{
	"NOT":  NOT,
	"AND":  AND,
	"OR":   OR,
	"XOR":  XOR,
	"NAND": NAND,
	"NOR":  NOR,
	"XNOR": XNOR,
}

// UnmarshalJSON decodes one of the seven gate-type strings.
func (t *GateType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	gt, ok := gateTypeNames[s]
	if !ok {
		return fmt.Errorf("circuit: unknown gate type %q", s)
	}
	*t = gt
	return nil
}

// MarshalJSON encodes the gate type as one of its seven names.
func (t GateType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// jsonGate is the on-disk shape of one gate.
type jsonGate struct {
	ID   WireID   `json:"id"`
	Type GateType `json:"type"`
	In   []WireID `json:"in"`
}

// jsonCircuit is the on-disk shape of one circuit.
type jsonCircuit struct {
	Name  string     `json:"name"`
	ID    string     `json:"id"`
	Gates []jsonGate `json:"gates"`
	Alice []WireID   `json:"alice"`
	Bob   []WireID   `json:"bob"`
	Out   []WireID   `json:"out"`
}

// jsonFile is the on-disk shape of a circuit file: a collection
// keyed by "circuits".
type jsonFile struct {
	Circuits []jsonCircuit `json:"circuits"`
}

// ParseFile reads a circuit file in the format described by the
// external interface ("circuits": [...]) and returns every
// CircuitSpec it contains, validated.
func ParseFile(path string) ([]*CircuitSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes circuit file contents already read into memory.
func Parse(data []byte) ([]*CircuitSpec, error) {
	var f jsonFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, protoerr.New(protoerr.CircuitStructure, "", err)
	}

	specs := make([]*CircuitSpec, 0, len(f.Circuits))
	for _, jc := range f.Circuits {
		spec := &CircuitSpec{
			Name:  jc.Name,
			ID:    jc.ID,
			Alice: jc.Alice,
			Bob:   jc.Bob,
			Out:   jc.Out,
		}
		for _, jg := range jc.Gates {
			spec.Gates = append(spec.Gates, GateSpec{
				ID:     jg.ID,
				Type:   jg.Type,
				Inputs: jg.In,
			})
		}
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// ByID finds the circuit with the given id among a parsed
// collection, or nil if none matches.
func ByID(specs []*CircuitSpec, id string) *CircuitSpec {
	for _, s := range specs {
		if s.ID == id {
			return s
		}
	}
	return nil
}
