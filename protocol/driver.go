//
// driver.go
//
// Copyright (c) 2019 Markku Rossi
//
// All rights reserved.
//

package protocol

import (
	"fmt"

	"github.com/abreen/yaogc/circuit"
	"github.com/abreen/yaogc/ot"
	"github.com/abreen/yaogc/protoerr"
	"github.com/abreen/yaogc/symcrypt"
)

// Options controls the protocol driver's behavior.
type Options struct {
	// DisableOT runs the Evaluator's input transfer in clear instead
	// of through Bellare-Micali OT. Tests and the CLI's test-only
	// -no-ot flag only: it leaks Bob's inputs to Alice.
	DisableOT bool
}

// Result is what RunGarbler and RunEvaluator both agree on at the
// end of a run: the circuit's output bits, keyed by output wire.
type Result struct {
	Spec    *circuit.CircuitSpec
	Outputs map[circuit.WireID]byte

	// GC is the GarbledCircuit RunGarbler built for this session. Only
	// the Garbler has it; RunEvaluator leaves it nil. It lets a caller
	// print the full truth table post-hoc, as a diagnostic, without a
	// second network round: Alice already owns every key and pbit.
	GC *circuit.GarbledCircuit
}

// RunGarbler plays the Garbler (Alice) side of the protocol over c:
// it garbles spec, transmits the circuit structure and garbled
// tables, offers its own inputs in clear and Bob's inputs via OT (one
// instance per Bob wire, in spec.Bob order), then waits for the
// Evaluator to report the output bits.
//
// aliceInputs must assign exactly one bit to every wire in
// spec.Alice.
func RunGarbler(c conn, spec *circuit.CircuitSpec, aliceInputs map[circuit.WireID]byte, opts Options) (*Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	for _, w := range spec.Alice {
		if _, ok := aliceInputs[w]; !ok {
			return nil, protoerr.New(protoerr.CircuitStructure, spec.ID,
				fmt.Errorf("missing alice input for wire %s", w))
		}
	}

	gc, err := circuit.Garble(spec)
	if err != nil {
		return nil, err
	}

	if err := sendCircuitStructure(c, spec); err != nil {
		return nil, err
	}
	if err := expectAck(c); err != nil {
		return nil, err
	}

	if err := sendGarbledTables(c, spec, gc.GarbledTables()); err != nil {
		return nil, err
	}
	if err := expectAck(c); err != nil {
		return nil, err
	}

	if err := sendPBitsOut(c, spec, gc.OutputPBits()); err != nil {
		return nil, err
	}
	if err := expectAck(c); err != nil {
		return nil, err
	}

	aLabels := make(map[circuit.WireID]circuit.WireLabel, len(spec.Alice))
	for _, w := range spec.Alice {
		aLabels[w] = gc.Label(w, aliceInputs[w])
	}
	if err := sendAInputs(c, spec, aLabels); err != nil {
		return nil, err
	}

	for _, w := range spec.Bob {
		m0 := labelToBytes(gc.Label(w, 0))
		m1 := labelToBytes(gc.Label(w, 1))

		if opts.DisableOT {
			if err := ot.NewLocalGarbler(c).Send(m0, m1); err != nil {
				return nil, err
			}
			continue
		}
		if err := ot.NewGarbler(c).Send(m0, m1); err != nil {
			return nil, err
		}
	}

	outputs, err := receiveOutputs(c, spec)
	if err != nil {
		return nil, err
	}
	return &Result{Spec: spec, Outputs: outputs, GC: gc}, nil
}

// RunEvaluator plays the Evaluator (Bob) side of the protocol over c,
// using a fixed, already-known input assignment. bobInputs must
// assign exactly one bit to every wire the received circuit names in
// its Bob set.
func RunEvaluator(c conn, bobInputs map[circuit.WireID]byte, opts Options) (*Result, error) {
	return RunEvaluatorFunc(c, func(*circuit.CircuitSpec) (map[circuit.WireID]byte, error) {
		return bobInputs, nil
	}, opts)
}

// RunEvaluatorFunc plays the Evaluator (Bob) side of the protocol
// over c: it receives the circuit structure, garbled tables, output
// p-bits, and Alice's input labels, then obtains its own input labels
// via OT (or in clear, if opts.DisableOT), evaluates the circuit, and
// reports the output bits back to the Garbler.
//
// resolveInputs is called with the received circuit, since the
// Evaluator does not know its shape in advance; this lets a caller
// parse its input bits against the circuit's actual Bob wire list,
// as the CLI must.
func RunEvaluatorFunc(c conn, resolveInputs func(*circuit.CircuitSpec) (map[circuit.WireID]byte, error), opts Options) (*Result, error) {
	spec, err := receiveCircuitStructure(c)
	if err != nil {
		return nil, err
	}
	if err := sendAck(c); err != nil {
		return nil, err
	}

	bobInputs, err := resolveInputs(spec)
	if err != nil {
		return nil, err
	}
	for _, w := range spec.Bob {
		if _, ok := bobInputs[w]; !ok {
			return nil, protoerr.New(protoerr.CircuitStructure, spec.ID,
				fmt.Errorf("missing bob input for wire %s", w))
		}
	}

	tables, err := receiveGarbledTables(c, spec)
	if err != nil {
		return nil, err
	}
	if err := sendAck(c); err != nil {
		return nil, err
	}

	pbitsOut, err := receivePBitsOut(c)
	if err != nil {
		return nil, err
	}
	if err := sendAck(c); err != nil {
		return nil, err
	}

	aInputs, err := receiveAInputs(c)
	if err != nil {
		return nil, err
	}

	bInputs := make(map[circuit.WireID]circuit.WireLabel, len(spec.Bob))
	for _, w := range spec.Bob {
		bit := bobInputs[w]

		var data []byte
		if opts.DisableOT {
			data, err = ot.NewLocalEvaluator(c).Receive(bit)
		} else {
			data, err = ot.NewEvaluator(c).Receive(bit)
		}
		if err != nil {
			return nil, err
		}
		bInputs[w], err = bytesToLabel(data)
		if err != nil {
			return nil, err
		}
	}

	outputs, err := circuit.Evaluate(spec, tables, pbitsOut, aInputs, bInputs)
	if err != nil {
		return nil, err
	}

	if err := sendOutputs(c, spec, outputs); err != nil {
		return nil, err
	}
	return &Result{Spec: spec, Outputs: outputs}, nil
}

func expectAck(c conn) error {
	ok, err := c.ReceiveBool()
	if err != nil {
		return err
	}
	if !ok {
		return protoerr.New(protoerr.TransportError, "", fmt.Errorf("peer rejected handshake step"))
	}
	return nil
}

func sendAck(c conn) error {
	return c.SendBool(true)
}

// labelToBytes and bytesToLabel marshal a WireLabel for transport as
// an OT message, using the same fixed layout sendLabel/receiveLabel
// use when sent directly over a Conn.
func labelToBytes(lbl circuit.WireLabel) []byte {
	buf := make([]byte, symcrypt.KeySize+1)
	copy(buf, lbl.Key[:])
	buf[symcrypt.KeySize] = lbl.EncrBit
	return buf
}

func bytesToLabel(data []byte) (circuit.WireLabel, error) {
	if len(data) != symcrypt.KeySize+1 {
		return circuit.WireLabel{}, fmt.Errorf(
			"protocol: malformed OT payload (%d bytes)", len(data))
	}
	var lbl circuit.WireLabel
	copy(lbl.Key[:], data[:symcrypt.KeySize])
	lbl.EncrBit = data[symcrypt.KeySize]
	return lbl, nil
}
