//
// main.go
//
// Copyright (c) 2019 Markku Rossi
//
// All rights reserved.
//

// Command yaogc runs the Yao garbled-circuit / Bellare-Micali OT
// protocol: "alice" plays the Garbler, "bob" plays the Evaluator, and
// "local" runs a circuit or table dump in one process with no
// transport at all.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/abreen/yaogc/circuit"
	"github.com/abreen/yaogc/p2p"
	"github.com/abreen/yaogc/protoerr"
	"github.com/abreen/yaogc/protocol"
)

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	party := os.Args[1]

	fs := flag.NewFlagSet(party, flag.ExitOnError)
	circuitPath := fs.String("c", "circuits/default.json", "circuit file")
	circuitID := fs.String("id", "", "circuit id to run (alice/local); empty selects every circuit in the file")
	addr := fs.String("addr", "", "evaluator address to dial (alice only); defaults to localhost:<port>")
	port := fs.Int("p", p2p.DefaultPort, "TCP port")
	aliceBits := fs.String("a", "", "comma-separated bits for alice's input wires, in circuit.Alice order")
	bobBits := fs.String("b", "", "comma-separated bits for bob's input wires, in circuit.Bob order")
	noOT := fs.Bool("no-ot", false, "disable oblivious transfer (test only, leaks bob's inputs)")
	printMode := fs.String("m", "circuit", "local print mode: circuit or table")
	loglevel := fs.String("l", "warning", "log level: debug, info, warning, error")
	fs.Parse(os.Args[2:])
	if fs.NArg() > 0 {
		*circuitPath = fs.Arg(0)
	}

	verbose := *loglevel == "debug"
	circuit.SetVerbose(verbose)

	var err error
	switch party {
	case "alice":
		err = runAlice(*circuitPath, *circuitID, *addr, *port, *aliceBits, *noOT)
	case "bob":
		err = runBob(*port, *bobBits, *noOT)
	case "local":
		err = runLocal(*circuitPath, *circuitID, *printMode)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		var protoErr *protoerr.Error
		if errors.As(err, &protoErr) && protoErr.Kind == protoerr.Interrupted {
			log.Printf("yaogc: %s: %s", party, protoErr.Kind)
			return
		}
		log.Printf("yaogc: %s: %v", party, err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: yaogc {alice|bob|local} [flags]")
	fmt.Fprintln(os.Stderr, "  alice <circuit.json>: run the garbler side")
	fmt.Fprintln(os.Stderr, "  bob: run the evaluator side, listening for sessions")
	fmt.Fprintln(os.Stderr, "  local <circuit.json>: run both sides in one process with no transport")
}

func bitsForWires(s string, wires []circuit.WireID) (map[circuit.WireID]byte, error) {
	if len(wires) == 0 {
		return map[circuit.WireID]byte{}, nil
	}
	var fields []string
	if s != "" {
		fields = strings.Split(s, ",")
	}
	if len(fields) != len(wires) {
		return nil, fmt.Errorf("expected %d input bit(s), got %d", len(wires), len(fields))
	}
	inputs := make(map[circuit.WireID]byte, len(wires))
	for i, w := range wires {
		v, err := strconv.Atoi(strings.TrimSpace(fields[i]))
		if err != nil || (v != 0 && v != 1) {
			return nil, fmt.Errorf("invalid bit %q for wire %s", fields[i], w)
		}
		inputs[w] = byte(v)
	}
	return inputs, nil
}

func selectSpecs(path, id string) ([]*circuit.CircuitSpec, error) {
	specs, err := circuit.ParseFile(path)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return specs, nil
	}
	spec := circuit.ByID(specs, id)
	if spec == nil {
		return nil, fmt.Errorf("no circuit with id %q in %s", id, path)
	}
	return []*circuit.CircuitSpec{spec}, nil
}

func runAlice(circuitPath, circuitID, addr string, port int, aliceBitsFlag string, noOT bool) error {
	specs, err := selectSpecs(circuitPath, circuitID)
	if err != nil {
		return err
	}
	if len(specs) != 1 {
		return fmt.Errorf("alice requires exactly one circuit (use -id); %s contains %d", circuitPath, len(specs))
	}
	spec := specs[0]

	aliceInputs, err := bitsForWires(aliceBitsFlag, spec.Alice)
	if err != nil {
		return fmt.Errorf("circuit %s: %w", spec.ID, err)
	}

	if addr == "" {
		addr = fmt.Sprintf("localhost:%d", port)
	}
	log.Printf("alice: dialing %s for circuit %q", addr, spec.ID)
	conn, err := p2p.Dial(addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	res, err := protocol.RunGarbler(conn, spec, aliceInputs, protocol.Options{DisableOT: noOT})
	if err != nil {
		return err
	}
	printResult(res)

	// Diagnostic only: alice already owns every key and pbit, so this
	// replays the full truth table locally with no second OT round.
	return circuit.PrintTruthTable(os.Stdout, spec, res.GC)
}

// activeSession tracks the one in-flight Evaluator session so a
// SIGINT can abort it, not just stop new sessions from being
// accepted.
type activeSession struct {
	mu   sync.Mutex
	conn *p2p.Conn
}

func (s *activeSession) set(c *p2p.Conn) {
	s.mu.Lock()
	s.conn = c
	s.mu.Unlock()
}

func (s *activeSession) abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.Close()
	}
}

func runBob(port int, bobBitsFlag string, noOT bool) error {
	ln, err := p2p.Listen(port)
	if err != nil {
		return err
	}
	log.Printf("bob: listening on port %d", port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)

	var interrupted atomic.Bool
	var session activeSession
	go func() {
		<-sigCh
		log.Printf("bob: interrupted, shutting down")
		interrupted.Store(true)
		ln.Close()
		session.abort()
	}()

	for {
		conn, err := p2p.Accept(ln)
		if err != nil {
			if interrupted.Load() {
				return protoerr.New(protoerr.Interrupted, "", err)
			}
			return err
		}
		log.Printf("bob: accepted session")

		session.set(conn)
		err = serveOne(conn, bobBitsFlag, noOT)
		session.set(nil)
		conn.Close()

		if err != nil {
			if interrupted.Load() {
				return protoerr.New(protoerr.Interrupted, "", err)
			}
			log.Printf("bob: session failed: %v", err)
		}
	}
}

func serveOne(conn *p2p.Conn, bobBitsFlag string, noOT bool) error {
	resolve := func(spec *circuit.CircuitSpec) (map[circuit.WireID]byte, error) {
		return bitsForWires(bobBitsFlag, spec.Bob)
	}
	res, err := protocol.RunEvaluatorFunc(conn, resolve, protocol.Options{DisableOT: noOT})
	if err != nil {
		return err
	}
	printResult(res)
	return nil
}

func runLocal(circuitPath, circuitID, printMode string) error {
	specs, err := selectSpecs(circuitPath, circuitID)
	if err != nil {
		return err
	}
	if printMode != "circuit" && printMode != "table" {
		return fmt.Errorf("unknown print mode %q, must be circuit or table", printMode)
	}

	for _, spec := range specs {
		gc, err := circuit.Garble(spec)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		switch printMode {
		case "table":
			circuit.PrintGarbledTables(&buf, spec, gc)
		case "circuit":
			if err := circuit.PrintTruthTable(&buf, spec, gc); err != nil {
				return err
			}
		}
		os.Stdout.Write(buf.Bytes())
	}
	return nil
}

func printResult(res *protocol.Result) {
	fmt.Printf("circuit %s outputs:\n", res.Spec.ID)
	for _, w := range res.Spec.Out {
		fmt.Printf("  %s = %d\n", w, res.Outputs[w])
	}
}
