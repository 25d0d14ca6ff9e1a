//
// local.go
//
// Copyright (c) 2019 Markku Rossi
//
// All rights reserved.

package ot

// LocalGarbler drives a disabled-OT Garbler side: it transmits both
// messages in clear and lets the Evaluator select locally. This mode
// must never be selected outside tests.
type LocalGarbler struct {
	io IO
}

// NewLocalGarbler returns a disabled-OT Garbler side driver.
func NewLocalGarbler(io IO) *LocalGarbler {
	return &LocalGarbler{io: io}
}

// Send transmits both m0 and m1 in clear.
func (s *LocalGarbler) Send(m0, m1 []byte) error {
	if err := s.io.SendData(m0); err != nil {
		return err
	}
	return s.io.SendData(m1)
}

// LocalEvaluator drives a disabled-OT Evaluator side: it receives
// both clear messages and selects locally.
type LocalEvaluator struct {
	io IO
}

// NewLocalEvaluator returns a disabled-OT Evaluator side driver.
func NewLocalEvaluator(io IO) *LocalEvaluator {
	return &LocalEvaluator{io: io}
}

// Receive receives both clear messages and returns the one named by
// bit.
func (r *LocalEvaluator) Receive(bit byte) ([]byte, error) {
	m0, err := r.io.ReceiveData()
	if err != nil {
		return nil, err
	}
	m1, err := r.io.ReceiveData()
	if err != nil {
		return nil, err
	}
	if bit == 0 {
		return m0, nil
	}
	return m1, nil
}
