//
// protocol_test.go
//
// Copyright (c) 2019 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"bytes"
	"io"
	"testing"
)

func TestPipeSendReceive(t *testing.T) {
	a, b := Pipe()

	testData := []byte("Hello, world!")
	done := make(chan error, 1)

	go func() {
		data, err := b.ReceiveData()
		if err != nil {
			done <- err
			return
		}
		if !bytes.Equal(data, testData) {
			done <- io.ErrUnexpectedEOF
			return
		}
		ok, err := b.ReceiveBool()
		if err != nil {
			done <- err
			return
		}
		if !ok {
			done <- io.ErrUnexpectedEOF
			return
		}
		done <- nil
	}()

	if err := a.SendData(testData); err != nil {
		t.Fatalf("SendData failed: %v", err)
	}
	if err := a.SendBool(true); err != nil {
		t.Fatalf("SendBool failed: %v", err)
	}

	if err := <-done; err != nil {
		t.Fatalf("consumer failed: %v", err)
	}
}

func TestPipeUint32RoundTrip(t *testing.T) {
	a, b := Pipe()
	done := make(chan error, 1)

	go func() {
		v, err := b.ReceiveUint32()
		if err != nil {
			done <- err
			return
		}
		if v != 42 {
			done <- io.ErrUnexpectedEOF
			return
		}
		done <- nil
	}()

	if err := a.SendUint32(42); err != nil {
		t.Fatalf("SendUint32 failed: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("consumer failed: %v", err)
	}
}
