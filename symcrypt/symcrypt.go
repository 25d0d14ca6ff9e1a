//
// symcrypt.go
//
// Copyright (c) 2019 Markku Rossi
//
// All rights reserved.
//

// Package symcrypt implements the fixed-key authenticated symmetric
// encryption used to wrap garbled-table entries.
package symcrypt

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/nacl/secretbox"
)

// KeySize is the length in bytes of a Key.
const KeySize = 32

// nonceSize is the length in bytes of a secretbox nonce.
const nonceSize = 24

// ErrDecrypt is returned by Open when the ciphertext fails its
// authentication check, including when it was sealed under a
// different key.
var ErrDecrypt = errors.New("symcrypt: decryption failed")

// Key is a fixed-size symmetric key.
type Key [KeySize]byte

// GenerateKey draws a fresh uniform random key.
func GenerateKey() (Key, error) {
	var k Key
	_, err := rand.Read(k[:])
	return k, err
}

// Seal encrypts and authenticates m under k, returning a nonce
// followed by the sealed box.
func Seal(k Key, m []byte) []byte {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		panic(err)
	}
	return secretbox.Seal(nonce[:], m, &nonce, (*[KeySize]byte)(&k))
}

// Open authenticates and decrypts a ciphertext produced by Seal. It
// returns ErrDecrypt if the ciphertext is too short, was tampered
// with, or was sealed under a different key.
func Open(k Key, c []byte) ([]byte, error) {
	if len(c) < nonceSize {
		return nil, ErrDecrypt
	}
	var nonce [nonceSize]byte
	copy(nonce[:], c[:nonceSize])

	m, ok := secretbox.Open(nil, c[nonceSize:], &nonce, (*[KeySize]byte)(&k))
	if !ok {
		return nil, ErrDecrypt
	}
	return m, nil
}
