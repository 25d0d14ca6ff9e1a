//
// group_test.go
//
// Copyright (c) 2019 Markku Rossi
//
// All rights reserved.
//

package group

import (
	"math/big"
	"testing"
)

func TestNewGeneratesValidGroup(t *testing.T) {
	g, err := New(32)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if !g.P.ProbablyPrime(32) {
		t.Fatalf("P is not prime: %v", g.P)
	}
	if g.G.Cmp(one) <= 0 || g.G.Cmp(g.P) >= 0 {
		t.Fatalf("G out of range: %v", g.G)
	}
}

func TestMulPowInv(t *testing.T) {
	g := NewFromParams(big.NewInt(23), big.NewInt(5))

	x := big.NewInt(7)
	y := big.NewInt(11)

	got := g.Mul(x, y)
	want := new(big.Int).Mod(new(big.Int).Mul(x, y), g.P)
	if got.Cmp(want) != 0 {
		t.Errorf("Mul: got %v, want %v", got, want)
	}

	p3 := g.Pow(x, big.NewInt(3))
	want = new(big.Int).Exp(x, big.NewInt(3), g.P)
	if p3.Cmp(want) != 0 {
		t.Errorf("Pow: got %v, want %v", p3, want)
	}

	inv, err := g.Inv(x)
	if err != nil {
		t.Fatalf("Inv failed: %v", err)
	}
	one := g.Mul(x, inv)
	if one.Cmp(big.NewInt(1)) != 0 {
		t.Errorf("x * x^-1 != 1 mod p: got %v", one)
	}
}

func TestInvZeroFails(t *testing.T) {
	g := NewFromParams(big.NewInt(23), big.NewInt(5))
	if _, err := g.Inv(big.NewInt(0)); err != ErrInvalidElement {
		t.Errorf("Inv(0): got %v, want ErrInvalidElement", err)
	}
}

func TestRandIntInRange(t *testing.T) {
	g := NewFromParams(big.NewInt(23), big.NewInt(5))
	for i := 0; i < 50; i++ {
		r, err := g.RandInt()
		if err != nil {
			t.Fatalf("RandInt failed: %v", err)
		}
		if r.Cmp(one) < 0 || r.Cmp(g.P) >= 0 {
			t.Fatalf("RandInt out of range [1, p-1]: %v", r)
		}
	}
}

func TestGenPowMatchesPow(t *testing.T) {
	g := NewFromParams(big.NewInt(23), big.NewInt(5))
	e := big.NewInt(9)
	if g.GenPow(e).Cmp(g.Pow(g.G, e)) != 0 {
		t.Errorf("GenPow does not match Pow(G, e)")
	}
}
