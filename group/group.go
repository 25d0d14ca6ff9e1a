//
// group.go
//
// Copyright (c) 2019 Markku Rossi
//
// All rights reserved.
//

// Package group implements the prime-order multiplicative group used
// by the Bellare-Micali oblivious transfer.
package group

import (
	"crypto/rand"
	"errors"
	"math/big"
)

// PrimeBits is the default bit length used when searching for a
// group prime.
const PrimeBits = 64

// maxPrimeCandidates bounds the upward walk of the prime search so
// that a fault fails loudly instead of looping forever.
const maxPrimeCandidates = 1 << 20

// maxGeneratorCandidates bounds the generator search the same way.
const maxGeneratorCandidates = 1 << 16

var (
	// ErrInvalidElement is returned when a zero or unit element is
	// used where a nontrivial group element is required.
	ErrInvalidElement = errors.New("group: invalid element")

	// ErrPrimalityExhausted is returned when no prime turns up
	// within the bounded search; prime gaps at these sizes are far
	// shorter than the bound, so it indicates a fault rather than bad
	// luck.
	ErrPrimalityExhausted = errors.New("group: primality search exhausted")

	// ErrGeneratorExhausted mirrors ErrPrimalityExhausted for the
	// generator search.
	ErrGeneratorExhausted = errors.New("group: generator search exhausted")

	// ErrFactorizationExhausted is returned when Pollard's rho fails
	// to split a cofactor within maxRhoAttempts retries.
	ErrFactorizationExhausted = errors.New("group: factorization exhausted")
)

var (
	one = big.NewInt(1)
	two = big.NewInt(2)
)

// smallPrimeBound caps the trial-division sweep that strips small
// factors before Pollard's rho takes over.
var smallPrimeBound = big.NewInt(1 << 16)

// maxRhoAttempts bounds Pollard's rho retries (with a fresh random
// polynomial offset) before giving up on a stubborn cofactor.
const maxRhoAttempts = 64

// Group is a multiplicative group modulo a prime p, of order p-1,
// with a known generator g.
type Group struct {
	P *big.Int
	G *big.Int
}

// New creates a new Group with a random prime of at least bits bits
// and a generator found by candidate-rejection.
func New(bits int) (*Group, error) {
	p, err := randPrime(bits)
	if err != nil {
		return nil, err
	}
	factors, err := factorize(new(big.Int).Sub(p, one))
	if err != nil {
		return nil, err
	}
	g, err := findGenerator(p, factors)
	if err != nil {
		return nil, err
	}
	return &Group{
		P: p,
		G: g,
	}, nil
}

// NewFromParams reconstructs a Group from a received (p, g) pair
// without searching for either.
func NewFromParams(p, g *big.Int) *Group {
	return &Group{
		P: new(big.Int).Set(p),
		G: new(big.Int).Set(g),
	}
}

// Mul returns x*y mod p.
func (g *Group) Mul(x, y *big.Int) *big.Int {
	r := new(big.Int).Mul(x, y)
	return r.Mod(r, g.P)
}

// Pow returns b^e mod p.
func (g *Group) Pow(b, e *big.Int) *big.Int {
	return new(big.Int).Exp(b, e, g.P)
}

// GenPow returns the generator raised to e, i.e. g^e mod p.
func (g *Group) GenPow(e *big.Int) *big.Int {
	return g.Pow(g.G, e)
}

// Inv returns the multiplicative inverse of x mod p, relying on p
// being prime (x^(p-2) mod p). It returns ErrInvalidElement for zero
// or the unit element.
func (g *Group) Inv(x *big.Int) (*big.Int, error) {
	if x.Sign() == 0 || x.Cmp(one) == 0 {
		return nil, ErrInvalidElement
	}
	exp := new(big.Int).Sub(g.P, two)
	return g.Pow(x, exp), nil
}

// RandInt returns a uniform random integer in [1, p-1].
func (g *Group) RandInt() (*big.Int, error) {
	// [0, p-2], shifted to [1, p-1].
	max := new(big.Int).Sub(g.P, one)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return nil, err
	}
	return n.Add(n, one), nil
}

func randPrime(bits int) (*big.Int, error) {
	lo := new(big.Int).Lsh(one, uint(bits))

	n, err := rand.Int(rand.Reader, lo)
	if err != nil {
		return nil, err
	}
	n.Add(n, lo)      // start in [2^bits, 2^(bits+1))
	n.SetBit(n, 0, 1) // odd

	// Walk upward over odd candidates to the next prime.
	for i := 0; i < maxPrimeCandidates; i++ {
		if n.ProbablyPrime(32) {
			return n, nil
		}
		n.Add(n, two)
	}
	return nil, ErrPrimalityExhausted
}

// factorize finds the distinct prime factors of n: trial division
// strips anything up to smallPrimeBound cheaply, then Pollard's rho
// splits whatever composite cofactor remains. p-1 for a PrimeBits-64
// prime can have a near-sqrt(p-1) prime factor, where unit-step trial
// division alone would take on the order of 2^32 steps.
func factorize(n *big.Int) ([]*big.Int, error) {
	rem := new(big.Int).Set(n)
	seen := make(map[string]bool)
	var factors []*big.Int

	addFactor := func(f *big.Int) {
		s := f.String()
		if !seen[s] {
			seen[s] = true
			factors = append(factors, f)
		}
	}

	d := new(big.Int).Set(two)
	for d.Cmp(smallPrimeBound) <= 0 && d.Cmp(rem) <= 0 {
		for new(big.Int).Mod(rem, d).Sign() == 0 {
			addFactor(new(big.Int).Set(d))
			rem.Div(rem, d)
		}
		d.Add(d, one)
	}

	stack := []*big.Int{rem}
	for len(stack) > 0 {
		m := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if m.Cmp(one) <= 0 {
			continue
		}
		if m.ProbablyPrime(32) {
			addFactor(new(big.Int).Set(m))
			continue
		}
		f, err := pollardRho(m)
		if err != nil {
			return nil, err
		}
		stack = append(stack, f, new(big.Int).Div(m, f))
	}
	return factors, nil
}

// pollardRho finds a nontrivial factor of composite n using Floyd's
// cycle detection over the polynomial x^2+c mod n, retrying with a
// fresh random c and starting point if a run fails to split n.
func pollardRho(n *big.Int) (*big.Int, error) {
	if n.Bit(0) == 0 {
		return new(big.Int).Set(two), nil
	}

	for attempt := 0; attempt < maxRhoAttempts; attempt++ {
		c, err := rand.Int(rand.Reader, n)
		if err != nil {
			return nil, err
		}
		if c.Sign() == 0 {
			c.SetInt64(1)
		}
		x, err := rand.Int(rand.Reader, n)
		if err != nil {
			return nil, err
		}
		y := new(big.Int).Set(x)

		f := func(v *big.Int) *big.Int {
			r := new(big.Int).Mul(v, v)
			r.Add(r, c)
			return r.Mod(r, n)
		}

		d := big.NewInt(1)
		for d.Cmp(one) == 0 {
			x = f(x)
			y = f(f(y))

			diff := new(big.Int).Sub(x, y)
			diff.Abs(diff)
			if diff.Sign() == 0 {
				break
			}
			d = new(big.Int).GCD(nil, nil, diff, n)
		}
		if d.Cmp(one) != 0 && d.Cmp(n) != 0 {
			return d, nil
		}
	}
	return nil, ErrFactorizationExhausted
}

func findGenerator(p *big.Int, factors []*big.Int) (*big.Int, error) {
	pMinus1 := new(big.Int).Sub(p, one)

	for i := 0; i < maxGeneratorCandidates; i++ {
		c, err := rand.Int(rand.Reader, new(big.Int).Sub(p, two))
		if err != nil {
			return nil, err
		}
		c.Add(c, two) // candidate in [2, p-1]

		isGenerator := true
		for _, f := range factors {
			e := new(big.Int).Div(pMinus1, f)
			if new(big.Int).Exp(c, e, p).Cmp(one) == 0 {
				isGenerator = false
				break
			}
		}
		if isGenerator {
			return c, nil
		}
	}
	return nil, ErrGeneratorExhausted
}
