package eddsa

import (
	"crypto/subtle"

	"golang.org/x/crypto/sha3"
)

// Commitment hides a revealed ephemeral point R_i behind a hash of a random
// blind factor and R_i itself, published one round before R_i. This is a
// single-point specialization of the teacher's crypto/commitments
// hash-commitment scheme (SHA3-256 of a random security parameter plus the
// committed values).
type Commitment [32]byte

// Decommitment is the opening a peer reveals in round 2 to prove it really
// committed to R in round 1.
type Decommitment struct {
	R     *Point
	Blind [32]byte
}

// TestCommit verifies that blind opens c to R.
func TestCommit(dec Decommitment, c Commitment) bool {
	want := commitHash(dec.Blind, dec.R)
	return subtle.ConstantTimeCompare(want[:], c[:]) == 1
}

func commitHash(blind [32]byte, r *Point) Commitment {
	h := sha3.New256()
	h.Write(blind[:])
	h.Write(r.Bytes())
	var c Commitment
	copy(c[:], h.Sum(nil))
	return c
}
