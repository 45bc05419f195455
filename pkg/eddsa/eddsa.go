// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

// Package eddsa is the cryptographic primitives facade the signing state
// machine is built on: keypair generation, ephemeral commit-and-reveal,
// Bellare-Neven key aggregation, challenge hashing, partial signing,
// combination and verification. None of the round-by-round protocol logic
// lives here; this package only knows about curve points and scalars.
package eddsa

import (
	"crypto/rand"
	"crypto/sha512"

	"filippo.io/edwards25519"
	"github.com/pkg/errors"

	"github.com/eddsa-relay/sign-client/common"
)

type (
	// Scalar is an element of the Ed25519 scalar field.
	Scalar = edwards25519.Scalar
	// Point is a point on the Ed25519 curve.
	Point = edwards25519.Point
)

// KeyPair is a long-term Ed25519 signing key.
type KeyPair struct {
	Priv *Scalar
	Pub  *Point
}

// GenerateKeyPair samples a fresh long-term Ed25519 keypair.
func GenerateKeyPair() (KeyPair, error) {
	sk, err := randomScalar()
	if err != nil {
		return KeyPair{}, errors.Wrap(err, "GenerateKeyPair")
	}
	pub := new(Point).ScalarBaseMult(sk)
	return KeyPair{Priv: sk, Pub: pub}, nil
}

// Ephemeral is the single-use nonce generated for one signing round. It must
// never be serialized to disk or reused across sessions.
type Ephemeral struct {
	r *Scalar
	R *Point
}

// CreateEphemeralAndCommit samples a fresh ephemeral key r_i, R_i = r_i*G and
// returns it along with a hiding commitment to R_i and the opening needed to
// reveal it later. The message is bound into nothing here (it enters the
// protocol via the challenge hash in round 2->3), matching the corpus's
// two-phase commit/reveal-then-sign flow.
func CreateEphemeralAndCommit() (Ephemeral, Commitment, Decommitment, error) {
	r, err := randomScalar()
	if err != nil {
		return Ephemeral{}, Commitment{}, Decommitment{}, errors.Wrap(err, "CreateEphemeralAndCommit")
	}
	R := new(Point).ScalarBaseMult(r)
	var blind [32]byte
	if _, err := rand.Read(blind[:]); err != nil {
		return Ephemeral{}, Commitment{}, Decommitment{}, errors.Wrap(err, "CreateEphemeralAndCommit: sampling blind")
	}
	c := commitHash(blind, R)
	eph := Ephemeral{r: r, R: R}
	dec := Decommitment{R: R, Blind: blind}
	return eph, c, dec, nil
}

// AggregateKeys computes the Bellare-Neven aggregated public key and this
// peer's own weight a_i = H(L || P_i), where L = H(P_1 || ... || P_n).
// pks MUST already be arranged in canonical peer-index order (see
// signing.orderedPublicKeys); myIndex is the 0-based position of this
// peer's own key within pks.
func AggregateKeys(pks []*Point, myIndex int) (apk *Point, weight *Scalar, err error) {
	if myIndex < 0 || myIndex >= len(pks) {
		return nil, nil, errors.Errorf("AggregateKeys: index %d out of range for %d keys", myIndex, len(pks))
	}
	l := hashPubKeyList(pks)
	apk = new(Point).ScalarBaseMult(edwards25519.NewScalar()) // identity
	for i, p := range pks {
		ai := perPeerWeight(l, p)
		apk = apk.Add(apk, new(Point).ScalarMult(ai, p))
		if i == myIndex {
			weight = ai
		}
	}
	return apk, weight, nil
}

// CombineR sums every peer's revealed ephemeral point into R_tot.
func CombineR(rs []*Point) *Point {
	tot := new(Point).ScalarBaseMult(edwards25519.NewScalar())
	for _, r := range rs {
		tot = tot.Add(tot, r)
	}
	return tot
}

// Challenge computes the RFC 8032 challenge scalar k = SHA-512(R_tot || apk || m) mod L.
// This is the one place the implementation is not free to pick a different
// hash: any Ed25519-compatible verifier expects exactly this construction.
func Challenge(rTot, apk *Point, msg []byte) *Scalar {
	h := sha512.New()
	h.Write(rTot.Bytes())
	h.Write(apk.Bytes())
	h.Write(msg)
	return edwards25519.NewScalar().SetUniformBytes(h.Sum(nil))
}

// PartialSign computes this peer's contribution s_i = r_i + k*a_i*sk_i.
func PartialSign(eph Ephemeral, sk, challenge, weight *Scalar) *Scalar {
	s := new(Scalar).Multiply(challenge, weight)
	s = s.Multiply(s, sk)
	s = s.Add(s, eph.r)
	return s
}

// CombineSignatures sums every peer's partial signature scalar.
func CombineSignatures(ss []*Scalar) *Scalar {
	sum := edwards25519.NewScalar()
	for _, s := range ss {
		sum = sum.Add(sum, s)
	}
	return sum
}

// Signature is a combined aggregated EdDSA signature (R, s).
type Signature struct {
	R *Point
	S *Scalar
}

// Bytes returns the 64-byte wire form R || s, identical to a plain Ed25519 signature.
func (sig Signature) Bytes() []byte {
	out := make([]byte, 0, 64)
	out = append(out, sig.R.Bytes()...)
	out = append(out, sig.S.Bytes()...)
	return out
}

// ErrInvalidSignature is returned by Verify when the aggregated signature
// does not satisfy the Ed25519 verification equation.
var ErrInvalidSignature = errors.New("eddsa: invalid signature")

// Verify checks s*G == R + k*apk, the standard Ed25519 verification equation,
// where k is recomputed from (R, apk, msg) exactly as in Challenge. A valid
// aggregated signature verifies under apk with any standard Ed25519 verifier,
// since the wire form is indistinguishable from a single-key signature.
func Verify(sig Signature, msg []byte, apk *Point) error {
	k := Challenge(sig.R, apk, msg)
	lhs := new(Point).ScalarBaseMult(sig.S)
	rhs := new(Point).ScalarMult(k, apk)
	rhs = rhs.Add(rhs, sig.R)
	if lhs.Equal(rhs) != 1 {
		return ErrInvalidSignature
	}
	return nil
}

func randomScalar() (*Scalar, error) {
	var seed [64]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, err
	}
	return edwards25519.NewScalar().SetUniformBytes(seed[:]), nil
}

func perPeerWeight(l [32]byte, p *Point) *Scalar {
	h := sha512.New()
	h.Write(l[:])
	h.Write(p.Bytes())
	return edwards25519.NewScalar().SetUniformBytes(h.Sum(nil))
}

// hashPubKeyList computes L = H(P_1 || ... || P_n) via common.SHA512_256,
// whose per-part length framing rules out collisions between differently
// split key lists.
func hashPubKeyList(pks []*Point) [32]byte {
	parts := make([][]byte, len(pks))
	for i, p := range pks {
		parts[i] = p.Bytes()
	}
	var out [32]byte
	copy(out[:], common.SHA512_256(parts...))
	return out
}
