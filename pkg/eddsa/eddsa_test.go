package eddsa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitmentRoundTrip(t *testing.T) {
	_, c, dec, err := CreateEphemeralAndCommit()
	require.NoError(t, err)
	assert.True(t, TestCommit(dec, c))
}

func TestCommitmentRejectsWrongOpening(t *testing.T) {
	_, c, _, err := CreateEphemeralAndCommit()
	require.NoError(t, err)
	_, _, otherDec, err := CreateEphemeralAndCommit()
	require.NoError(t, err)
	assert.False(t, TestCommit(otherDec, c))
}

func TestCodecRoundTrip(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	pkStr := EncodePublicKey(kp.Pub)
	pk2, err := DecodePublicKey(pkStr)
	require.NoError(t, err)
	assert.Equal(t, 1, kp.Pub.Equal(pk2))

	_, c, dec, err := CreateEphemeralAndCommit()
	require.NoError(t, err)

	cStr := EncodeCommitment(c)
	c2, err := DecodeCommitment(cStr)
	require.NoError(t, err)
	assert.Equal(t, c, c2)

	decStr, err := EncodeDecommitment(dec)
	require.NoError(t, err)
	dec2, err := DecodeDecommitment(decStr)
	require.NoError(t, err)
	assert.Equal(t, 1, dec.R.Equal(dec2.R))
	assert.Equal(t, dec.Blind, dec2.Blind)

	sig := EncodeSignatureShare(kp.Priv)
	s2, err := DecodeSignatureShare(sig)
	require.NoError(t, err)
	assert.Equal(t, 1, kp.Priv.Equal(s2))
}

// TestTwoPartyAggregateSign drives the full 2-peer cryptographic flow
// (no relay, no state machine) end to end: both peers aggregate the same
// apk, combine R, sign, and combine into a signature that verifies.
func TestTwoPartyAggregateSign(t *testing.T) {
	msg := []byte("OMER")

	kp1, err := GenerateKeyPair()
	require.NoError(t, err)
	kp2, err := GenerateKeyPair()
	require.NoError(t, err)

	pks := []*Point{kp1.Pub, kp2.Pub}

	apk1, w1, err := AggregateKeys(pks, 0)
	require.NoError(t, err)
	apk2, w2, err := AggregateKeys(pks, 1)
	require.NoError(t, err)
	require.Equal(t, 1, apk1.Equal(apk2), "all peers must derive the same apk")

	eph1, _, dec1, err := CreateEphemeralAndCommit()
	require.NoError(t, err)
	eph2, _, dec2, err := CreateEphemeralAndCommit()
	require.NoError(t, err)

	rTot := CombineR([]*Point{dec1.R, dec2.R})
	k := Challenge(rTot, apk1, msg)

	s1 := PartialSign(eph1, kp1.Priv, k, w1)
	s2 := PartialSign(eph2, kp2.Priv, k, w2)

	sig := Signature{R: rTot, S: CombineSignatures([]*Scalar{s1, s2})}
	assert.NoError(t, Verify(sig, msg, apk1))
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	msg := []byte("hello")
	kp, err := GenerateKeyPair()
	require.NoError(t, err)
	pks := []*Point{kp.Pub}
	apk, w, err := AggregateKeys(pks, 0)
	require.NoError(t, err)
	eph, _, dec, err := CreateEphemeralAndCommit()
	require.NoError(t, err)
	rTot := CombineR([]*Point{dec.R})
	k := Challenge(rTot, apk, msg)
	s := PartialSign(eph, kp.Priv, k, w)
	sig := Signature{R: rTot, S: CombineSignatures([]*Scalar{s})}

	assert.NoError(t, Verify(sig, msg, apk))
	assert.ErrorIs(t, Verify(sig, []byte("goodbye"), apk), ErrInvalidSignature)
}
