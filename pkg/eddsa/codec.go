package eddsa

import (
	"encoding/base64"
	"encoding/json"

	"github.com/pkg/errors"
)

// EncodePublicKey serializes a public key for the round-0 payload body.
func EncodePublicKey(p *Point) string {
	return base64.StdEncoding.EncodeToString(p.Bytes())
}

// DecodePublicKey is the inverse of EncodePublicKey.
func DecodePublicKey(s string) (*Point, error) {
	bz, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "DecodePublicKey")
	}
	p, err := new(Point).SetBytes(bz)
	if err != nil {
		return nil, errors.Wrap(err, "DecodePublicKey: not a valid curve point")
	}
	return p, nil
}

// EncodeCommitment serializes a commitment for the round-1 payload body.
func EncodeCommitment(c Commitment) string {
	return base64.StdEncoding.EncodeToString(c[:])
}

// DecodeCommitment is the inverse of EncodeCommitment.
func DecodeCommitment(s string) (Commitment, error) {
	var c Commitment
	bz, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return c, errors.Wrap(err, "DecodeCommitment")
	}
	if len(bz) != len(c) {
		return c, errors.Errorf("DecodeCommitment: expected %d bytes, got %d", len(c), len(bz))
	}
	copy(c[:], bz)
	return c, nil
}

// rWireForm is the JSON shape of the round-2 (R, blind) payload body.
type rWireForm struct {
	R     string `json:"r"`
	Blind string `json:"blind"`
}

// EncodeDecommitment serializes the (R_i, blind_i) pair for the round-2 payload body.
func EncodeDecommitment(dec Decommitment) (string, error) {
	wire := rWireForm{
		R:     base64.StdEncoding.EncodeToString(dec.R.Bytes()),
		Blind: base64.StdEncoding.EncodeToString(dec.Blind[:]),
	}
	bz, err := json.Marshal(wire)
	if err != nil {
		return "", errors.Wrap(err, "EncodeDecommitment")
	}
	return string(bz), nil
}

// DecodeDecommitment is the inverse of EncodeDecommitment.
func DecodeDecommitment(s string) (Decommitment, error) {
	var wire rWireForm
	if err := json.Unmarshal([]byte(s), &wire); err != nil {
		return Decommitment{}, errors.Wrap(err, "DecodeDecommitment: malformed JSON body")
	}
	rBytes, err := base64.StdEncoding.DecodeString(wire.R)
	if err != nil {
		return Decommitment{}, errors.Wrap(err, "DecodeDecommitment: R")
	}
	r, err := new(Point).SetBytes(rBytes)
	if err != nil {
		return Decommitment{}, errors.Wrap(err, "DecodeDecommitment: R is not a valid curve point")
	}
	blindBytes, err := base64.StdEncoding.DecodeString(wire.Blind)
	if err != nil {
		return Decommitment{}, errors.Wrap(err, "DecodeDecommitment: blind")
	}
	if len(blindBytes) != 32 {
		return Decommitment{}, errors.Errorf("DecodeDecommitment: blind must be 32 bytes, got %d", len(blindBytes))
	}
	var blind [32]byte
	copy(blind[:], blindBytes)
	return Decommitment{R: r, Blind: blind}, nil
}

// EncodeSignatureShare serializes a partial signature scalar for the round-3 payload body.
func EncodeSignatureShare(s *Scalar) string {
	return base64.StdEncoding.EncodeToString(s.Bytes())
}

// DecodeSignatureShare is the inverse of EncodeSignatureShare.
func DecodeSignatureShare(s string) (*Scalar, error) {
	bz, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "DecodeSignatureShare")
	}
	sc, err := new(Scalar).SetCanonicalBytes(bz)
	if err != nil {
		return nil, errors.Wrap(err, "DecodeSignatureShare: not a canonical scalar")
	}
	return sc, nil
}
