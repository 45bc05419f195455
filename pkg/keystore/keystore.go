// Copyright © 2019-2020 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

// Package keystore loads a peer's long-term Ed25519 key material from disk,
// the way the corpus's local fixture loaders (mpc.GetKeyPath / LoadKeys) do
// for the ECDSA/EdDSA keygen output, adapted to this module's single flat
// KeyPair instead of a full keygen.LocalPartySaveData.
package keystore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/eddsa-relay/sign-client/pkg/eddsa"
)

// ErrKeysMissing is returned when the expected key file does not exist.
var ErrKeysMissing = errors.New("keystore: key file not found")

// wireForm is the on-disk JSON shape of a single peer's key file.
type wireForm struct {
	Index     int    `json:"index"`
	Capacity  int    `json:"capacity"`
	PublicKey string `json:"public_key"`
	SecretKey string `json:"secret_key"`
}

// KeyMaterial is what a peer needs to enter a signing session: its own
// long-term key pair, its relay-assigned index, and the session capacity it
// was generated for.
type KeyMaterial struct {
	Index    int
	Capacity int
	KeyPair  eddsa.KeyPair
}

// Path returns the on-disk file path for a given key file base name and peer
// index, matching the corpus's "<filename><index>" fixture naming.
func Path(dir, filename string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("%s%d", filename, index))
}

// Load reads and decodes the key file for one peer index.
func Load(dir, filename string, index int) (KeyMaterial, error) {
	path := Path(dir, filename, index)
	bz, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return KeyMaterial{}, errors.Wrapf(ErrKeysMissing, "path %s", path)
		}
		return KeyMaterial{}, errors.Wrapf(err, "reading %s", path)
	}
	var wire wireForm
	if err := json.Unmarshal(bz, &wire); err != nil {
		return KeyMaterial{}, errors.Wrapf(err, "decoding %s", path)
	}
	pub, err := eddsa.DecodePublicKey(wire.PublicKey)
	if err != nil {
		return KeyMaterial{}, errors.Wrapf(err, "decoding public key in %s", path)
	}
	sk, err := eddsa.DecodeSignatureShare(wire.SecretKey)
	if err != nil {
		return KeyMaterial{}, errors.Wrapf(err, "decoding secret key in %s", path)
	}
	return KeyMaterial{
		Index:    wire.Index,
		Capacity: wire.Capacity,
		KeyPair:  eddsa.KeyPair{Priv: sk, Pub: pub},
	}, nil
}

// Save writes a peer's key material to disk, overwriting any existing file.
// It exists mainly to support test fixtures and the (optional) key
// generation path; the normal workflow is to load keys produced out of band.
func Save(dir, filename string, index, capacity int, kp eddsa.KeyPair) error {
	wire := wireForm{
		Index:     index,
		Capacity:  capacity,
		PublicKey: eddsa.EncodePublicKey(kp.Pub),
		SecretKey: eddsa.EncodeSignatureShare(kp.Priv),
	}
	bz, err := json.MarshalIndent(&wire, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding key file")
	}
	path := Path(dir, filename, index)
	if err := os.WriteFile(path, bz, 0600); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}
