// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

// Package common holds the one teacher utility this module still needs
// directly: a length-framed multi-part hash safe against trivial
// concatenation collisions, used by pkg/eddsa to hash the ordered public
// key list before per-peer weight derivation.
package common

import (
	"crypto"
	_ "crypto/sha512"
	"encoding/binary"

	log "github.com/eddsa-relay/sign-client/internal/log"
)

const hashInputDelimiter = byte('$')

// SHA512_256 hashes an arbitrary number of byte slices with per-part length
// framing, so that no concatenation of differently-split inputs can collide.
// SHA-512/256 is protected against length extension attacks and is more
// performant than SHA-256 on 64-bit architectures.
func SHA512_256(in ...[]byte) []byte {
	inLen := len(in)
	if inLen == 0 {
		return nil
	}
	state := crypto.SHA512_256.New()

	inLenBz := make([]byte, 8)
	binary.LittleEndian.PutUint64(inLenBz, uint64(inLen))

	bzSize := 0
	for _, bz := range in {
		bzSize += len(bz)
	}
	data := make([]byte, 0, len(inLenBz)+bzSize+inLen+(inLen*8))
	data = append(data, inLenBz...)
	for _, bz := range in {
		data = append(data, bz...)
		data = append(data, hashInputDelimiter)
		dataLen := make([]byte, 8)
		binary.LittleEndian.PutUint64(dataLen, uint64(len(bz)))
		data = append(data, dataLen...)
	}
	if _, err := state.Write(data); err != nil {
		log.Logger.Errorf("SHA512_256 Write() failed: %v", err)
		return nil
	}
	return state.Sum(nil)
}
