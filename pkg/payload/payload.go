// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

// Package payload implements the tag-prefixed string wire format every
// relay message body uses: "«tag»«delimiter»«body»". It knows nothing
// about rounds or cryptography; it only knows how to split and join that
// one string shape.
package payload

import (
	"strings"

	"github.com/pkg/errors"
)

// Tag identifies which of the four round payload variants a body carries.
type Tag string

const (
	TagPublicKey  Tag = "pk"
	TagCommitment Tag = "commitment"
	TagR          Tag = "R"
	TagSignature  Tag = "signature"
)

// delimiter separates tag from body. The unit separator (0x1F) is used
// instead of a printable character like '|' because payload bodies are
// base64/JSON and could otherwise legitimately contain any printable
// delimiter candidate.
const delimiter = "\x1f"

// ErrMalformedPayload is returned when a string has no delimiter.
var ErrMalformedPayload = errors.New("payload: malformed payload, delimiter not found")

// ErrUnknownTag is returned when a string's tag prefix is not one of the
// four known variants.
var ErrUnknownTag = errors.New("payload: unknown tag")

// Encode joins a tag and a body into the wire string.
func Encode(tag Tag, body string) string {
	return string(tag) + delimiter + body
}

// Decode splits a wire string back into its tag and body.
func Decode(s string) (Tag, string, error) {
	idx := strings.Index(s, delimiter)
	if idx < 0 {
		return "", "", ErrMalformedPayload
	}
	tag := Tag(s[:idx])
	body := s[idx+len(delimiter):]
	switch tag {
	case TagPublicKey, TagCommitment, TagR, TagSignature:
	default:
		return "", "", errors.Wrapf(ErrUnknownTag, "tag %q", tag)
	}
	return tag, body, nil
}

// ExpectedTag returns the payload tag that round must produce/consume, and
// false for the terminal round (4) which has none.
func ExpectedTag(round int) (Tag, bool) {
	switch round {
	case 0:
		return TagPublicKey, true
	case 1:
		return TagCommitment, true
	case 2:
		return TagR, true
	case 3:
		return TagSignature, true
	default:
		return "", false
	}
}

// RoundForTag is the inverse of ExpectedTag: which round a payload belongs to
// by its tag alone, independent of any peer's current round. The driver uses
// this to file an inbound message into its per-round buffer before it is
// known whether the receiving peer is even ready to consume it yet.
func RoundForTag(tag Tag) (int, bool) {
	switch tag {
	case TagPublicKey:
		return 0, true
	case TagCommitment:
		return 1, true
	case TagR:
		return 2, true
	case TagSignature:
		return 3, true
	default:
		return 0, false
	}
}
