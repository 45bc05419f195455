package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		tag  Tag
		body string
	}{
		{TagPublicKey, "c29tZS1wdWJrZXk="},
		{TagCommitment, "Y29tbWl0bWVudA=="},
		{TagR, `{"r":"Uj0x","blind":"Ymxpbmq="}`},
		{TagSignature, "c2ln"},
	}
	for _, c := range cases {
		wire := Encode(c.tag, c.body)
		tag, body, err := Decode(wire)
		require.NoError(t, err)
		assert.Equal(t, c.tag, tag)
		assert.Equal(t, c.body, body)
	}
}

func TestDecodeMalformed(t *testing.T) {
	_, _, err := Decode("no-delimiter-here")
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestDecodeUnknownTag(t *testing.T) {
	_, _, err := Decode(Encode("bogus", "body"))
	assert.ErrorIs(t, err, ErrUnknownTag)
}

func TestExpectedTag(t *testing.T) {
	tag, ok := ExpectedTag(0)
	assert.True(t, ok)
	assert.Equal(t, TagPublicKey, tag)

	tag, ok = ExpectedTag(3)
	assert.True(t, ok)
	assert.Equal(t, TagSignature, tag)

	_, ok = ExpectedTag(4)
	assert.False(t, ok)
}
