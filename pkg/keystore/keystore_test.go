package keystore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddsa-relay/sign-client/pkg/eddsa"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	kp, err := eddsa.GenerateKeyPair()
	require.NoError(t, err)

	require.NoError(t, Save(dir, "keys", 1, 3, kp))

	loaded, err := Load(dir, "keys", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Index)
	assert.Equal(t, 3, loaded.Capacity)
	assert.Equal(t, 1, kp.Pub.Equal(loaded.KeyPair.Pub))
	assert.Equal(t, 1, kp.Priv.Equal(loaded.KeyPair.Priv))
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(dir, "keys", 7)
	assert.ErrorIs(t, err, ErrKeysMissing)
}
