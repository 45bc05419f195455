package signing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddsa-relay/sign-client/pkg/eddsa"
	"github.com/eddsa-relay/sign-client/pkg/payload"
)

// driveLockstep runs a small set of in-memory Peers through a full session,
// feeding every payload to every other peer round by round. It stands in for
// the relay: what the relay's broadcast loop would deliver, this function
// delivers directly.
func driveLockstep(t *testing.T, n int) []*Peer {
	t.Helper()
	msg := []byte("hello, threshold world")

	peers := make([]*Peer, n)
	outbound := make([]string, n)
	for i := 0; i < n; i++ {
		kp, err := eddsa.GenerateKeyPair()
		require.NoError(t, err)
		peers[i] = NewPeer(n, msg, kp)
		out, err := peers[i].ZeroStep(PeerID(i + 1))
		require.NoError(t, err)
		outbound[i] = out
	}

	for round := 0; round < Rounds; round++ {
		next := make([]string, n)
		for i, p := range peers {
			for j, out := range outbound {
				if i == j {
					continue
				}
				require.NoError(t, p.UpdateData(PeerID(j+1), out))
			}
			out, ok, err := p.DoStep()
			require.NoError(t, err)
			require.True(t, ok, "round %d: peer %d should have reached quorum", round, i+1)
			next[i] = out
		}
		outbound = next
	}
	return peers
}

func TestLockstepSigningTwoParty(t *testing.T) {
	peers := driveLockstep(t, 2)
	var sigs []eddsa.Signature
	for _, p := range peers {
		assert.True(t, p.IsDone())
		sig, err := p.Finalize()
		require.NoError(t, err)
		sigs = append(sigs, sig)
	}
	assert.Equal(t, 1, sigs[0].R.Equal(sigs[1].R))
	assert.Equal(t, 1, sigs[0].S.Equal(sigs[1].S))
}

func TestLockstepSigningThreeParty(t *testing.T) {
	peers := driveLockstep(t, 3)
	for _, p := range peers {
		_, err := p.Finalize()
		require.NoError(t, err)
	}
}

func TestFinalizeBeforeDoneFails(t *testing.T) {
	kp, err := eddsa.GenerateKeyPair()
	require.NoError(t, err)
	p := NewPeer(2, []byte("m"), kp)
	_, err = p.ZeroStep(1)
	require.NoError(t, err)
	_, err = p.Finalize()
	assert.ErrorIs(t, err, ErrNotDone)
}

func TestZeroStepTwiceFails(t *testing.T) {
	kp, err := eddsa.GenerateKeyPair()
	require.NoError(t, err)
	p := NewPeer(2, []byte("m"), kp)
	_, err = p.ZeroStep(1)
	require.NoError(t, err)
	_, err = p.ZeroStep(1)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestUpdateDataWrongTagFails(t *testing.T) {
	kp, err := eddsa.GenerateKeyPair()
	require.NoError(t, err)
	p := NewPeer(2, []byte("m"), kp)
	_, err = p.ZeroStep(1)
	require.NoError(t, err)

	wrongWire := payload.Encode(payload.TagCommitment, "irrelevant")
	err = p.UpdateData(2, wrongWire)
	assert.ErrorIs(t, err, ErrUnexpectedPayload)
}

func TestUpdateDataInconsistentPayloadFails(t *testing.T) {
	kp, err := eddsa.GenerateKeyPair()
	require.NoError(t, err)
	p := NewPeer(2, []byte("m"), kp)
	_, err = p.ZeroStep(1)
	require.NoError(t, err)

	other, err := eddsa.GenerateKeyPair()
	require.NoError(t, err)
	first := payload.Encode(payload.TagPublicKey, eddsa.EncodePublicKey(other.Pub))
	require.NoError(t, p.UpdateData(2, first))

	conflicting, err := eddsa.GenerateKeyPair()
	require.NoError(t, err)
	second := payload.Encode(payload.TagPublicKey, eddsa.EncodePublicKey(conflicting.Pub))
	err = p.UpdateData(2, second)
	assert.ErrorIs(t, err, ErrInconsistentPayload)
}

func TestTamperedCommitmentIsRejected(t *testing.T) {
	n := 2
	msg := []byte("msg")
	kps := make([]eddsa.KeyPair, n)
	for i := range kps {
		kp, err := eddsa.GenerateKeyPair()
		require.NoError(t, err)
		kps[i] = kp
	}
	peers := make([]*Peer, n)
	for i := range peers {
		peers[i] = NewPeer(n, msg, kps[i])
		_, err := peers[i].ZeroStep(PeerID(i + 1))
		require.NoError(t, err)
	}
	// round 0: exchange pubkeys
	for i, p := range peers {
		for j := range peers {
			if i == j {
				continue
			}
			require.NoError(t, p.UpdateData(PeerID(j+1), payload.Encode(payload.TagPublicKey, eddsa.EncodePublicKey(kps[j].Pub))))
		}
	}
	commitments := make([]string, n)
	for i, p := range peers {
		out, ok, err := p.DoStep()
		require.NoError(t, err)
		require.True(t, ok)
		commitments[i] = out
	}
	// round 1: peer 0 tampers with its own commitment before it is relayed
	_, badCommitment, _, err := eddsa.CreateEphemeralAndCommit()
	require.NoError(t, err)
	commitments[0] = payload.Encode(payload.TagCommitment, eddsa.EncodeCommitment(badCommitment))

	for i, p := range peers {
		for j := range peers {
			if i == j {
				continue
			}
			require.NoError(t, p.UpdateData(PeerID(j+1), commitments[j]))
		}
	}
	rPayloads := make([]string, n)
	for i, p := range peers {
		out, ok, err := p.DoStep()
		require.NoError(t, err)
		require.True(t, ok)
		rPayloads[i] = out
	}
	for i, p := range peers {
		for j := range peers {
			if i == j {
				continue
			}
			require.NoError(t, p.UpdateData(PeerID(j+1), rPayloads[j]))
		}
	}
	_, _, err = peers[1].DoStep()
	assert.ErrorIs(t, err, ErrCommitmentMismatch)
}

func TestDataManagerLockstep(t *testing.T) {
	n := 2
	msg := []byte("managed")
	kp1, err := eddsa.GenerateKeyPair()
	require.NoError(t, err)
	kp2, err := eddsa.GenerateKeyPair()
	require.NoError(t, err)

	dm1 := NewDataManager(NewPeer(n, msg, kp1))
	dm2 := NewDataManager(NewPeer(n, msg, kp2))

	out1, err := dm1.Initialize(1)
	require.NoError(t, err)
	out2, err := dm2.Initialize(2)
	require.NoError(t, err)

	for !dm1.IsDone() || !dm2.IsDone() {
		next1, ok1, err := dm1.GetNext(2, out2)
		require.NoError(t, err)
		next2, ok2, err := dm2.GetNext(1, out1)
		require.NoError(t, err)
		if ok1 {
			out1 = next1
		}
		if ok2 {
			out2 = next2
		}
		if dm1.IsDone() && dm2.IsDone() {
			break
		}
	}

	sig1, err := dm1.Finalize()
	require.NoError(t, err)
	sig2, err := dm2.Finalize()
	require.NoError(t, err)
	assert.Equal(t, 1, sig1.S.Equal(sig2.S))
}
