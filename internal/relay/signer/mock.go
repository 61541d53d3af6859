package signer

import (
	"context"
	"crypto/ecdsa"
	"crypto/sha256"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// Mock is a simulation-only signer: it derives a deterministic secp256k1 key
// from the caller identity and the key path. It must never hold real funds.
type Mock struct {
	callerID string
}

// NewMock creates a mock signer acting on behalf of callerID.
func NewMock(callerID string) *Mock {
	return &Mock{callerID: callerID}
}

func (m *Mock) Sign(_ context.Context, digest [32]byte, keyPath string) (*MpcSignature, error) {
	key, err := SpoofKey([]byte(m.callerID), []byte(keyPath))
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive spoof key")
	}

	raw, err := crypto.Sign(digest[:], key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign digest")
	}

	return fromRawSignature(raw)
}

// SpoofKey derives the deterministic signing key the mock uses for a given
// caller and key path. Exported so tests can recover the corresponding
// address.
func SpoofKey(callerID []byte, keyPath []byte) (*ecdsa.PrivateKey, error) {
	material := make([]byte, 0, len(callerID)+1+len(keyPath))
	material = append(material, callerID...)
	material = append(material, ',')
	material = append(material, keyPath...)

	hash := sha256.Sum256(material)

	return crypto.ToECDSA(hash[:])
}
