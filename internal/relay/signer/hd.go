package signer

import (
	"context"
	"crypto/sha256"
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip32"
)

// HDSigner signs with keys derived from a BIP32 master seed. Key paths are
// arbitrary strings; each path maps to a stable non-hardened child index via
// a hash, so the same path always selects the same key.
type HDSigner struct {
	master *bip32.Key
}

// NewHDSigner creates an HD signer from the given master seed.
func NewHDSigner(seed []byte) (*HDSigner, error) {
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create master key")
	}

	return &HDSigner{master: master}, nil
}

func (s *HDSigner) Sign(_ context.Context, digest [32]byte, keyPath string) (*MpcSignature, error) {
	child, err := s.master.NewChildKey(childIndex(keyPath))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to derive key for path %q", keyPath)
	}

	key, err := crypto.ToECDSA(child.Key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert derived key to ECDSA")
	}

	raw, err := crypto.Sign(digest[:], key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign digest")
	}

	return fromRawSignature(raw)
}

// childIndex hashes a key path into a non-hardened BIP32 child index.
func childIndex(keyPath string) uint32 {
	hash := sha256.Sum256([]byte(keyPath))

	return binary.BigEndian.Uint32(hash[:4]) &^ bip32.FirstHardenedChild
}
