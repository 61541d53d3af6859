package signer

import (
	"context"
)

// Service is the boundary to the external signing service. Sign computes an
// ECDSA signature over the given 32-byte digest with the key selected by
// keyPath. It blocks until the signer responds; each call corresponds to one
// dispatched signing sub-request.
type Service interface {
	Sign(ctx context.Context, digest [32]byte, keyPath string) (*MpcSignature, error)
}

// MpcSignature is the signer response: the signature's R point in compressed
// SEC1 form, the S scalar and the recovery id.
type MpcSignature struct {
	BigR       string `json:"big_r"`
	S          string `json:"s"`
	RecoveryID byte   `json:"recovery_id"`
}
