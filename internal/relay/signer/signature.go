package signer

import (
	"encoding/hex"

	"github.com/pkg/errors"
)

const (
	pointLen     = 33
	scalarLen    = 32
	signatureLen = 65
)

// ToBytes converts the signature into the 65-byte [R || S || V] form
// expected when attaching a signature to a transaction.
func (sig *MpcSignature) ToBytes() ([]byte, error) {
	bigR, err := hex.DecodeString(sig.BigR)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode big_r as hex")
	}

	if len(bigR) != pointLen || (bigR[0] != 0x02 && bigR[0] != 0x03) {
		return nil, errors.New("big_r is not a compressed curve point")
	}

	s, err := hex.DecodeString(sig.S)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode s as hex")
	}

	if len(s) != scalarLen {
		return nil, errors.Errorf("invalid scalar length %d", len(s))
	}

	if sig.RecoveryID > 3 {
		return nil, errors.Errorf("invalid recovery id %d", sig.RecoveryID)
	}

	out := make([]byte, 0, signatureLen)
	out = append(out, bigR[1:]...)
	out = append(out, s...)
	out = append(out, sig.RecoveryID)

	return out, nil
}

// fromRawSignature converts a 65-byte [R || S || V] signature into the wire
// shape, reconstructing the compressed R point prefix from the recovery id's
// parity bit.
func fromRawSignature(raw []byte) (*MpcSignature, error) {
	if len(raw) != signatureLen {
		return nil, errors.Errorf("invalid signature length %d", len(raw))
	}

	recoveryID := raw[64]
	prefix := byte(0x02 + (recoveryID & 1))

	bigR := make([]byte, 0, pointLen)
	bigR = append(bigR, prefix)
	bigR = append(bigR, raw[:32]...)

	return &MpcSignature{
		BigR:       hex.EncodeToString(bigR),
		S:          hex.EncodeToString(raw[32:64]),
		RecoveryID: recoveryID,
	}, nil
}
