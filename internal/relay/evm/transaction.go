package evm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

var (
	// ErrNameReceiver is returned when the receiver is a human-readable
	// name instead of a literal address. Name resolution is unsupported.
	ErrNameReceiver = errors.New("name receivers are not supported")
)

// Transaction is an unsigned legacy EVM transaction as submitted by a
// caller. All fields are optional at this level; the relay validator decides
// which ones are required. A Transaction is immutable once handed to the
// orchestrator.
type Transaction struct {
	ChainID  *hexutil.Big    `json:"chainId,omitempty"`
	Nonce    *hexutil.Uint64 `json:"nonce,omitempty"`
	From     *common.Address `json:"from,omitempty"`
	To       *string         `json:"to,omitempty"`
	Gas      *hexutil.Uint64 `json:"gas,omitempty"`
	GasPrice *hexutil.Big    `json:"gasPrice,omitempty"`
	Value    *hexutil.Big    `json:"value,omitempty"`
	Data     hexutil.Bytes   `json:"data,omitempty"`
}

// unsignedLegacyTx is the RLP layout of an unsigned EIP-155 legacy
// transaction: the last three list items carry the chain id and two zero
// placeholders instead of a signature.
type unsignedLegacyTx struct {
	Nonce    uint64
	GasPrice *big.Int
	Gas      uint64
	To       []byte
	Value    *big.Int
	Data     []byte
	ChainID  *big.Int
	ZeroR    *big.Int
	ZeroS    *big.Int
}

// DecodeRLP decodes hex-encoded unsigned EIP-155 transaction RLP. The
// sender cannot be recovered from unsigned bytes, so From is always nil on
// the result.
func DecodeRLP(rlpHex string) (*Transaction, error) {
	raw, err := hexutil.Decode(ensureHexPrefix(rlpHex))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode transaction RLP as hex")
	}

	var decoded unsignedLegacyTx
	if err := rlp.DecodeBytes(raw, &decoded); err != nil {
		return nil, errors.Wrap(err, "failed to decode RLP as unsigned transaction")
	}

	if decoded.ZeroR.Sign() != 0 || decoded.ZeroS.Sign() != 0 {
		return nil, errors.New("transaction RLP is already signed")
	}

	tx := &Transaction{
		Nonce:    (*hexutil.Uint64)(&decoded.Nonce),
		Gas:      (*hexutil.Uint64)(&decoded.Gas),
		GasPrice: (*hexutil.Big)(decoded.GasPrice),
		Value:    (*hexutil.Big)(decoded.Value),
		Data:     decoded.Data,
		ChainID:  (*hexutil.Big)(decoded.ChainID),
	}

	if len(decoded.To) > 0 {
		if len(decoded.To) != common.AddressLength {
			return nil, errors.Errorf("invalid receiver length %d", len(decoded.To))
		}
		to := common.BytesToAddress(decoded.To).Hex()
		tx.To = &to
	}

	return tx, nil
}

// Receiver returns the literal receiver address, nil if the transaction has
// none (contract deployment), or ErrNameReceiver if the receiver is not a
// literal address.
func (t *Transaction) Receiver() (*common.Address, error) {
	if t.To == nil {
		return nil, nil
	}

	if !common.IsHexAddress(*t.To) {
		return nil, ErrNameReceiver
	}

	addr := common.HexToAddress(*t.To)

	return &addr, nil
}

// TokensForGas returns the total gas-token budget of the transaction
// (gas price * gas limit), or nil if either component is missing.
func (t *Transaction) TokensForGas() *big.Int {
	if t.Gas == nil || t.GasPrice == nil {
		return nil
	}

	gas := new(big.Int).SetUint64(uint64(*t.Gas))

	return gas.Mul(gas, (*big.Int)(t.GasPrice))
}

// SigningDigest computes the EIP-155 signing hash of the transaction.
func (t *Transaction) SigningDigest() (common.Hash, error) {
	if t.ChainID == nil {
		return common.Hash{}, errors.New("chain id is required to compute the signing digest")
	}

	return types.NewEIP155Signer((*big.Int)(t.ChainID)).Hash(t.coreTx()), nil
}

// EncodeSigned attaches a 65-byte [R || S || V] signature and returns the
// broadcast-ready signed transaction bytes.
func (t *Transaction) EncodeSigned(signature []byte) ([]byte, error) {
	if t.ChainID == nil {
		return nil, errors.New("chain id is required to encode the signed transaction")
	}

	signed, err := t.coreTx().WithSignature(types.NewEIP155Signer((*big.Int)(t.ChainID)), signature)
	if err != nil {
		return nil, errors.Wrap(err, "failed to attach signature")
	}

	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode signed transaction")
	}

	return raw, nil
}

// coreTx maps the request onto a go-ethereum legacy transaction, zeroing
// absent optional fields.
func (t *Transaction) coreTx() *types.Transaction {
	inner := &types.LegacyTx{
		GasPrice: new(big.Int),
		Value:    new(big.Int),
		Data:     t.Data,
	}

	if t.Nonce != nil {
		inner.Nonce = uint64(*t.Nonce)
	}
	if t.Gas != nil {
		inner.Gas = uint64(*t.Gas)
	}
	if t.GasPrice != nil {
		inner.GasPrice = (*big.Int)(t.GasPrice)
	}
	if t.Value != nil {
		inner.Value = (*big.Int)(t.Value)
	}
	if t.To != nil && common.IsHexAddress(*t.To) {
		to := common.HexToAddress(*t.To)
		inner.To = &to
	}

	return types.NewTx(inner)
}

func ensureHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s
	}

	return "0x" + s
}
