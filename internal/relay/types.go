package relay

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github/chapool/go-relay/internal/relay/evm"
	"github/chapool/go-relay/internal/relay/signer"
)

// Service orchestrates cross-chain transaction relaying: it accepts an
// unsigned foreign-chain transaction together with a local-asset deposit,
// settles the relay fee against a live price quote, persists a two-entry
// signing batch (paymaster reimbursement first, caller transaction second)
// and drives sequential signing of that batch.
type Service interface {
	// InitiateTransaction validates the transaction, attaches the deposit,
	// quotes the gas-token price, settles the fee (refunding any excess)
	// and persists the signing batch.
	InitiateTransaction(ctx context.Context, caller string, params InitiateTransactionParams) (*TransactionInitiation, error)

	// SignNext dispatches the first eligible signing sub-request of the
	// batch to the signer and finalizes it with the returned signature.
	// The signed transaction is returned hex-encoded, ready to broadcast.
	SignNext(ctx context.Context, id uint64) (string, error)

	// GetBatch returns the current state of a signing batch.
	GetBatch(ctx context.Context, id uint64) ([]SignatureRequestView, error)

	// RecoverRequest resets a sub-request that is stuck in flight after a
	// failed signer call back to pending. Administrative operation: the
	// caller must ensure the outstanding signer call cannot still complete,
	// otherwise the entry could be signed twice.
	RecoverRequest(ctx context.Context, id uint64, index int) error

	GetFlags(ctx context.Context) Flags
	SetFlags(ctx context.Context, flags Flags)

	GetWhitelist(ctx context.Context, kind WhitelistKind) ([]common.Address, error)
	AddToWhitelist(ctx context.Context, kind WhitelistKind, addresses []common.Address) error
	RemoveFromWhitelist(ctx context.Context, kind WhitelistKind, addresses []common.Address) error
	ClearWhitelist(ctx context.Context, kind WhitelistKind) error
}

// InitiateTransactionParams carries the caller-supplied transaction (exactly
// one representation must be present) and the attached deposit in the local
// asset's smallest unit.
type InitiateTransactionParams struct {
	TransactionJSON *evm.Transaction
	TransactionRLP  *string
	Deposit         *big.Int
}

// TransactionInitiation is the result of a successful initiation.
type TransactionInitiation struct {
	ID                    uint64 `json:"id"`
	PendingSignatureCount int    `json:"pendingSignatureCount"`
}

// Flags gate the whitelist checks independently.
type Flags struct {
	IsSenderWhitelistEnabled   bool `json:"isSenderWhitelistEnabled"`
	IsReceiverWhitelistEnabled bool `json:"isReceiverWhitelistEnabled"`
}

// WhitelistKind selects one of the two address whitelists.
type WhitelistKind string

const (
	WhitelistSender   WhitelistKind = "sender"
	WhitelistReceiver WhitelistKind = "receiver"
)

// RequestState is the lifecycle of a signing sub-request. The three states
// make "signed but still in flight" unrepresentable.
type RequestState int

const (
	// StatePending: not yet handed to the signer, eligible for dispatch.
	StatePending RequestState = iota
	// StateInFlight: handed to the signer, result outstanding. Set before
	// the signer call is issued and never reset automatically, so a
	// sub-request is signed at most once.
	StateInFlight
	// StateSigned: finalized with a signature. Terminal.
	StateSigned
)

func (s RequestState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateInFlight:
		return "in_flight"
	case StateSigned:
		return "signed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// SignatureRequest is one signing task within a batch. Transaction is
// immutable once created; State and the signature fields are only mutated
// by the store under its lock.
type SignatureRequest struct {
	Transaction *evm.Transaction
	KeyPath     string
	State       RequestState
	Signature   *signer.MpcSignature
	SignedRaw   []byte
}

// SignatureRequestView is a read-only snapshot of a SignatureRequest.
type SignatureRequestView struct {
	Index             int    `json:"index"`
	KeyPath           string `json:"keyPath"`
	State             string `json:"state"`
	SignedTransaction string `json:"signedTransaction,omitempty"`
}

// ErrNoPendingRequests is returned by SignNext when no sub-request is
// eligible for dispatch (all signed or all in flight).
var ErrNoPendingRequests = errors.New("no pending, non-in-flight signature requests")

// ValidationError rejects a malformed or non-whitelisted transaction before
// any money moves or state is persisted.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid transaction: " + e.Reason
}

// OracleError aborts an initiation whose price quote failed or came back in
// an unexpected shape. The attached deposit is refunded in full.
type OracleError struct {
	Err error
}

func (e *OracleError) Error() string {
	return "failed to fetch price data: " + e.Err.Error()
}

func (e *OracleError) Unwrap() error { return e.Err }

// InsufficientFundsError aborts an initiation whose deposit does not cover
// the computed fee. The attached deposit is refunded in full.
type InsufficientFundsError struct {
	Deposit *big.Int
	Fee     *big.Int
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("attached deposit (%v) is less than fee (%v)", e.Deposit, e.Fee)
}

// SignerError aborts a signing call whose signer request failed or produced
// an undecodable signature. The targeted sub-request stays in flight.
type SignerError struct {
	Err error
}

func (e *SignerError) Error() string {
	return "failed to produce signature: " + e.Err.Error()
}

func (e *SignerError) Unwrap() error { return e.Err }

// NotFoundError covers unknown batch ids, out-of-range indexes and
// finalization of an already-signed entry.
type NotFoundError struct {
	Reason string
}

func (e *NotFoundError) Error() string {
	return e.Reason
}
