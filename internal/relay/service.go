package relay

import (
	"context"
	"encoding/hex"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/go-relay/internal/config"
	"github/chapool/go-relay/internal/metrics"
	"github/chapool/go-relay/internal/relay/evm"
	"github/chapool/go-relay/internal/relay/ledger"
	"github/chapool/go-relay/internal/relay/oracle"
	"github/chapool/go-relay/internal/relay/signer"
)

type service struct {
	store   *store
	oracle  oracle.Service
	signer  signer.Service
	ledger  ledger.Service
	metrics *metrics.Service

	accountID        string
	paymasterKeyPath string
	localAssetID     string
	xchainAssetID    string
	priceScale       oracle.Ratio
}

// NewService creates the relay orchestrator. It is the exclusive owner of
// the batch map and the unique id counter.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(
	cfg config.Server,
	oracleService oracle.Service,
	signerService signer.Service,
	ledgerService ledger.Service,
	metricsService *metrics.Service,
) (Service, error) {
	if cfg.Relay.PriceScaleDen == 0 {
		return nil, errors.New("price scale denominator must be positive")
	}

	return &service{
		store:            newStore(),
		oracle:           oracleService,
		signer:           signerService,
		ledger:           ledgerService,
		metrics:          metricsService,
		accountID:        cfg.Relay.AccountID,
		paymasterKeyPath: cfg.Relay.PaymasterKeyPath,
		localAssetID:     cfg.Oracle.LocalAssetID,
		xchainAssetID:    cfg.Oracle.XChainAssetID,
		priceScale:       oracle.NewRatio(cfg.Relay.PriceScaleNum, cfg.Relay.PriceScaleDen),
	}, nil
}

func (s *service) InitiateTransaction(ctx context.Context, caller string, params InitiateTransactionParams) (*TransactionInitiation, error) {
	deposit := params.Deposit
	if deposit == nil || deposit.Sign() <= 0 {
		return nil, &ValidationError{Reason: "deposit is required to pay for gas"}
	}

	transaction, err := extractTransaction(params)
	if err != nil {
		return nil, err
	}

	if err := s.validateTransaction(transaction); err != nil {
		return nil, err
	}

	s.metrics.InitiationsStarted.Inc()

	// Attach the deposit: move it from the caller to the relay account.
	// Every abort beyond this point refunds it in full.
	if err := s.ledger.Transfer(ctx, caller, s.accountID, deposit); err != nil {
		return nil, errors.Wrap(err, "failed to attach deposit")
	}

	price, err := s.oracle.GetGasTokenPrice(ctx, s.localAssetID, s.xchainAssetID)
	if err != nil {
		s.abortSettled(ctx, caller, deposit)
		return nil, &OracleError{Err: err}
	}

	// Validation ensures gas and gas price are set.
	tokensForGas := transaction.TokensForGas()

	fee := transactionFee(price.LocalPerXChain, s.priceScale, tokensForGas)

	if deposit.Cmp(fee) < 0 {
		s.abortSettled(ctx, caller, deposit)
		return nil, &InsufficientFundsError{Deposit: deposit, Fee: fee}
	}

	if refund := new(big.Int).Sub(deposit, fee); refund.Sign() > 0 {
		if err := s.ledger.Transfer(ctx, s.accountID, caller, refund); err != nil {
			return nil, errors.Wrap(err, "failed to refund excess deposit")
		}
		s.metrics.RefundsIssued.Inc()
	}

	requests := []*SignatureRequest{
		{
			Transaction: s.paymasterTransaction(transaction, tokensForGas),
			KeyPath:     s.paymasterKeyPath,
			State:       StatePending,
		},
		{
			Transaction: transaction,
			KeyPath:     caller,
			State:       StatePending,
		},
	}

	id, err := s.store.insertBatch(requests)
	if err != nil {
		return nil, err
	}

	s.metrics.InitiationsSettled.Inc()

	log.Info().
		Uint64("id", id).
		Str("caller", caller).
		Str("fee", fee.String()).
		Msg("Persisted transaction signature batch")

	return &TransactionInitiation{
		ID:                    id,
		PendingSignatureCount: len(requests),
	}, nil
}

// abortSettled refunds the full attached deposit after an abort that happens
// once the deposit has already been moved to the relay account.
func (s *service) abortSettled(ctx context.Context, caller string, deposit *big.Int) {
	s.metrics.InitiationsAborted.Inc()

	if err := s.ledger.Transfer(ctx, s.accountID, caller, deposit); err != nil {
		// The deposit stays on the relay account; recoverable by hand.
		log.Error().
			Err(err).
			Str("caller", caller).
			Str("deposit", deposit.String()).
			Msg("Failed to refund deposit after aborted initiation")
	}
}

// paymasterTransaction builds the reimbursement transaction: it fronts the
// gas-token amount to the original sender on the same chain. The signing key
// is selected later via the fixed paymaster key path.
func (s *service) paymasterTransaction(original *evm.Transaction, tokensForGas *big.Int) *evm.Transaction {
	to := original.From.Hex()

	return &evm.Transaction{
		ChainID: original.ChainID,
		To:      &to,
		Value:   (*hexutil.Big)(tokensForGas),
	}
}

func (s *service) SignNext(ctx context.Context, id uint64) (string, error) {
	// Step one: select and mark the sub-request in the same atomic state
	// transition, before anything is sent to the signer.
	next, err := s.store.dispatchNext(id)
	if err != nil {
		return "", err
	}

	s.metrics.SignaturesDispatched.Inc()

	digest, err := next.Request.Transaction.SigningDigest()
	if err != nil {
		s.metrics.SignaturesFailed.Inc()
		return "", &SignerError{Err: err}
	}

	// Step two: the suspended external call.
	sig, err := s.signer.Sign(ctx, [32]byte(digest), next.Request.KeyPath)
	if err != nil {
		// The entry stays in flight: re-signing could double-spend the
		// paymaster funds. RecoverRequest is the explicit way out.
		s.metrics.SignaturesFailed.Inc()
		log.Warn().
			Err(err).
			Uint64("id", id).
			Int("index", next.Index).
			Msg("Signer call failed, sub-request remains in flight")

		return "", &SignerError{Err: err}
	}

	// Step three: finalize against the re-fetched entry.
	return s.finalizeSignature(id, next.Index, sig)
}

// finalizeSignature is the resumption half of SignNext: it decodes the
// signer result, produces the signed wire encoding and commits the state
// transition to signed.
func (s *service) finalizeSignature(id uint64, index int, sig *signer.MpcSignature) (string, error) {
	next, err := s.store.inFlightRequest(id, index)
	if err != nil {
		return "", err
	}

	sigBytes, err := sig.ToBytes()
	if err != nil {
		s.metrics.SignaturesFailed.Inc()
		return "", &SignerError{Err: errors.Wrap(err, "failed to decode signature")}
	}

	signedRaw, err := next.Transaction.EncodeSigned(sigBytes)
	if err != nil {
		s.metrics.SignaturesFailed.Inc()
		return "", &SignerError{Err: err}
	}

	if err := s.store.finalizeSignature(id, index, sig, signedRaw); err != nil {
		return "", err
	}

	s.metrics.SignaturesCompleted.Inc()

	log.Info().
		Uint64("id", id).
		Int("index", index).
		Msg("Finalized transaction signature")

	return hex.EncodeToString(signedRaw), nil
}

func (s *service) GetBatch(_ context.Context, id uint64) ([]SignatureRequestView, error) {
	return s.store.batchView(id)
}

func (s *service) RecoverRequest(_ context.Context, id uint64, index int) error {
	if err := s.store.recoverRequest(id, index); err != nil {
		return err
	}

	log.Warn().
		Uint64("id", id).
		Int("index", index).
		Msg("Reset in-flight signature request to pending")

	return nil
}

func (s *service) GetFlags(_ context.Context) Flags {
	return s.store.getFlags()
}

func (s *service) SetFlags(_ context.Context, flags Flags) {
	s.store.setFlags(flags)
}

func (s *service) GetWhitelist(_ context.Context, kind WhitelistKind) ([]common.Address, error) {
	return s.store.whitelistMembers(kind)
}

func (s *service) AddToWhitelist(_ context.Context, kind WhitelistKind, addresses []common.Address) error {
	return s.store.addToWhitelist(kind, addresses)
}

func (s *service) RemoveFromWhitelist(_ context.Context, kind WhitelistKind, addresses []common.Address) error {
	return s.store.removeFromWhitelist(kind, addresses)
}

func (s *service) ClearWhitelist(_ context.Context, kind WhitelistKind) error {
	return s.store.clearWhitelist(kind)
}

// extractTransaction resolves the two optional transaction representations:
// exactly one must be supplied.
func extractTransaction(params InitiateTransactionParams) (*evm.Transaction, error) {
	switch {
	case params.TransactionJSON != nil && params.TransactionRLP != nil:
		return nil, &ValidationError{Reason: "supply either transactionJson or transactionRlp, not both"}
	case params.TransactionJSON != nil:
		return params.TransactionJSON, nil
	case params.TransactionRLP != nil:
		transaction, err := evm.DecodeRLP(*params.TransactionRLP)
		if err != nil {
			return nil, &ValidationError{Reason: err.Error()}
		}

		return transaction, nil
	default:
		return nil, &ValidationError{Reason: "a transaction must be provided in transactionJson or transactionRlp"}
	}
}
