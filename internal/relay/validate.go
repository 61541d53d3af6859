package relay

import (
	"github.com/pkg/errors"
	"github/chapool/go-relay/internal/relay/evm"
)

// validateTransaction applies the inbound transaction rules. It is read-only
// and runs before the deposit is attached, so a failure leaves no state
// behind. All rules must pass:
//   - gas and gas price explicitly present (no fee estimation)
//   - chain id explicitly present
//   - sender explicitly present (the paymaster reimburses it)
//   - receiver is a literal address; no receiver means contract deployment,
//     which is not allowed
//   - whitelist membership when the corresponding flag is enabled
func (s *service) validateTransaction(transaction *evm.Transaction) error {
	if transaction.Gas == nil || transaction.GasPrice == nil {
		return &ValidationError{Reason: "gas must be explicitly specified"}
	}

	if transaction.ChainID == nil {
		return &ValidationError{Reason: "chain id must be explicitly specified"}
	}

	if transaction.From == nil {
		return &ValidationError{Reason: "sender must be explicitly specified"}
	}

	receiver, err := transaction.Receiver()
	if err != nil {
		if errors.Is(err, evm.ErrNameReceiver) {
			return &ValidationError{Reason: "name receivers are not supported"}
		}

		return &ValidationError{Reason: err.Error()}
	}

	if receiver == nil {
		return &ValidationError{Reason: "deployment is not allowed"}
	}

	flags := s.store.getFlags()

	if flags.IsReceiverWhitelistEnabled && !s.store.whitelisted(WhitelistReceiver, *receiver) {
		return &ValidationError{Reason: "receiver is not whitelisted"}
	}

	if flags.IsSenderWhitelistEnabled && !s.store.whitelisted(WhitelistSender, *transaction.From) {
		return &ValidationError{Reason: "sender is not whitelisted"}
	}

	return nil
}
