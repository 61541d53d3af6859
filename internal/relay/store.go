package relay

import (
	"encoding/hex"
	"fmt"
	"math"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github/chapool/go-relay/internal/relay/signer"
)

// store owns all mutable relay state: the batch map, the unique id counter,
// the flags and the whitelists. Every mutation happens under the lock and is
// committed atomically with the call that produced it; aborted calls leave
// the store untouched.
type store struct {
	mu sync.Mutex

	nextUniqueID uint64
	batches      map[uint64][]*SignatureRequest

	flags             Flags
	senderWhitelist   map[common.Address]struct{}
	receiverWhitelist map[common.Address]struct{}
}

func newStore() *store {
	return &store{
		batches:           make(map[uint64][]*SignatureRequest),
		senderWhitelist:   make(map[common.Address]struct{}),
		receiverWhitelist: make(map[common.Address]struct{}),
	}
}

// insertBatch allocates a fresh unique id and persists the batch under it.
// Counter exhaustion is a hard error, not a wraparound.
func (s *store) insertBatch(requests []*SignatureRequest) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nextUniqueID == math.MaxUint64 {
		return 0, errors.New("failed to generate unique id")
	}

	id := s.nextUniqueID
	s.nextUniqueID++
	s.batches[id] = requests

	return id, nil
}

// dispatched describes a sub-request that was just marked in flight.
type dispatched struct {
	Index   int
	Request *SignatureRequest
}

// dispatchNext selects the lowest-index sub-request that is pending and not
// in flight, marks it in flight and returns it. The mark happens inside the
// same critical section as the scan, so two racing calls can never select
// the same entry.
func (s *store) dispatchNext(id uint64) (*dispatched, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch, ok := s.batches[id]
	if !ok {
		return nil, &NotFoundError{Reason: fmt.Sprintf("transaction signature request %d not found", id)}
	}

	for i, request := range batch {
		if request.State != StatePending {
			continue
		}

		request.State = StateInFlight

		return &dispatched{Index: i, Request: request}, nil
	}

	return nil, ErrNoPendingRequests
}

// inFlightRequest re-fetches a batch entry for finalization. An entry that
// is already signed is rejected: a stale resumption must never overwrite a
// committed signature.
func (s *store) inFlightRequest(id uint64, index int) (*SignatureRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, err := s.request(id, index)
	if err != nil {
		return nil, err
	}

	if request.State == StateSigned {
		return nil, &NotFoundError{Reason: fmt.Sprintf("signature request %d.%d has already been signed", id, index)}
	}

	return request, nil
}

// finalizeSignature attaches the signature to the sub-request and marks it
// signed. Finalizing an entry that is already signed is an error: it means a
// stale resumption fired after some other completion.
func (s *store) finalizeSignature(id uint64, index int, sig *signer.MpcSignature, signedRaw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, err := s.request(id, index)
	if err != nil {
		return err
	}

	if request.State == StateSigned {
		return &NotFoundError{Reason: fmt.Sprintf("signature request %d.%d has already been signed", id, index)}
	}

	request.State = StateSigned
	request.Signature = sig
	request.SignedRaw = signedRaw

	return nil
}

// recoverRequest resets an in-flight sub-request back to pending. Only valid
// for entries stuck after a failed signer call.
func (s *store) recoverRequest(id uint64, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, err := s.request(id, index)
	if err != nil {
		return err
	}

	if request.State != StateInFlight {
		return &NotFoundError{Reason: fmt.Sprintf("signature request %d.%d is not in flight", id, index)}
	}

	request.State = StatePending

	return nil
}

// batchView returns a read-only snapshot of the batch.
func (s *store) batchView(id uint64) ([]SignatureRequestView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch, ok := s.batches[id]
	if !ok {
		return nil, &NotFoundError{Reason: fmt.Sprintf("transaction signature request %d not found", id)}
	}

	views := make([]SignatureRequestView, 0, len(batch))
	for i, request := range batch {
		view := SignatureRequestView{
			Index:   i,
			KeyPath: request.KeyPath,
			State:   request.State.String(),
		}
		if request.State == StateSigned {
			view.SignedTransaction = hex.EncodeToString(request.SignedRaw)
		}
		views = append(views, view)
	}

	return views, nil
}

// request returns the batch entry, caller must hold s.mu.
func (s *store) request(id uint64, index int) (*SignatureRequest, error) {
	batch, ok := s.batches[id]
	if !ok {
		return nil, &NotFoundError{Reason: fmt.Sprintf("pending transaction %d not found", id)}
	}

	if index < 0 || index >= len(batch) {
		return nil, &NotFoundError{Reason: fmt.Sprintf("signature request %d.%d not found in transaction", id, index)}
	}

	return batch[index], nil
}

func (s *store) getFlags() Flags {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.flags
}

func (s *store) setFlags(flags Flags) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.flags = flags
}

func (s *store) whitelist(kind WhitelistKind) (map[common.Address]struct{}, error) {
	switch kind {
	case WhitelistSender:
		return s.senderWhitelist, nil
	case WhitelistReceiver:
		return s.receiverWhitelist, nil
	default:
		return nil, errors.Errorf("unknown whitelist kind %q", kind)
	}
}

func (s *store) whitelistMembers(kind WhitelistKind) ([]common.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.whitelist(kind)
	if err != nil {
		return nil, err
	}

	members := make([]common.Address, 0, len(list))
	for address := range list {
		members = append(members, address)
	}

	return members, nil
}

func (s *store) addToWhitelist(kind WhitelistKind, addresses []common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.whitelist(kind)
	if err != nil {
		return err
	}

	for _, address := range addresses {
		list[address] = struct{}{}
	}

	return nil
}

func (s *store) removeFromWhitelist(kind WhitelistKind, addresses []common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.whitelist(kind)
	if err != nil {
		return err
	}

	for _, address := range addresses {
		delete(list, address)
	}

	return nil
}

func (s *store) clearWhitelist(kind WhitelistKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch kind {
	case WhitelistSender:
		s.senderWhitelist = make(map[common.Address]struct{})
	case WhitelistReceiver:
		s.receiverWhitelist = make(map[common.Address]struct{})
	default:
		return errors.Errorf("unknown whitelist kind %q", kind)
	}

	return nil
}

// whitelisted reports membership; used by the validator.
func (s *store) whitelisted(kind WhitelistKind, address common.Address) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.whitelist(kind)
	if err != nil {
		return false
	}

	_, ok := list[address]

	return ok
}
