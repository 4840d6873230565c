// Package accumulate collects elder signature shares over plain messages
// and finalizes a section-authority message once a quorum is reached.
package accumulate

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/sectormesh/routing/messages"
	"github.com/sectormesh/routing/section"
	"github.com/sectormesh/routing/xorname"
)

// Sentinel errors for share rejection. A rejected share never advances the
// accumulation state.
var (
	ErrUnknownElder       = errors.New("accumulate: signer is not a current elder")
	ErrShareIndexMismatch = errors.New("accumulate: share index does not match the signer's")
	ErrInvalidShare       = errors.New("accumulate: signature share does not verify")
)

// Outcome classifies what an accepted share did to the accumulation state.
type Outcome int

const (
	// OutcomeAccepted: the share was stored; quorum not yet reached.
	OutcomeAccepted Outcome = iota + 1
	// OutcomeDuplicate: a share from this elder was already stored, or the
	// message was already finalized. No state change.
	OutcomeDuplicate
	// OutcomeFinalized: this share completed the quorum and Result.Message
	// carries the finalized section-authority message.
	OutcomeFinalized
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "Accepted"
	case OutcomeDuplicate:
		return "Duplicate"
	case OutcomeFinalized:
		return "Finalized"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Result is the outcome of AddShare. Message is non-nil exactly when
// Outcome is OutcomeFinalized.
type Result struct {
	Outcome Outcome
	Message *messages.Message
}

// MembershipProvider is the accumulator's view of the section it signs
// for. Both methods return the current state; the accumulator re-reads
// them at every share so membership changes take effect immediately.
type MembershipProvider interface {
	CurrentElders() *section.EldersInfo
	ProofChain() *section.ProofChain
}

// Accumulator gathers signature shares per plain message.
//
// State is keyed by the canonical signing bytes, so elders contributing to
// the same (dst, dst_key, variant) converge on one entry regardless of who
// started it. Each message finalizes at most once; shares arriving after
// finalization are duplicates.
type Accumulator struct {
	members MembershipProvider
	logger  *zap.Logger

	mu        sync.Mutex
	pending   map[string]*entry
	completed map[string]struct{}
}

type entry struct {
	plain  messages.PlainMessage
	shares map[xorname.XorName][]byte
}

// New creates an empty accumulator over the given membership view.
func New(members MembershipProvider, logger *zap.Logger) *Accumulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Accumulator{
		members:   members,
		logger:    logger,
		pending:   make(map[string]*entry),
		completed: make(map[string]struct{}),
	}
}

// AddShare validates and stores one elder's signature share over plain.
//
// The share is checked against the current elder set before it is stored:
// the signer must be a current elder, the index embedded in the share must
// be the signer's, and the share must verify under the section's public
// polynomial. Membership is checked again at combination time, so a share
// stored under an older elder set cannot leak into the final signature.
func (a *Accumulator) AddShare(plain messages.PlainMessage, elder xorname.XorName, sigShare []byte) (Result, error) {
	signing, err := plain.SigningBytes()
	if err != nil {
		return Result{}, err
	}

	elders := a.members.CurrentElders()
	if elders == nil {
		return Result{}, errors.New("accumulate: no current elder set")
	}
	wantIdx, ok := elders.IndexOf(elder)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownElder, elder)
	}
	gotIdx, err := section.ShareIndex(sigShare)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidShare, err)
	}
	if gotIdx != wantIdx {
		return Result{}, fmt.Errorf("%w: share index %d, elder %s signs at %d", ErrShareIndexMismatch, gotIdx, elder, wantIdx)
	}
	if err := section.VerifyShare(elders.PubPoly(), signing, sigShare); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidShare, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	key := string(signing)
	if _, done := a.completed[key]; done {
		return Result{Outcome: OutcomeDuplicate}, nil
	}
	e, ok := a.pending[key]
	if !ok {
		e = &entry{plain: plain, shares: make(map[xorname.XorName][]byte)}
		a.pending[key] = e
	}
	if _, dup := e.shares[elder]; dup {
		return Result{Outcome: OutcomeDuplicate}, nil
	}
	e.shares[elder] = append([]byte(nil), sigShare...)

	a.logger.Debug("share accepted",
		zap.Stringer("elder", elder),
		zap.Int("index", wantIdx),
		zap.Int("shares", len(e.shares)),
		zap.Int("threshold", elders.Threshold()),
	)

	msg, ok, err := a.tryFinalizeLocked(key, e, elders)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{Outcome: OutcomeAccepted}, nil
	}
	return Result{Outcome: OutcomeFinalized, Message: msg}, nil
}

// tryFinalizeLocked combines the stored shares if the current elder set
// still yields a quorum. Shares from elders who have since left, or whose
// index moved, are excluded from the combination (but retained, in case a
// later elder set readmits them).
func (a *Accumulator) tryFinalizeLocked(key string, e *entry, elders *section.EldersInfo) (*messages.Message, bool, error) {
	valid := make([][]byte, 0, len(e.shares))
	maxN := elders.Count()
	for name, sig := range e.shares {
		idx, ok := elders.IndexOf(name)
		if !ok {
			continue
		}
		gotIdx, err := section.ShareIndex(sig)
		if err != nil || gotIdx != idx {
			continue
		}
		if idx+1 > maxN {
			maxN = idx + 1
		}
		valid = append(valid, sig)
	}
	if len(valid) < elders.Threshold() {
		return nil, false, nil
	}

	signing, err := e.plain.SigningBytes()
	if err != nil {
		return nil, false, err
	}
	sig, err := section.RecoverCollective(elders.PubPoly(), signing, valid, elders.Threshold(), maxN)
	if err != nil {
		return nil, false, fmt.Errorf("accumulate: combining %d shares: %w", len(valid), err)
	}
	if err := section.VerifyCollective(elders.PublicKey(), signing, sig); err != nil {
		return nil, false, fmt.Errorf("accumulate: combined signature does not verify: %w", err)
	}

	proof := a.members.ProofChain()
	if proof == nil {
		return nil, false, errors.New("accumulate: no proof chain for the current key")
	}
	msg, err := messages.NewSectionSigned(elders.Prefix(), proof, sig, e.plain.Dst, e.plain.DstKey, e.plain.Variant)
	if err != nil {
		return nil, false, err
	}

	delete(a.pending, key)
	a.completed[key] = struct{}{}

	a.logger.Info("message finalized",
		zap.Stringer("hash", msg.Hash()),
		zap.Stringer("dst", msg.Dst()),
		zap.Int("shares", len(valid)),
	)
	return msg, true, nil
}

// Discard drops any accumulation state for plain, finalized or not.
func (a *Accumulator) Discard(plain messages.PlainMessage) error {
	signing, err := plain.SigningBytes()
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.pending, string(signing))
	delete(a.completed, string(signing))
	return nil
}

// PendingLen returns the number of messages with partial quorums.
func (a *Accumulator) PendingLen() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}
