package settle

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"custodia/core/events"
	"custodia/native/access"
	"custodia/native/guard"
	"custodia/observability"
	"custodia/registry"
)

var (
	ErrPaused          = errors.New("settle: protocol paused")
	ErrUnauthorized    = errors.New("settle: caller lacks required role")
	ErrOfferNotFound   = errors.New("settle: offer not found")
	ErrTokenOutOfRange = errors.New("settle: token outside offer range")
	ErrAlreadySettled  = errors.New("settle: token already settled")

	errNilState       = errors.New("settle: state not configured")
	errNilMarketplace = errors.New("settle: marketplace not configured")
	errNilProtocol    = errors.New("settle: settlement protocol not configured")
)

// Marketplace is the external settlement surface of the marketplace the
// wrapped item was listed on. Settle finalises the sale and reports the gross
// payment together with the marketplace's own fee, computed by its fee
// schedule; the engine observes that fee rather than recomputing it. The
// implementation is untrusted code.
type Marketplace interface {
	Settle(tokenID uint64) (gross *big.Int, fee *big.Int, err error)
}

// Protocol is the external escrow/exchange protocol that encumbers and later
// releases the sale proceeds. It exposes the base protocol fee it applies and
// performs the encumbrance. The implementation is untrusted code.
type Protocol interface {
	BaseFeeBps() (uint32, error)
	Encumber(tokenID uint64, b *Breakdown) error
}

// State is the registry surface the engine reads and writes.
type State interface {
	TokenPut(*registry.TokenLookup) error
	TokenGet(tokenID uint64) (*registry.TokenLookup, bool, error)
	OfferGet(offerID uint64) (*registry.OfferLookup, bool, error)
}

// RoleView authorizes the settlement entry point.
type RoleView interface {
	HasRole(role string, principal [20]byte) bool
}

// PauseView reports the protocol-wide pause switch.
type PauseView interface {
	IsPaused() bool
}

// Engine drives the unwrap/settlement pipeline: it observes the marketplace
// settlement, decomposes the gross payment into fee buckets, encumbers the
// proceeds with the external settlement protocol, persists the split and
// opens the verification window.
type Engine struct {
	state       State
	roles       RoleView
	pause       PauseView
	marketplace Marketplace
	protocol    Protocol
	reentrancy  *guard.Guard
	emitter     events.Emitter
	log         *slog.Logger

	defaultVerificationTimeout time.Duration
	maxVerificationTimeout     time.Duration
	maxBaseFeeBps              uint32

	nowFn func() int64
}

// NewEngine creates a settlement engine. The self address identifies the
// system's own call frames to the reentrancy guard.
func NewEngine(self [20]byte, state State, roles RoleView, pause PauseView, marketplace Marketplace, protocol Protocol) *Engine {
	return &Engine{
		state:       state,
		roles:       roles,
		pause:       pause,
		marketplace: marketplace,
		protocol:    protocol,
		reentrancy:  guard.New(self),
		emitter:     events.NoopEmitter{},
		log:         slog.Default(),
		nowFn:       func() int64 { return time.Now().Unix() },
	}
}

// SetTimeouts configures the verification window recorded against each sale.
func (e *Engine) SetTimeouts(defaultTimeout, maxTimeout time.Duration) {
	e.defaultVerificationTimeout = defaultTimeout
	e.maxVerificationTimeout = maxTimeout
}

// SetMaxBaseFeeBps caps the base fee the external protocol may report.
func (e *Engine) SetMaxBaseFeeBps(bps uint32) { e.maxBaseFeeBps = bps }

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetLogger overrides the engine logger. Passing nil resets to the default.
func (e *Engine) SetLogger(log *slog.Logger) {
	if log == nil {
		e.log = slog.Default()
		return
	}
	e.log = log
}

// SetNowFunc overrides the time source. Intended for tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(evt *events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// Settle runs the settlement pipeline for one token. The reentrancy guard is
// held across both external calls; a re-entry attempt from outside the system
// fails with guard.ErrReentered while the engine's own address may compose
// further entry points. Any external failure aborts before the first write,
// so no partial fee state is ever persisted.
func (e *Engine) Settle(caller [20]byte, offerID, tokenID uint64) (*Receipt, error) {
	receipt, err := e.settle(caller, offerID, tokenID)
	if err != nil {
		if !errors.Is(err, guard.ErrReentered) {
			observability.Metrics().Settlements.WithLabelValues("error").Inc()
		}
		return nil, err
	}
	observability.Metrics().Settlements.WithLabelValues("ok").Inc()
	return receipt, nil
}

func (e *Engine) settle(caller [20]byte, offerID, tokenID uint64) (*Receipt, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.marketplace == nil {
		return nil, errNilMarketplace
	}
	if e.protocol == nil {
		return nil, errNilProtocol
	}
	if e.pause != nil && e.pause.IsPaused() {
		return nil, ErrPaused
	}
	if e.roles == nil || !e.roles.HasRole(access.RoleFeeCollector, caller) {
		return nil, ErrUnauthorized
	}
	release, err := e.reentrancy.Enter(caller)
	if err != nil {
		return nil, err
	}
	defer release()

	offer, ok, err := e.state.OfferGet(offerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrOfferNotFound
	}
	if offer.ItemQuantity > 0 && !offer.ContainsToken(tokenID) {
		return nil, ErrTokenOutOfRange
	}
	if existing, ok, err := e.state.TokenGet(tokenID); err != nil {
		return nil, err
	} else if ok && existing.BaseFee.Sign() != 0 {
		return nil, ErrAlreadySettled
	}

	// Control leaves the trust boundary here: the marketplace finalises the
	// sale and reports the gross payment and its own fee.
	gross, marketplaceFee, err := e.marketplace.Settle(tokenID)
	if err != nil {
		return nil, fmt.Errorf("settle: marketplace settlement: %w", err)
	}
	baseFeeBps, err := e.protocol.BaseFeeBps()
	if err != nil {
		return nil, fmt.Errorf("settle: base fee lookup: %w", err)
	}
	if e.maxBaseFeeBps > 0 && baseFeeBps > e.maxBaseFeeBps {
		return nil, fmt.Errorf("%w: base fee %d bps", ErrBpsOutOfRange, baseFeeBps)
	}

	breakdown, err := Decompose(tokenID, gross, marketplaceFee, baseFeeBps, offer.VerifierFee, offer.FacilitatorFeeBps)
	if err != nil {
		return nil, err
	}

	// Second suspension point: the settlement protocol encumbers the
	// proceeds. Failure aborts with nothing persisted.
	if err := e.protocol.Encumber(tokenID, breakdown.Clone()); err != nil {
		return nil, fmt.Errorf("settle: encumber: %w", err)
	}

	now := e.now()
	deadline := now + int64(e.defaultVerificationTimeout/time.Second)
	maxDeadline := now + int64(e.maxVerificationTimeout/time.Second)

	if err := e.state.TokenPut(&registry.TokenLookup{
		TokenID:        tokenID,
		Price:          breakdown.Gross,
		MarketplaceFee: breakdown.MarketplaceFee,
		BaseFee:        breakdown.BaseFee,
		VerifierFee:    breakdown.VerifierFee,
		FacilitatorFee: breakdown.FacilitatorFee,
	}); err != nil {
		return nil, err
	}

	e.emit(NewVerificationInitiatedEvent(offerID, offer.VerifierID, tokenID, deadline, maxDeadline))
	e.emit(NewItemPriceObservedEvent(breakdown))
	e.log.Info("settlement recorded",
		"tokenId", tokenID,
		"offerId", offerID,
		"gross", breakdown.Gross.String(),
		"net", breakdown.Net.String(),
	)

	return &Receipt{
		OfferID:     offerID,
		VerifierID:  offer.VerifierID,
		Breakdown:   breakdown,
		Deadline:    deadline,
		MaxDeadline: maxDeadline,
	}, nil
}
