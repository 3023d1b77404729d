package migrate

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"custodia/core/events"
	"custodia/native/access"
	"custodia/observability"
	"custodia/registry"
)

var (
	ErrUnauthorized  = errors.New("migrate: caller lacks required role")
	ErrTokenNotFound = errors.New("migrate: token not found")

	errNilState = errors.New("migrate: state not configured")
)

// TokenFeeEntry is one externally pre-computed fee correction for a token
// whose record predates fee accounting.
type TokenFeeEntry struct {
	TokenID        uint64
	MarketplaceFee *big.Int
	BaseFee        *big.Int
	VerifierFee    *big.Int
	FacilitatorFee *big.Int
}

// OfferDataEntry is one externally pre-computed correction for an offer whose
// creation path omitted the quantity and first-token-id fields.
type OfferDataEntry struct {
	OfferID      uint64
	ItemQuantity uint64
	FirstTokenID uint64
}

// State is the registry surface the facility reads and writes.
type State interface {
	TokenPut(*registry.TokenLookup) error
	TokenGet(tokenID uint64) (*registry.TokenLookup, bool, error)
	OfferPut(*registry.OfferLookup) error
	OfferGet(offerID uint64) (*registry.OfferLookup, bool, error)
}

// RoleView authorizes the upgrade-time entry points.
type RoleView interface {
	HasRole(role string, principal [20]byte) bool
}

// Facility holds the one-time, data-driven correction routines executed
// during version upgrades. Corrections are supplied pre-computed; nothing is
// recomputed here.
type Facility struct {
	state   State
	roles   RoleView
	emitter events.Emitter
	log     *slog.Logger
}

// NewFacility creates a backfill facility over the supplied state.
func NewFacility(state State, roles RoleView) *Facility {
	return &Facility{
		state:   state,
		roles:   roles,
		emitter: events.NoopEmitter{},
		log:     slog.Default(),
	}
}

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (f *Facility) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		f.emitter = events.NoopEmitter{}
		return
	}
	f.emitter = emitter
}

// SetLogger overrides the facility logger. Passing nil resets to the default.
func (f *Facility) SetLogger(log *slog.Logger) {
	if log == nil {
		f.log = slog.Default()
		return
	}
	f.log = log
}

func (f *Facility) emit(evt *events.Event) {
	if f == nil || f.emitter == nil || evt == nil {
		return
	}
	f.emitter.Emit(evt)
}

func (f *Facility) authorize(caller [20]byte) error {
	if f.roles == nil || !f.roles.HasRole(access.RoleUpgrader, caller) {
		return ErrUnauthorized
	}
	return nil
}

// BackfillTokenFees populates the fee components of the listed tokens.
// Tokens whose base fee component is already populated are skipped, which
// makes the batch safely re-runnable over a superset of previously processed
// ids: a second run over overlapping entries leaves state untouched. For each
// applied entry the recorded gross price grows by the base fee component,
// reconstructing what the original settlement flow would have recorded, and a
// per-record event carries the breakdown plus the pre-backfill price.
func (f *Facility) BackfillTokenFees(caller [20]byte, entries []TokenFeeEntry) (applied, skipped int, err error) {
	if f == nil || f.state == nil {
		return 0, 0, errNilState
	}
	if err := f.authorize(caller); err != nil {
		return 0, 0, err
	}
	// Validate the whole batch before the first write so a malformed entry
	// cannot leave a partially applied migration behind.
	for _, entry := range entries {
		if err := validateFees(entry); err != nil {
			return 0, 0, err
		}
		if _, ok, err := f.state.TokenGet(entry.TokenID); err != nil {
			return 0, 0, err
		} else if !ok {
			return 0, 0, fmt.Errorf("%w: %d", ErrTokenNotFound, entry.TokenID)
		}
	}
	for _, entry := range entries {
		token, _, err := f.state.TokenGet(entry.TokenID)
		if err != nil {
			return applied, skipped, err
		}
		if token.BaseFee.Sign() != 0 {
			skipped++
			observability.Metrics().BackfillRecords.WithLabelValues("token_fees", "skipped").Inc()
			f.log.Debug("token fees already populated", "tokenId", entry.TokenID)
			continue
		}
		priorPrice := new(big.Int).Set(token.Price)
		token.MarketplaceFee = cloneBigInt(entry.MarketplaceFee)
		token.BaseFee = cloneBigInt(entry.BaseFee)
		token.VerifierFee = cloneBigInt(entry.VerifierFee)
		token.FacilitatorFee = cloneBigInt(entry.FacilitatorFee)
		token.Price = new(big.Int).Add(priorPrice, token.BaseFee)
		if err := f.state.TokenPut(token); err != nil {
			return applied, skipped, err
		}
		applied++
		observability.Metrics().BackfillRecords.WithLabelValues("token_fees", "applied").Inc()
		f.emit(NewFeesBackfilledEvent(token, priorPrice))
	}
	return applied, skipped, nil
}

// BackfillOfferData overwrites the quantity and first-token-id of the listed
// offers unconditionally. These fields were wholly absent before this record
// version, never partially written, so overwrite-on-replay is safe and no
// populated-check applies; the fee terms agreed at offer creation are
// preserved.
func (f *Facility) BackfillOfferData(caller [20]byte, entries []OfferDataEntry) error {
	if f == nil || f.state == nil {
		return errNilState
	}
	if err := f.authorize(caller); err != nil {
		return err
	}
	for _, entry := range entries {
		offer, ok, err := f.state.OfferGet(entry.OfferID)
		if err != nil {
			return err
		}
		if !ok {
			offer = &registry.OfferLookup{OfferID: entry.OfferID}
		}
		offer.ItemQuantity = entry.ItemQuantity
		offer.FirstTokenID = entry.FirstTokenID
		if err := f.state.OfferPut(offer); err != nil {
			return err
		}
		observability.Metrics().BackfillRecords.WithLabelValues("offer_data", "applied").Inc()
		f.emit(NewOfferDataBackfilledEvent(offer))
	}
	return nil
}

func validateFees(entry TokenFeeEntry) error {
	for name, amount := range map[string]*big.Int{
		"marketplace fee": entry.MarketplaceFee,
		"base fee":        entry.BaseFee,
		"verifier fee":    entry.VerifierFee,
		"facilitator fee": entry.FacilitatorFee,
	} {
		if amount != nil && amount.Sign() < 0 {
			return fmt.Errorf("migrate: token %d: negative %s", entry.TokenID, name)
		}
	}
	return nil
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
