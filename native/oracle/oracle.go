package oracle

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"custodia/core/events"
	"custodia/native/access"
	"custodia/observability"
	"custodia/registry"
)

var (
	// ErrInvalidPrice covers every unusable feed reading: non-positive
	// answers and reports older than the configured staleness period.
	ErrInvalidPrice = errors.New("oracle: invalid price")
	// ErrStalePrice narrows ErrInvalidPrice to the staleness case.
	ErrStalePrice = fmt.Errorf("%w: stale report", ErrInvalidPrice)

	ErrInvalidFeedAddress   = errors.New("oracle: invalid feed address")
	ErrStalenessOutOfBounds = errors.New("oracle: staleness period out of bounds")
	ErrFeedNotConfigured    = errors.New("oracle: price feed not configured")
	ErrUnauthorized         = errors.New("oracle: caller lacks required role")

	errNilState = errors.New("oracle: state not configured")
)

// PriceFeed is the external round-data surface the adapter consumes: the
// latest reported value and the timestamp the report was produced.
type PriceFeed interface {
	LatestRound() (answer *big.Int, updatedAt int64, err error)
}

// Resolver materialises the feed behind a configured address. The adapter
// holds no feed handles of its own so a feed swap takes effect on the next
// read.
type Resolver interface {
	Resolve(addr [20]byte) (PriceFeed, error)
}

// State is the registry surface holding the singleton feed configuration.
type State interface {
	OracleConfigPut(*registry.PriceFeedConfig) error
	OracleConfig() (*registry.PriceFeedConfig, bool, error)
}

// RoleView authorizes the administrator-only mutations.
type RoleView interface {
	HasRole(role string, principal [20]byte) bool
}

// Bounds is the fixed legal range for the staleness period. The range itself
// is deployment configuration; the adapter clamps every update against it so
// staleness protection cannot be disabled by a bad value.
type Bounds struct {
	MinStaleness uint64
	MaxStaleness uint64
	// DefaultStaleness seeds a fresh configuration when the feed is set
	// before any staleness period was chosen.
	DefaultStaleness uint64
}

// Adapter wraps the external price feed with freshness validation. It caches
// nothing: every GetPrice re-reads the upstream feed.
type Adapter struct {
	state    State
	roles    RoleView
	resolver Resolver
	emitter  events.Emitter
	bounds   Bounds
	nowFn    func() int64
}

// NewAdapter creates a price oracle adapter over the supplied state and feed
// resolver.
func NewAdapter(state State, roles RoleView, resolver Resolver, bounds Bounds) *Adapter {
	return &Adapter{
		state:    state,
		roles:    roles,
		resolver: resolver,
		emitter:  events.NoopEmitter{},
		bounds:   bounds,
		nowFn:    func() int64 { return time.Now().Unix() },
	}
}

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (a *Adapter) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		a.emitter = events.NoopEmitter{}
		return
	}
	a.emitter = emitter
}

// SetNowFunc overrides the time source. Intended for tests.
func (a *Adapter) SetNowFunc(now func() int64) {
	if now == nil {
		a.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	a.nowFn = now
}

func (a *Adapter) emit(evt *events.Event) {
	if a == nil || a.emitter == nil || evt == nil {
		return
	}
	a.emitter.Emit(evt)
}

func (a *Adapter) now() int64 {
	if a == nil || a.nowFn == nil {
		return time.Now().Unix()
	}
	return a.nowFn()
}

func (a *Adapter) authorize(caller [20]byte) error {
	if a.roles == nil || !a.roles.HasRole(access.RoleAdmin, caller) {
		return ErrUnauthorized
	}
	return nil
}

// GetPrice reads the latest value from the configured feed and validates it.
// The read fails when the feed reports a non-positive value or the report is
// older than the configured staleness period.
func (a *Adapter) GetPrice() (*big.Int, error) {
	if a == nil || a.state == nil {
		return nil, errNilState
	}
	cfg, ok, err := a.state.OracleConfig()
	if err != nil {
		return nil, err
	}
	if !ok || cfg.Feed == ([20]byte{}) {
		return nil, ErrFeedNotConfigured
	}
	if a.resolver == nil {
		return nil, ErrFeedNotConfigured
	}
	feed, err := a.resolver.Resolve(cfg.Feed)
	if err != nil {
		observability.Metrics().OracleReads.WithLabelValues("unreachable").Inc()
		return nil, fmt.Errorf("oracle: resolve feed: %w", err)
	}
	answer, updatedAt, err := feed.LatestRound()
	if err != nil {
		observability.Metrics().OracleReads.WithLabelValues("unreachable").Inc()
		return nil, fmt.Errorf("oracle: read feed: %w", err)
	}
	if answer == nil || answer.Sign() <= 0 {
		observability.Metrics().OracleReads.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidPrice
	}
	now := a.now()
	if now > updatedAt && uint64(now-updatedAt) > cfg.MaxStaleness {
		observability.Metrics().OracleReads.WithLabelValues("stale").Inc()
		return nil, ErrStalePrice
	}
	observability.Metrics().OracleReads.WithLabelValues("ok").Inc()
	return new(big.Int).Set(answer), nil
}

// SetFeed points the adapter at a new feed address. Administrator-only. The
// previous and new addresses are emitted for auditability.
func (a *Adapter) SetFeed(caller [20]byte, feed [20]byte) error {
	if a == nil || a.state == nil {
		return errNilState
	}
	if err := a.authorize(caller); err != nil {
		return err
	}
	if feed == ([20]byte{}) {
		return ErrInvalidFeedAddress
	}
	cfg, ok, err := a.state.OracleConfig()
	if err != nil {
		return err
	}
	if !ok {
		cfg = &registry.PriceFeedConfig{MaxStaleness: a.bounds.DefaultStaleness}
	}
	previous := cfg.Feed
	cfg.Feed = feed
	if err := a.state.OracleConfigPut(cfg); err != nil {
		return err
	}
	a.emit(NewFeedUpdatedEvent(previous, feed))
	return nil
}

// SetMaxStalenessPeriod updates the tolerated report age, in seconds.
// Administrator-only; periods outside the fixed legal range are rejected
// before anything is written.
func (a *Adapter) SetMaxStalenessPeriod(caller [20]byte, period uint64) error {
	if a == nil || a.state == nil {
		return errNilState
	}
	if err := a.authorize(caller); err != nil {
		return err
	}
	if period < a.bounds.MinStaleness || period > a.bounds.MaxStaleness {
		return ErrStalenessOutOfBounds
	}
	cfg, ok, err := a.state.OracleConfig()
	if err != nil {
		return err
	}
	if !ok {
		cfg = &registry.PriceFeedConfig{}
	}
	previous := cfg.MaxStaleness
	cfg.MaxStaleness = period
	if err := a.state.OracleConfigPut(cfg); err != nil {
		return err
	}
	a.emit(NewMaxStalenessPeriodUpdatedEvent(previous, period))
	return nil
}
