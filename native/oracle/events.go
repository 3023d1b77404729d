package oracle

import (
	"encoding/hex"
	"strconv"

	"custodia/core/events"
)

const (
	EventTypeFeedUpdated         = "oracle.feed_updated"
	EventTypeMaxStalenessUpdated = "oracle.max_staleness_updated"
)

// NewFeedUpdatedEvent returns the payload emitted when the feed address
// changes, carrying old and new values.
func NewFeedUpdatedEvent(previous, next [20]byte) *events.Event {
	return &events.Event{Type: EventTypeFeedUpdated, Attributes: map[string]string{
		"previousFeed": hex.EncodeToString(previous[:]),
		"newFeed":      hex.EncodeToString(next[:]),
	}}
}

// NewMaxStalenessPeriodUpdatedEvent returns the payload emitted when the
// staleness period changes, carrying old and new values.
func NewMaxStalenessPeriodUpdatedEvent(previous, next uint64) *events.Event {
	return &events.Event{Type: EventTypeMaxStalenessUpdated, Attributes: map[string]string{
		"previousPeriod": strconv.FormatUint(previous, 10),
		"newPeriod":      strconv.FormatUint(next, 10),
	}}
}
