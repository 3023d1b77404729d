package settle

import (
	"strconv"

	"custodia/core/events"
)

const (
	EventTypeVerificationInitiated = "settle.verification_initiated"
	EventTypeItemPriceObserved     = "settle.item_price_observed"
)

// NewVerificationInitiatedEvent returns the payload emitted once the sale
// proceeds are encumbered and the verification window opens.
func NewVerificationInitiatedEvent(offerID, verifierID, tokenID uint64, deadline, maxDeadline int64) *events.Event {
	return &events.Event{Type: EventTypeVerificationInitiated, Attributes: map[string]string{
		"offerId":                 strconv.FormatUint(offerID, 10),
		"verifierId":              strconv.FormatUint(verifierID, 10),
		"tokenId":                 strconv.FormatUint(tokenID, 10),
		"verificationDeadline":    strconv.FormatInt(deadline, 10),
		"maxVerificationDeadline": strconv.FormatInt(maxDeadline, 10),
	}}
}

// NewItemPriceObservedEvent returns the payload carrying the net amount
// credited toward the seller, for off-chain accounting.
func NewItemPriceObservedEvent(b *Breakdown) *events.Event {
	return &events.Event{Type: EventTypeItemPriceObserved, Attributes: map[string]string{
		"tokenId":           strconv.FormatUint(b.TokenID, 10),
		"netSellerProceeds": b.SellerCredit().String(),
	}}
}
