package migrate

import (
	"math/big"
	"strconv"

	"custodia/core/events"
	"custodia/registry"
)

const (
	EventTypeFeesBackfilled      = "migrate.fees_backfilled"
	EventTypeOfferDataBackfilled = "migrate.offer_data_backfilled"
)

// NewFeesBackfilledEvent returns the per-record payload for a token fee
// backfill, carrying the full fee breakdown and the pre-backfill price.
func NewFeesBackfilledEvent(token *registry.TokenLookup, priorPrice *big.Int) *events.Event {
	return &events.Event{Type: EventTypeFeesBackfilled, Attributes: map[string]string{
		"tokenId":         strconv.FormatUint(token.TokenID, 10),
		"marketplaceFee":  token.MarketplaceFee.String(),
		"baseFee":         token.BaseFee.String(),
		"verifierFee":     token.VerifierFee.String(),
		"facilitatorFee":  token.FacilitatorFee.String(),
		"priorGrossPrice": priorPrice.String(),
	}}
}

// NewOfferDataBackfilledEvent returns the per-record payload for an offer
// data backfill.
func NewOfferDataBackfilledEvent(offer *registry.OfferLookup) *events.Event {
	return &events.Event{Type: EventTypeOfferDataBackfilled, Attributes: map[string]string{
		"offerId":      strconv.FormatUint(offer.OfferID, 10),
		"itemQuantity": strconv.FormatUint(offer.ItemQuantity, 10),
		"firstTokenId": strconv.FormatUint(offer.FirstTokenID, 10),
	}}
}
