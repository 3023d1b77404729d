package registry

import (
	"fmt"
	"math/big"
)

// TokenLookup is the per-token settlement record created when a wrapped item
// sells. The gross price is recorded at sale time; the fee components start at
// the zero sentinel and are populated exactly once, either by the settlement
// flow or by a one-time backfill. Records are never deleted.
//
// Field order is part of the persisted layout: new fields append at the end,
// existing fields are never reordered.
type TokenLookup struct {
	TokenID        uint64
	Price          *big.Int
	MarketplaceFee *big.Int
	BaseFee        *big.Int
	VerifierFee    *big.Int
	FacilitatorFee *big.Int
}

// Clone returns a deep copy so callers can mutate without aliasing stored
// records.
func (t *TokenLookup) Clone() *TokenLookup {
	if t == nil {
		return nil
	}
	clone := *t
	clone.Price = cloneBigInt(t.Price)
	clone.MarketplaceFee = cloneBigInt(t.MarketplaceFee)
	clone.BaseFee = cloneBigInt(t.BaseFee)
	clone.VerifierFee = cloneBigInt(t.VerifierFee)
	clone.FacilitatorFee = cloneBigInt(t.FacilitatorFee)
	return &clone
}

// SanitizeTokenLookup normalises nil amounts to zero and rejects negative
// components before the record reaches storage.
func SanitizeTokenLookup(t *TokenLookup) (*TokenLookup, error) {
	if t == nil {
		return nil, fmt.Errorf("registry: nil token lookup")
	}
	clone := t.Clone()
	for name, amount := range map[string]*big.Int{
		"price":           clone.Price,
		"marketplace fee": clone.MarketplaceFee,
		"base fee":        clone.BaseFee,
		"verifier fee":    clone.VerifierFee,
		"facilitator fee": clone.FacilitatorFee,
	} {
		if amount.Sign() < 0 {
			return nil, fmt.Errorf("registry: token %d: negative %s", clone.TokenID, name)
		}
	}
	return clone, nil
}

// OfferLookup records the token-id range for an offer together with the fee
// terms agreed at offer-creation time. ItemQuantity and FirstTokenID describe
// a contiguous id range starting at FirstTokenID. The terms fields were
// appended after the original layout shipped.
type OfferLookup struct {
	OfferID      uint64
	ItemQuantity uint64
	FirstTokenID uint64

	VerifierID        uint64
	VerifierFee       *big.Int
	FacilitatorFeeBps uint32
}

func (o *OfferLookup) Clone() *OfferLookup {
	if o == nil {
		return nil
	}
	clone := *o
	clone.VerifierFee = cloneBigInt(o.VerifierFee)
	return &clone
}

// ContainsToken reports whether the supplied token id falls inside the
// offer's contiguous range. Offers whose range was never populated (zero
// quantity) cannot vouch for any token.
func (o *OfferLookup) ContainsToken(tokenID uint64) bool {
	if o == nil || o.ItemQuantity == 0 {
		return false
	}
	return tokenID >= o.FirstTokenID && tokenID-o.FirstTokenID < o.ItemQuantity
}

// SanitizeOfferLookup validates an offer record before storage.
func SanitizeOfferLookup(o *OfferLookup) (*OfferLookup, error) {
	if o == nil {
		return nil, fmt.Errorf("registry: nil offer lookup")
	}
	clone := o.Clone()
	if clone.VerifierFee.Sign() < 0 {
		return nil, fmt.Errorf("registry: offer %d: negative verifier fee", clone.OfferID)
	}
	if clone.FacilitatorFeeBps > 10_000 {
		return nil, fmt.Errorf("registry: offer %d: facilitator fee bps out of range", clone.OfferID)
	}
	return clone, nil
}

// PriceFeedConfig is the singleton oracle configuration. A zero feed address
// means no feed has been configured yet; the registry never holds an
// out-of-range staleness period because the oracle adapter validates before
// writing.
type PriceFeedConfig struct {
	Feed         [20]byte
	MaxStaleness uint64
}

func (c *PriceFeedConfig) Clone() *PriceFeedConfig {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
