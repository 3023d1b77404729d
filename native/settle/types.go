package settle

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	ErrNegativeAmount       = errors.New("settle: negative amount")
	ErrFeeExceedsGross      = errors.New("settle: marketplace fee exceeds gross payment")
	ErrInsufficientProceeds = errors.New("settle: proceeds cannot cover verifier fee")
	ErrBpsOutOfRange        = errors.New("settle: fee bps out of range")
)

// Breakdown is the decomposition of one gross marketplace payment into its
// fee components and the net seller proceeds. Conservation holds for every
// breakdown produced by Decompose:
//
//	MarketplaceFee + BaseFee + VerifierFee + FacilitatorFee + Net == Gross
type Breakdown struct {
	TokenID        uint64
	Gross          *big.Int
	MarketplaceFee *big.Int
	BaseFee        *big.Int
	VerifierFee    *big.Int
	FacilitatorFee *big.Int
	Net            *big.Int
}

// Clone returns a deep copy of the breakdown.
func (b *Breakdown) Clone() *Breakdown {
	if b == nil {
		return nil
	}
	clone := *b
	clone.Gross = cloneBigInt(b.Gross)
	clone.MarketplaceFee = cloneBigInt(b.MarketplaceFee)
	clone.BaseFee = cloneBigInt(b.BaseFee)
	clone.VerifierFee = cloneBigInt(b.VerifierFee)
	clone.FacilitatorFee = cloneBigInt(b.FacilitatorFee)
	clone.Net = cloneBigInt(b.Net)
	return &clone
}

// SellerCredit is the amount credited toward the seller before the verifier
// and facilitator entitlements settle: gross minus marketplace fee minus base
// protocol fee.
func (b *Breakdown) SellerCredit() *big.Int {
	credit := new(big.Int).Sub(cloneBigInt(b.Gross), cloneBigInt(b.MarketplaceFee))
	return credit.Sub(credit, cloneBigInt(b.BaseFee))
}

// Decompose splits a gross payment into its fee components in the fixed
// deduction order: marketplace fee (observed, not computed), base protocol
// fee as bps of the post-marketplace remainder, the fixed verifier fee, then
// the facilitator fee as bps of the remaining proceeds. Percentages apply to
// the remainder after prior deductions, never to the gross, and every
// division truncates toward zero so the rounding remainder lands in the net.
func Decompose(tokenID uint64, gross, marketplaceFee *big.Int, baseFeeBps uint32, verifierFee *big.Int, facilitatorFeeBps uint32) (*Breakdown, error) {
	grossAmt := cloneBigInt(gross)
	mktFee := cloneBigInt(marketplaceFee)
	verFee := cloneBigInt(verifierFee)
	if grossAmt.Sign() < 0 || mktFee.Sign() < 0 || verFee.Sign() < 0 {
		return nil, ErrNegativeAmount
	}
	if baseFeeBps > 10_000 || facilitatorFeeBps > 10_000 {
		return nil, ErrBpsOutOfRange
	}
	if mktFee.Cmp(grossAmt) > 0 {
		return nil, ErrFeeExceedsGross
	}

	remainder := new(big.Int).Sub(grossAmt, mktFee)

	baseFee := new(big.Int).Mul(remainder, big.NewInt(int64(baseFeeBps)))
	baseFee.Div(baseFee, big.NewInt(10_000))
	remainder.Sub(remainder, baseFee)

	if verFee.Cmp(remainder) > 0 {
		return nil, fmt.Errorf("%w: token %d", ErrInsufficientProceeds, tokenID)
	}
	remainder.Sub(remainder, verFee)

	facilitatorFee := new(big.Int).Mul(remainder, big.NewInt(int64(facilitatorFeeBps)))
	facilitatorFee.Div(facilitatorFee, big.NewInt(10_000))
	net := new(big.Int).Sub(remainder, facilitatorFee)

	return &Breakdown{
		TokenID:        tokenID,
		Gross:          grossAmt,
		MarketplaceFee: mktFee,
		BaseFee:        baseFee,
		VerifierFee:    verFee,
		FacilitatorFee: facilitatorFee,
		Net:            net,
	}, nil
}

// Receipt summarises a completed settlement for the caller: the fee split
// plus the verification deadlines recorded against the sale.
type Receipt struct {
	OfferID     uint64
	VerifierID  uint64
	Breakdown   *Breakdown
	Deadline    int64
	MaxDeadline int64
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
