package model

// SellerAggregates holds shop-level statistics across all products of one seller.
type SellerAggregates struct {
	AvgRating   float64
	SalesCount  int
	ReviewCount int
}

// NewSellerAggregates computes the average rating from a rating sum.
// A seller without reviews has an average of 0.
func NewSellerAggregates(ratingSum, reviewCount, salesCount int) SellerAggregates {
	agg := SellerAggregates{
		SalesCount:  salesCount,
		ReviewCount: reviewCount,
	}
	if reviewCount > 0 {
		agg.AvgRating = float64(ratingSum) / float64(reviewCount)
	}
	return agg
}
