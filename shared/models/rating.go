package models

const (
	MinPostRating = 1
	MaxPostRating = 5
)

// AggregateRating is the mean of the given post ratings, or 0 for a cafe
// without posts.
func AggregateRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return float64(sum) / float64(len(ratings))
}

// CafeRating is a cafe's derived rating state after a recompute.
type CafeRating struct {
	CafeID    string  `json:"cafeId"`
	Rating    float64 `json:"rating"`
	PostCount int     `json:"postCount"`
}
