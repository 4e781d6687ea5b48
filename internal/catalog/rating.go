package catalog

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

const (
	MinRating = 6.0
	MaxRating = 10.0
)

// RatingSource hands out the display rating attached to each parsed row. Ratings are not
// derived from the feed.
type RatingSource interface {
	Rating() float64
}

// RatingFunc adapts a plain function to RatingSource.
type RatingFunc func() float64

func (f RatingFunc) Rating() float64 {
	return f()
}

// FixedRating returns a source that always yields value. Handy for tests.
func FixedRating(value float64) RatingSource {
	return RatingFunc(func() float64 { return value })
}

type randomRating struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomRating returns a uniform source over [6.0, 10.0] rounded to one decimal.
// A zero seed picks a time-based seed.
func NewRandomRating(seed uint64) RatingSource {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &randomRating{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (r *randomRating) Rating() float64 {
	r.mu.Lock()
	sample := r.rnd.Float64()
	r.mu.Unlock()
	return roundRating(sample*(MaxRating-MinRating) + MinRating)
}

func roundRating(value float64) float64 {
	return math.Round(value*10) / 10
}
