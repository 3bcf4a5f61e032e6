// Package funnel defines the core entities of the visitor funnel: steps,
// ratings, products, and the evaluation records produced as a visitor
// works through the catalog.
package funnel

import (
	"math/rand"
	"time"
)

// Step identifies a screen in the funnel's primary state machine.
type Step string

const (
	StepWelcome    Step = "welcome"
	StepExplainer  Step = "explainer"
	StepEvaluating Step = "evaluating"
	StepComplete   Step = "complete"
)

// Events accepted by the funnel state machine.
const (
	EventSubmitName      = "submit_name"
	EventBeginEvaluating = "begin_evaluating"
	EventCompleteFunnel  = "complete_funnel"
	EventRestart         = "restart"
)

// Rating is a visitor's verdict on a single product.
type Rating string

const (
	RatingLoved    Rating = "loved"
	RatingLiked    Rating = "liked"
	RatingNeutral  Rating = "neutral"
	RatingDisliked Rating = "disliked"
	RatingSkip     Rating = "skip"
)

// Valid reports whether r is one of the five accepted rating values.
func (r Rating) Valid() bool {
	switch r {
	case RatingLoved, RatingLiked, RatingNeutral, RatingDisliked, RatingSkip:
		return true
	}
	return false
}

// Earns reports whether the rating draws a reward and counts toward the
// evaluation tally. Skip advances the index with no side effects.
func (r Rating) Earns() bool {
	return r.Valid() && r != RatingSkip
}

// Product is a single catalog entry presented for evaluation.
type Product struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Image    string `json:"image"`
}

// Evaluation is an append-only record of one rated product.
type Evaluation struct {
	ID           string    `json:"id"`
	RecordID     string    `json:"recordId"`
	ProductID    int       `json:"productId"`
	ProductName  string    `json:"productName"`
	Rating       Rating    `json:"rating"`
	Feedback     string    `json:"feedback,omitempty"`
	EarnedAmount float64   `json:"earnedAmount"`
	CreatedAt    time.Time `json:"timestamp"`
}

// DrawReward draws a reward amount uniformly from the closed interval
// [low, high]. A fresh draw per accepted rating; never reused or capped.
func DrawReward(rng *rand.Rand, low, high float64) float64 {
	return rng.Float64()*(high-low) + low
}
