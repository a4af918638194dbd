package services

import "github.com/prometheus/client_golang/prometheus"

// Craft outcomes recorded in craft_requests_total.
const (
	outcomeCacheHit  = "cache_hit"
	outcomeGenerated = "generated"
	outcomeReused    = "reused"
	outcomeFailed    = "failed"
)

var (
	craftRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "craft_requests_total",
			Help: "Craft requests by outcome.",
		},
		[]string{"outcome"},
	)
	craftGenerationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "craft_generation_seconds",
			Help:    "Latency of element generation calls.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		},
	)
	guessSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guess_submissions_total",
			Help: "Guess submissions by whether the character occurs in the text.",
		},
		[]string{"hit"},
	)
	guessQuestionsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guess_questions_generated_total",
			Help: "Generated guess questions by source.",
		},
		[]string{"source"},
	)
)

func init() {
	prometheus.MustRegister(craftRequests, craftGenerationSeconds, guessSubmissions, guessQuestionsGenerated)
}
