// Package queue defines message payloads exchanged over the message broker
// and the background consumer that drains them.
package queue

// AnalysisCompletedEvent is published when a disease detection finishes
// successfully. It carries enough information for downstream consumers to
// log or trigger analytics without querying the service.
type AnalysisCompletedEvent struct {
	AnalysisID string  `json:"analysis_id"`
	UserEmail  string  `json:"user_email"`
	FileName   string  `json:"file_name"`
	Prediction string  `json:"prediction"`
	Confidence float64 `json:"confidence"`
	AnalyzedAt string  `json:"analyzed_at"`
}
