package domain

import "time"

// FailureType classifies why a transaction could not be valued.
type FailureType string

const (
	FailureBadInput FailureType = "BAD_INPUT"
	FailureCascade  FailureType = "CASCADE_ERROR"
)

// ProcessingFailure is one transaction the ingestion run could not value.
// Failures are persisted so the batch layer can retry or dead-letter them;
// a failed transaction never gets a partial settlement row.
type ProcessingFailure struct {
	ID          string      `json:"id"`
	NSU         string      `json:"nsu"`
	StoreID     string      `json:"store_id,omitempty"`
	BatchID     string      `json:"batch_id"`
	Type        FailureType `json:"type"`
	Description string      `json:"description"`
	DetectedAt  time.Time   `json:"detected_at"`
}
