package models

import (
	"errors"
	"fmt"
	"time"
)

// Custom errors
var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key violation")
	ErrInvalidID    = errors.New("invalid ID format")
	ErrAppendOnly   = errors.New("record is append-only")
)

// Error kinds reported in per-game status rows and metric labels
const (
	KindMissingData       = "missing_data"
	KindModelNotTrained   = "model_not_trained"
	KindInvalidSampleSize = "invalid_sample_size"
	KindStaleLine         = "stale_line"
	KindInternal          = "internal"
)

// MissingDataError reports that a required upstream feature or line is absent.
type MissingDataError struct {
	GameID  string
	Team    string
	Feature string
	Reason  string
}

func (e *MissingDataError) Error() string {
	msg := fmt.Sprintf("missing data for feature %q", e.Feature)
	if e.Team != "" {
		msg += fmt.Sprintf(" team=%s", e.Team)
	}
	if e.GameID != "" {
		msg += fmt.Sprintf(" game=%s", e.GameID)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// ModelNotTrainedError reports inference requested before a trained artifact exists.
type ModelNotTrainedError struct {
	Model string
}

func (e *ModelNotTrainedError) Error() string {
	return fmt.Sprintf("model %q has no trained artifact", e.Model)
}

// InvalidSampleSizeError reports a simulation requested with a non-positive sample count.
type InvalidSampleSizeError struct {
	Requested int
}

func (e *InvalidSampleSizeError) Error() string {
	return fmt.Sprintf("invalid simulation sample size %d: must be positive", e.Requested)
}

// StaleLineError reports a market quote older than the configured freshness window.
type StaleLineError struct {
	GameID   string
	Book     string
	QuotedAt time.Time
	Age      time.Duration
	Window   time.Duration
}

func (e *StaleLineError) Error() string {
	return fmt.Sprintf("stale line for game %s at %s: quoted %s ago, window %s",
		e.GameID, e.Book, e.Age.Round(time.Second), e.Window)
}

// ErrorKind maps an error to its stable status label.
func ErrorKind(err error) string {
	var missing *MissingDataError
	var notTrained *ModelNotTrainedError
	var sampleSize *InvalidSampleSizeError
	var stale *StaleLineError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &missing):
		return KindMissingData
	case errors.As(err, &notTrained):
		return KindModelNotTrained
	case errors.As(err, &sampleSize):
		return KindInvalidSampleSize
	case errors.As(err, &stale):
		return KindStaleLine
	default:
		return KindInternal
	}
}
