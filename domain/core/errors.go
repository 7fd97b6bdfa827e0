package core

import (
	"errors"
	"fmt"
)

// Reason is a stable failure tag. Report layers localize reasons; the engine
// never emits free text as the primary signal.
type Reason string

const (
	ReasonIncompleteData           Reason = "IncompleteData"
	ReasonInvalidSampleSize        Reason = "InvalidSampleSize"
	ReasonQuartileOrderViolation   Reason = "QuartileOrderViolation"
	ReasonWhiskerOrderViolation    Reason = "WhiskerOrderViolation"
	ReasonOutlierPositionViolation Reason = "OutlierPositionViolation"
	ReasonDegenerateSpread         Reason = "DegenerateSpread"
	ReasonInsufficientSampleSize   Reason = "InsufficientSampleSize"
	ReasonInvalidConfidenceLevel   Reason = "InvalidConfidenceLevel"
)

// Domain errors - centralized error definitions
var (
	// Validation errors
	ErrIncompleteData           = errors.New("incomplete data")
	ErrInvalidSampleSize        = errors.New("invalid sample size")
	ErrQuartileOrderViolation   = errors.New("quartile order violation")
	ErrWhiskerOrderViolation    = errors.New("whisker order violation")
	ErrOutlierPositionViolation = errors.New("outlier position violation")

	// Estimation errors
	ErrDegenerateSpread = errors.New("degenerate spread")

	// Comparison errors
	ErrInsufficientSampleSize = errors.New("insufficient sample size")
	ErrInvalidConfidenceLevel = errors.New("invalid confidence level")
)

var sentinels = map[Reason]error{
	ReasonIncompleteData:           ErrIncompleteData,
	ReasonInvalidSampleSize:        ErrInvalidSampleSize,
	ReasonQuartileOrderViolation:   ErrQuartileOrderViolation,
	ReasonWhiskerOrderViolation:    ErrWhiskerOrderViolation,
	ReasonOutlierPositionViolation: ErrOutlierPositionViolation,
	ReasonDegenerateSpread:         ErrDegenerateSpread,
	ReasonInsufficientSampleSize:   ErrInsufficientSampleSize,
	ReasonInvalidConfidenceLevel:   ErrInvalidConfidenceLevel,
}

// Failure is a local-data error tied to one case or one comparison pair.
type Failure struct {
	Reason Reason `json:"reason"`
	Field  string `json:"field,omitempty"`
	Detail string `json:"detail,omitempty"`
}

func (f *Failure) Error() string {
	msg := string(f.Reason)
	if f.Field != "" {
		msg += " (" + f.Field + ")"
	}
	if f.Detail != "" {
		msg += ": " + f.Detail
	}
	return msg
}

// Unwrap exposes the sentinel for the failure's reason so errors.Is works.
func (f *Failure) Unwrap() error {
	return sentinels[f.Reason]
}

// NewFailure builds a tagged failure with a formatted detail.
func NewFailure(reason Reason, field string, format string, args ...interface{}) *Failure {
	return &Failure{
		Reason: reason,
		Field:  field,
		Detail: fmt.Sprintf(format, args...),
	}
}

// ReasonOf returns the failure tag carried by err, or "" when err is not a
// domain failure.
func ReasonOf(err error) Reason {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason
	}
	for reason, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return reason
		}
	}
	return ""
}

// AsFailure converts any error into a *Failure, keeping domain tags intact.
func AsFailure(err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return &Failure{Reason: ReasonOf(err), Detail: err.Error()}
}

// Error checking helpers
func IsValidationError(err error) bool {
	return errors.Is(err, ErrIncompleteData) ||
		errors.Is(err, ErrInvalidSampleSize) ||
		errors.Is(err, ErrQuartileOrderViolation) ||
		errors.Is(err, ErrWhiskerOrderViolation) ||
		errors.Is(err, ErrOutlierPositionViolation)
}

func IsComparisonError(err error) bool {
	return errors.Is(err, ErrDegenerateSpread) ||
		errors.Is(err, ErrInsufficientSampleSize) ||
		errors.Is(err, ErrInvalidConfidenceLevel)
}
