package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPayload is returned when a billing payload is neither "True" nor "False".
var ErrUnknownPayload = errors.New("models: unknown billing payload")

// BillingOutcome is the result of classifying one POS line.
type BillingOutcome int

const (
	OutcomeFailure BillingOutcome = iota
	OutcomeSuccess
)

func (o BillingOutcome) String() string {
	if o == OutcomeSuccess {
		return "success"
	}
	return "failure"
}

// BillingEvent is published once per POS line that matched a success or failure string.
// It carries no identity beyond its outcome.
type BillingEvent struct {
	Outcome BillingOutcome
}

// Payload encodes the event the way peers on the bus expect it.
func (e BillingEvent) Payload() []byte {
	return BoolPayload(e.Outcome == OutcomeSuccess)
}

// ParseBillingEvent decodes a pos/billing payload.
func ParseBillingEvent(payload []byte) (BillingEvent, error) {
	v, err := ParseBoolPayload(payload)
	if err != nil {
		return BillingEvent{}, err
	}
	if v {
		return BillingEvent{Outcome: OutcomeSuccess}, nil
	}
	return BillingEvent{Outcome: OutcomeFailure}, nil
}

// BoolPayload renders a boolean as "True"/"False".
func BoolPayload(v bool) []byte {
	if v {
		return []byte("True")
	}
	return []byte("False")
}

// ParseBoolPayload accepts exactly "True" or "False", ignoring surrounding whitespace.
func ParseBoolPayload(payload []byte) (bool, error) {
	switch strings.TrimSpace(string(payload)) {
	case "True":
		return true, nil
	case "False":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownPayload, string(payload))
	}
}
