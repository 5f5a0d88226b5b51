package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventID identifies the kind of an authentication event.
type EventID int

// Authentication event ids.
const (
	EventUserLoginSuccess  EventID = 1000
	EventUserLoginFailure  EventID = 1001
	EventUserLogoutSuccess EventID = 1002
)

// Outcome classifies an event.
type Outcome int

// Event outcomes.
const (
	OutcomeSuccess     Outcome = 1
	OutcomeFailure     Outcome = 2
	OutcomeInformation Outcome = 3
	OutcomeError       Outcome = 4
)

// IsSuccessful reports whether the outcome is Success or Information.
func (o Outcome) IsSuccessful() bool {
	return o == OutcomeSuccess || o == OutcomeInformation
}

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "Success"
	case OutcomeFailure:
		return "Failure"
	case OutcomeInformation:
		return "Information"
	case OutcomeError:
		return "Error"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// LoginEvent is an authentication event raised by the login pipeline.
type LoginEvent struct {
	ID         EventID
	Outcome    Outcome
	Name       string
	Message    string
	ActivityID string
	Timestamp  time.Time
}

// NewLoginEvent creates an event stamped with a fresh activity id.
func NewLoginEvent(id EventID, outcome Outcome, name, message string) LoginEvent {
	return LoginEvent{
		ID:         id,
		Outcome:    outcome,
		Name:       name,
		Message:    message,
		ActivityID: uuid.NewString(),
		Timestamp:  time.Now().UTC(),
	}
}

// NewUserLoginSuccessEvent creates the event raised after a successful login.
func NewUserLoginSuccessEvent(userID string) LoginEvent {
	return NewLoginEvent(EventUserLoginSuccess, OutcomeSuccess, "User Login Success",
		fmt.Sprintf("user %s logged in", userID))
}

// NewUserLoginFailureEvent creates the event raised after a rejected login.
func NewUserLoginFailureEvent(reason string) LoginEvent {
	return NewLoginEvent(EventUserLoginFailure, OutcomeFailure, "User Login Failure", reason)
}

// Diagnostic renders the event as "{name} ({id}), Details: {message}".
func (e LoginEvent) Diagnostic() string {
	return fmt.Sprintf("%s (%d), Details: %s", e.Name, int(e.ID), e.Message)
}
