package domain

import "time"

// Event is the base interface for all domain events.
type Event interface {
	EventName() string
	OccurredAt() time.Time
	AggregateID() uint64
}

// BaseEvent provides common event metadata.
type BaseEvent struct {
	PetID     uint64
	Timestamp time.Time
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID returns the pet the event belongs to.
func (e BaseEvent) AggregateID() uint64 {
	return e.PetID
}

// PetRegistered is raised when a new pet joins the registry.
type PetRegistered struct {
	BaseEvent
	Owner string
	Name  string
	Breed string
}

// EventName returns the event type identifier.
func (e PetRegistered) EventName() string {
	return "pets.pet.registered"
}

// PetUpdated is raised when the descriptive fields change.
type PetUpdated struct {
	BaseEvent
	Name string
}

// EventName returns the event type identifier.
func (e PetUpdated) EventName() string {
	return "pets.pet.updated"
}

// PetReportedLost is raised when the owner reports the pet missing.
type PetReportedLost struct {
	BaseEvent
	LostLocation string
}

// EventName returns the event type identifier.
func (e PetReportedLost) EventName() string {
	return "pets.pet.reported_lost"
}

// PetReportedFound is raised when anyone reports a lost pet found.
type PetReportedFound struct {
	BaseEvent
	FinderName    string
	FoundLocation string
}

// EventName returns the event type identifier.
func (e PetReportedFound) EventName() string {
	return "pets.pet.reported_found"
}

// PetDeleted is raised when a pet is removed from the registry.
type PetDeleted struct {
	BaseEvent
	Name string
}

// EventName returns the event type identifier.
func (e PetDeleted) EventName() string {
	return "pets.pet.deleted"
}
