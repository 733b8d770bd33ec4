// Package domain holds shared identifier types used across the integrity
// engine. Typed IDs keep org, key, and hold identifiers from being mixed up
// at call sites even though several of them are plain strings on the wire.
package domain

import (
	"github.com/google/uuid"

	dErrors "veritas/pkg/domain-errors"
)

// OrgID identifies the organization that owns a chain, pack, or hold.
// Supplied by callers; opaque to the engine.
type OrgID string

// KeyID names a managed key (HMAC seal keys, vault keys). Opaque string
// chosen at provisioning time, e.g. "evidence-signing-2026a".
type KeyID string

// DocumentID identifies a versioned document.
type DocumentID string

// ActorID identifies the person or system performing an action.
type ActorID string

// PackID identifies a stored evidence pack.
type PackID uuid.UUID

// HoldID identifies a litigation hold.
type HoldID uuid.UUID

// EventID identifies a single audit event.
type EventID uuid.UUID

// NewPackID generates a fresh pack identifier.
func NewPackID() PackID { return PackID(uuid.New()) }

// NewHoldID generates a fresh hold identifier.
func NewHoldID() HoldID { return HoldID(uuid.New()) }

// NewEventID generates a fresh event identifier.
func NewEventID() EventID { return EventID(uuid.New()) }

func (p PackID) String() string  { return uuid.UUID(p).String() }
func (p PackID) IsNil() bool     { return uuid.UUID(p) == uuid.Nil }
func (h HoldID) String() string  { return uuid.UUID(h).String() }
func (h HoldID) IsNil() bool     { return uuid.UUID(h) == uuid.Nil }
func (e EventID) String() string { return uuid.UUID(e).String() }
func (e EventID) IsNil() bool    { return uuid.UUID(e) == uuid.Nil }

// UUID-backed IDs travel as strings on the wire.

func (p PackID) MarshalText() ([]byte, error) { return []byte(p.String()), nil }
func (p *PackID) UnmarshalText(text []byte) error {
	u, err := parseUUID(string(text))
	if err != nil {
		return err
	}
	*p = PackID(u)
	return nil
}

func (h HoldID) MarshalText() ([]byte, error) { return []byte(h.String()), nil }
func (h *HoldID) UnmarshalText(text []byte) error {
	u, err := parseUUID(string(text))
	if err != nil {
		return err
	}
	*h = HoldID(u)
	return nil
}

func (e EventID) MarshalText() ([]byte, error) { return []byte(e.String()), nil }
func (e *EventID) UnmarshalText(text []byte) error {
	u, err := parseUUID(string(text))
	if err != nil {
		return err
	}
	*e = EventID(u)
	return nil
}

// ParsePackID parses and validates a pack ID from its string form.
func ParsePackID(s string) (PackID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return PackID{}, err
	}
	return PackID(u), nil
}

// ParseHoldID parses and validates a hold ID from its string form.
// IDs must be valid, non-empty, non-nil UUIDs.
func ParseHoldID(s string) (HoldID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return HoldID{}, err
	}
	return HoldID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid id %q", s)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil uuid")
	}
	return u, nil
}
