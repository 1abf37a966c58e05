// Package storage defines the persistence boundary for house membership
// and point balances.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates a requested member record is missing.
	ErrNotFound = errors.New("member not found")
	// ErrConditionNotMet indicates a conditional write was skipped because
	// its guard did not hold.
	ErrConditionNotMet = errors.New("write condition not met")
)

// MemberRecord stores one house member keyed by normalized name.
type MemberRecord struct {
	Name     string
	House    string
	Points   int64
	CanHas   bool
	FullName string
	Nickname string
	Title    string
}

// MemberStore persists member records and point balances.
//
// IncrementPoints and ZeroNegativePoints are the only operations that touch
// the points column; both must be applied server-side so concurrent commands
// against the same member never lose updates.
type MemberStore interface {
	// GetMember loads one member by normalized name.
	GetMember(ctx context.Context, name string) (MemberRecord, error)
	// ScanHouse lists every member of one house in stable scan order.
	ScanHouse(ctx context.Context, house string) ([]MemberRecord, error)
	// IncrementPoints atomically adds delta to a member's balance and
	// returns the updated record.
	IncrementPoints(ctx context.Context, name string, delta int64) (MemberRecord, error)
	// ZeroNegativePoints sets a member's balance to zero only when it is
	// negative. Returns ErrConditionNotMet when the balance was already
	// non-negative.
	ZeroNegativePoints(ctx context.Context, name string) (MemberRecord, error)
	// PutMember inserts or replaces one member record.
	PutMember(ctx context.Context, record MemberRecord) error
	// ListMembers lists every member in stable scan order.
	ListMembers(ctx context.Context) ([]MemberRecord, error)
}
