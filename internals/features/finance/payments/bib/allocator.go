// Package bib assigns race-bib numbers when a participant's payment is confirmed.
package bib

import (
	"context"
	"errors"
	"fmt"
)

const DefaultWidth = 4

// MaxNumericDigits keeps numeric bibs inside bigint; longer all-digit legacy bibs are ignored.
const MaxNumericDigits = 18

// ErrBibTaken is returned by stores when the unique index rejects a bib.
var ErrBibTaken = errors.New("bib: number already assigned")

// Store is the data access the allocator needs. Every method runs inside the
// caller's transaction.
type Store interface {
	// LockSequence serialises allocators until the surrounding transaction ends.
	LockSequence(ctx context.Context) error
	// SmallestRecyclable returns the lowest numeric bib held by an unpaid
	// participant, locking that row.
	SmallestRecyclable(ctx context.Context) (holderID uint, bib string, found bool, err error)
	ReleaseBib(ctx context.Context, holderID uint) error
	// MaxNumericBib is 0 when no purely numeric bib exists.
	MaxNumericBib(ctx context.Context) (int64, error)
}

type Allocation struct {
	Bib          string
	Recycled     bool
	ReleasedFrom uint
}

type Allocator struct {
	Width int
}

func NewAllocator(width int) Allocator {
	if width <= 0 {
		width = DefaultWidth
	}
	return Allocator{Width: width}
}

// Allocate recycles the smallest orphaned numeric bib, or mints MAX+1.
func (a Allocator) Allocate(ctx context.Context, s Store) (Allocation, error) {
	if err := s.LockSequence(ctx); err != nil {
		return Allocation{}, fmt.Errorf("lock bib sequence: %w", err)
	}

	holder, recycled, found, err := s.SmallestRecyclable(ctx)
	if err != nil {
		return Allocation{}, fmt.Errorf("find recyclable bib: %w", err)
	}
	if found {
		if err := s.ReleaseBib(ctx, holder); err != nil {
			return Allocation{}, fmt.Errorf("release bib %s from participant %d: %w", recycled, holder, err)
		}
		return Allocation{Bib: recycled, Recycled: true, ReleasedFrom: holder}, nil
	}

	top, err := s.MaxNumericBib(ctx)
	if err != nil {
		return Allocation{}, fmt.Errorf("scan max bib: %w", err)
	}
	if top < 0 {
		top = 0
	}
	return Allocation{Bib: Format(top+1, a.width())}, nil
}

func (a Allocator) width() int {
	if a.Width <= 0 {
		return DefaultWidth
	}
	return a.Width
}

// Format zero-pads n to width. Numbers longer than width print in full.
func Format(n int64, width int) string {
	return fmt.Sprintf("%0*d", width, n)
}

// IsNumeric mirrors the numeric filter used by the SQL store.
func IsNumeric(s string) bool {
	if s == "" || len(s) > MaxNumericDigits {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
