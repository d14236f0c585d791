package bib

import (
	"context"

	"gorm.io/gorm"
)

// advisory lock key for the bib sequence ("BIB" in ascii)
const sequenceLockKey int64 = 0x424942

// GormStore runs the allocator queries on an open gorm transaction.
// The length guard (MaxNumericDigits) keeps the ::bigint casts from overflowing.
type GormStore struct {
	tx *gorm.DB
}

func NewGormStore(tx *gorm.DB) *GormStore {
	return &GormStore{tx: tx}
}

func (s *GormStore) LockSequence(ctx context.Context) error {
	return s.tx.WithContext(ctx).Exec(`SELECT pg_advisory_xact_lock(?)`, sequenceLockKey).Error
}

func (s *GormStore) SmallestRecyclable(ctx context.Context) (uint, string, bool, error) {
	var row struct {
		ParticipantID        uint   `gorm:"column:participant_id"`
		ParticipantBibNumber string `gorm:"column:participant_bib_number"`
	}
	err := s.tx.WithContext(ctx).Raw(`
		SELECT participant_id, participant_bib_number
		FROM participants
		WHERE participant_is_payment_completed = false
		  AND participant_bib_number IS NOT NULL
		  AND participant_bib_number ~ '^[0-9]+$'
		  AND length(participant_bib_number) <= 18
		ORDER BY participant_bib_number::bigint ASC
		LIMIT 1
		FOR UPDATE
	`).Scan(&row).Error
	if err != nil {
		return 0, "", false, err
	}
	if row.ParticipantID == 0 {
		return 0, "", false, nil
	}
	return row.ParticipantID, row.ParticipantBibNumber, true, nil
}

func (s *GormStore) ReleaseBib(ctx context.Context, holderID uint) error {
	return s.tx.WithContext(ctx).Exec(`
		UPDATE participants
		SET participant_bib_number = NULL, participant_updated_at = NOW()
		WHERE participant_id = ?
	`, holderID).Error
}

func (s *GormStore) MaxNumericBib(ctx context.Context) (int64, error) {
	var top int64
	err := s.tx.WithContext(ctx).Raw(`
		SELECT COALESCE(MAX(participant_bib_number::bigint), 0)
		FROM participants
		WHERE participant_bib_number IS NOT NULL
		  AND participant_bib_number ~ '^[0-9]+$'
		  AND length(participant_bib_number) <= 18
	`).Scan(&top).Error
	return top, err
}
