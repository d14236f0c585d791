package bib

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}
	return db, mock
}

func TestGormStoreAllocatesFromMax(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock($1)`)).
		WithArgs(sequenceLockKey).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT participant_id, participant_bib_number\s+FROM participants.*length\(participant_bib_number\) <= 18`).
		WillReturnRows(sqlmock.NewRows([]string{"participant_id", "participant_bib_number"}))
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(participant_bib_number::bigint\), 0\).*length\(participant_bib_number\) <= 18`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(41))

	a, err := NewAllocator(4).Allocate(context.Background(), NewGormStore(db))
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if a.Bib != "0042" || a.Recycled {
		t.Fatalf("got %+v, want minted 0042", a)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGormStoreRecyclesOrphan(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock($1)`)).
		WithArgs(sequenceLockKey).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT participant_id, participant_bib_number\s+FROM participants`).
		WillReturnRows(sqlmock.NewRows([]string{"participant_id", "participant_bib_number"}).AddRow(17, "0003"))
	mock.ExpectExec(`UPDATE participants\s+SET participant_bib_number = NULL`).
		WithArgs(17).
		WillReturnResult(sqlmock.NewResult(0, 1))

	a, err := NewAllocator(4).Allocate(context.Background(), NewGormStore(db))
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if a.Bib != "0003" || !a.Recycled || a.ReleasedFrom != 17 {
		t.Fatalf("got %+v, want 0003 recycled from 17", a)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
