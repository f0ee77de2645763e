package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/soitmed/medops-api/internal/models"
)

func newOfferRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestOfferRepositoryCreateWithValidityDates(t *testing.T) {
	db, mock, cleanup := newOfferRepoMock(t)
	defer cleanup()

	repo := NewOfferRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO offers")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO offer_valid_until")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	offer := &models.Offer{
		ClientID:      "client-1",
		CreatedBy:     "user-1",
		SalespersonID: "user-1",
		Title:         "CT scanner supply",
		TotalAmount:   250000,
		ValidUntil:    []time.Time{time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
	}
	require.NoError(t, repo.Create(context.Background(), offer))
	require.NotEmpty(t, offer.ID)
	require.Equal(t, models.OfferStatusDraft, offer.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferRepositoryUpdateStatusGuard(t *testing.T) {
	db, mock, cleanup := newOfferRepoMock(t)
	defer cleanup()

	repo := NewOfferRepository(db)
	now := time.Now()
	params := OfferStatusUpdate{
		ID:        "offer-1",
		Expected:  models.OfferStatusDraft,
		Next:      models.OfferStatusSent,
		SentAt:    &now,
		UpdatedAt: now,
	}

	// The row still holds the expected status: one row updated.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE offers SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateStatus(context.Background(), params))

	// A concurrent writer moved the row first: zero rows match the guard.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE offers SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.UpdateStatus(context.Background(), params)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferRepositoryUpdateAmountGuardedOnEditableStates(t *testing.T) {
	db, mock, cleanup := newOfferRepoMock(t)
	defer cleanup()

	repo := NewOfferRepository(db)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE offers SET total_amount")).
		WithArgs(7500.0, now, "offer-1", models.OfferStatusDraft, models.OfferStatusNeedsModification).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateAmount(context.Background(), "offer-1", 7500, now))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE offers SET total_amount")).
		WithArgs(7500.0, now, "offer-1", models.OfferStatusDraft, models.OfferStatusNeedsModification).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.UpdateAmount(context.Background(), "offer-1", 7500, now)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
