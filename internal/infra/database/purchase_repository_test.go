package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/quiz-funnel/internal/entity"
)

func newTestPurchase(t *testing.T) *entity.Purchase {
	t.Helper()
	p, err := entity.NewPurchase("a@b.com", "HP17000000", decimal.RequireFromString("97.00"), "BRL")
	require.NoError(t, err)
	p.RawPayload = []byte(`{"event":"PURCHASE_APPROVED"}`)
	return p
}

func TestPurchaseCreateStoresEventID(t *testing.T) {
	_, purchases, mock := newMockDB(t)
	p := newTestPurchase(t)
	p.MetaEventID = "Purchase_1700000000000_abcd12345"

	args := make([]driver.Value, 20)
	for i := range args {
		args[i] = sqlmock.AnyArg()
	}
	args[0] = p.ID
	args[2] = "HP17000000"
	args[17] = "Purchase_1700000000000_abcd12345"

	mock.ExpectExec(sqlPattern("INSERT INTO purchases", "meta_event_id, created_at, updated_at", "$18, $19, $20")).
		WithArgs(args...).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, purchases.Create(context.Background(), p))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseCreateUniqueViolationIsDuplicate(t *testing.T) {
	_, purchases, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO purchases")).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "purchases_hotmart_transaction_id_key"})

	err := purchases.Create(context.Background(), newTestPurchase(t))
	assert.ErrorIs(t, err, entity.ErrPurchaseAlreadyExists)
}

func TestPurchaseCreateOtherErrorIsWrapped(t *testing.T) {
	_, purchases, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO purchases")).
		WillReturnError(&pgconn.PgError{Code: "23514"})

	err := purchases.Create(context.Background(), newTestPurchase(t))
	require.Error(t, err)
	assert.NotErrorIs(t, err, entity.ErrPurchaseAlreadyExists)

	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr))
}

func TestPurchaseFindByTransactionIDNotFound(t *testing.T) {
	_, purchases, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM purchases WHERE hotmart_transaction_id = $1")).
		WithArgs("HP0").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := purchases.FindByTransactionID(context.Background(), "HP0")
	assert.ErrorIs(t, err, entity.ErrPurchaseNotFound)
}

func TestPurchaseUpdateMetaStatus(t *testing.T) {
	_, purchases, mock := newMockDB(t)

	mock.ExpectExec(sqlPattern("UPDATE purchases", "meta_sent = TRUE", "WHERE id = $1")).
		WithArgs("p-1", "Purchase_1700000000000_abcd12345").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, purchases.UpdateMetaStatus(context.Background(), "p-1", "Purchase_1700000000000_abcd12345"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseUpdateMetaStatusMissingRow(t *testing.T) {
	_, purchases, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE purchases")).
		WithArgs("p-x", "Purchase_1700000000000_abcd12345").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := purchases.UpdateMetaStatus(context.Background(), "p-x", "Purchase_1700000000000_abcd12345")
	assert.ErrorIs(t, err, entity.ErrPurchaseNotFound)
}

func TestPurchaseUpdateMetaStatusRequiresEventID(t *testing.T) {
	_, purchases, mock := newMockDB(t)

	err := purchases.UpdateMetaStatus(context.Background(), "p-1", "")
	assert.ErrorIs(t, err, entity.ErrMissingMetaEventID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseReserveEventIDKeepsStoredID(t *testing.T) {
	_, purchases, mock := newMockDB(t)

	mock.ExpectQuery(sqlPattern("SET meta_event_id = COALESCE(meta_event_id, $2)", "RETURNING meta_event_id")).
		WithArgs("p-1", "Purchase_1700000000001_new000000").
		WillReturnRows(sqlmock.NewRows([]string{"meta_event_id"}).AddRow("Purchase_1700000000000_old000000"))

	stored, err := purchases.ReserveEventID(context.Background(), "p-1", "Purchase_1700000000001_new000000")
	require.NoError(t, err)
	assert.Equal(t, "Purchase_1700000000000_old000000", stored)
}

func TestPurchaseReserveEventIDMissingRow(t *testing.T) {
	_, purchases, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("RETURNING meta_event_id")).
		WithArgs("p-x", "Purchase_1700000000001_new000000").
		WillReturnRows(sqlmock.NewRows([]string{"meta_event_id"}))

	_, err := purchases.ReserveEventID(context.Background(), "p-x", "Purchase_1700000000001_new000000")
	assert.ErrorIs(t, err, entity.ErrPurchaseNotFound)
}

func TestPurchaseRecordAttributionFailure(t *testing.T) {
	_, purchases, mock := newMockDB(t)

	mock.ExpectQuery(sqlPattern("meta_attempts = meta_attempts + 1", "RETURNING meta_attempts")).
		WithArgs("p-1", "timeout").
		WillReturnRows(sqlmock.NewRows([]string{"meta_attempts"}).AddRow(3))

	attempts, err := purchases.RecordAttributionFailure(context.Background(), "p-1", "timeout")
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}
