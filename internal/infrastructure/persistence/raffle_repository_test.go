package persistence

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/rafflehub/backend/internal/domain/raffle"
	"github.com/rafflehub/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDB creates a GORM connection backed by sqlmock
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func TestGormRaffleRepository_FindByID(t *testing.T) {
	t.Run("finds existing raffle", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormRaffleRepository(db)

		raffleID := uuid.New()
		rows := sqlmock.NewRows([]string{"id", "version", "title", "ticket_price", "total_tickets", "status"}).
			AddRow(raffleID, 1, "Summer Giveaway", decimal.NewFromInt(10), 100, "ACTIVE")

		mock.ExpectQuery(`SELECT \* FROM "raffles" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(raffleID, 1).
			WillReturnRows(rows)

		found, err := repo.FindByID(context.Background(), raffleID)

		require.NoError(t, err)
		assert.Equal(t, raffleID, found.ID)
		assert.Equal(t, "Summer Giveaway", found.Title)
		assert.Equal(t, raffle.RaffleStatusActive, found.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for missing raffle", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormRaffleRepository(db)

		raffleID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "raffles" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(raffleID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		found, err := repo.FindByID(context.Background(), raffleID)

		assert.Nil(t, found)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormRaffleRepository_SaveWithLock(t *testing.T) {
	newRaffle := func(t *testing.T) *raffle.Raffle {
		t.Helper()
		r, err := raffle.NewRaffle("Locked Raffle", decimal.NewFromInt(5), 50, 0)
		require.NoError(t, err)
		return r
	}

	t.Run("bumps the version on success", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormRaffleRepository(db)
		r := newRaffle(t)

		mock.ExpectExec(`UPDATE "raffles" SET .* WHERE id = .* AND version = .*`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.SaveWithLock(context.Background(), r))
		assert.Equal(t, 2, r.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("serializes metadata to json text", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormRaffleRepository(db)
		r := newRaffle(t)
		r.Metadata = map[string]string{"theme": "retro"}

		// Map-based updates bind columns alphabetically; metadata is $9.
		// The driver must receive JSON text, never a raw Go map.
		args := make([]driver.Value, 22)
		for i := range args {
			args[i] = sqlmock.AnyArg()
		}
		args[8] = `{"theme":"retro"}`
		mock.ExpectExec(`UPDATE "raffles" SET .* WHERE id = .* AND version = .*`).
			WithArgs(args...).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.SaveWithLock(context.Background(), r))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil metadata serializes as json null", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormRaffleRepository(db)
		r := newRaffle(t)
		require.Nil(t, r.Metadata)

		args := make([]driver.Value, 22)
		for i := range args {
			args[i] = sqlmock.AnyArg()
		}
		args[8] = `null`
		mock.ExpectExec(`UPDATE "raffles" SET .* WHERE id = .* AND version = .*`).
			WithArgs(args...).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.SaveWithLock(context.Background(), r))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale version yields a concurrency conflict", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormRaffleRepository(db)
		r := newRaffle(t)

		mock.ExpectExec(`UPDATE "raffles" SET .* WHERE id = .* AND version = .*`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SaveWithLock(context.Background(), r)

		assert.Equal(t, shared.ErrConcurrencyConflict, err)
		assert.Equal(t, 1, r.Version, "version rolls back on conflict")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormRaffleRepository_FindAll(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormRaffleRepository(db)

	filter := shared.DefaultFilter()
	filter.Filters["status"] = "ACTIVE"

	rows := sqlmock.NewRows([]string{"id", "version", "title", "status"}).
		AddRow(uuid.New(), 1, "First", "ACTIVE").
		AddRow(uuid.New(), 1, "Second", "ACTIVE")

	mock.ExpectQuery(`SELECT \* FROM "raffles" WHERE status = \$1 ORDER BY created_at desc LIMIT .*`).
		WillReturnRows(rows)

	raffles, err := repo.FindAll(context.Background(), filter)

	require.NoError(t, err)
	assert.Len(t, raffles, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
