package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDatabase creates a Database instance with a mocked SQL connection
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return db, mock, mockDB
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"record not found", gorm.ErrRecordNotFound, shared.ErrNotFound},
		{"wrapped not found", errors.Join(errors.New("query"), gorm.ErrRecordNotFound), shared.ErrNotFound},
		{"duplicate key", gorm.ErrDuplicatedKey, shared.ErrAlreadyExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.in)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}

	t.Run("other errors pass through", func(t *testing.T) {
		boom := errors.New("boom")
		assert.Same(t, boom, translateError(boom))
	})
}

func TestDatabase_Ping(t *testing.T) {
	db, mock, _ := newMockDatabase(t)
	mock.ExpectPing()

	require.NoError(t, db.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Stats(t *testing.T) {
	db, _, _ := newMockDatabase(t)
	stats, err := db.Stats()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.OpenConnections, stats.InUse+stats.Idle)
}

func TestDatabase_Transaction(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		db, mock, _ := newMockDatabase(t)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "streams" SET "like_count"=like_count \+ 1 WHERE id = \$1`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := db.Transaction(context.Background(), func(tx *gorm.DB) error {
			return tx.Table("streams").Where("id = ?", uuid.New()).
				UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock, _ := newMockDatabase(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		err := db.Transaction(context.Background(), func(*gorm.DB) error {
			return shared.ErrInsufficientStock
		})
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProductRepository_DecrementStockIsGuarded(t *testing.T) {
	db, mock, _ := newMockDatabase(t)
	repo := NewGormProductRepository(db.DB)
	productID := uuid.New()

	mock.ExpectExec(`UPDATE "products" SET "sold_count"=sold_count \+ \$1,"stock"=stock - \$2,"version"=version \+ 1 WHERE id = \$3 AND status = \$4 AND stock >= \$5`).
		WithArgs(3, 3, productID, "active", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.DecrementStock(context.Background(), productID, 3))

	mock.ExpectExec(`UPDATE "products" SET .* WHERE id = \$3 AND status = \$4 AND stock >= \$5`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.DecrementStock(context.Background(), productID, 3)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	assert.ErrorIs(t, repo.DecrementStock(context.Background(), productID, 0), shared.ErrInvalidInput)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaginate_WhitelistsSortFields(t *testing.T) {
	db, mock, _ := newMockDatabase(t)

	mock.ExpectQuery(`SELECT \* FROM "users" ORDER BY created_at DESC LIMIT \$1 OFFSET \$2`).
		WithArgs(20, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	var rows []struct{ ID uuid.UUID }
	filter := shared.Filter{Page: 2, PageSize: 20, OrderBy: "password_hash; DROP TABLE users", OrderDir: "sideways"}
	err := paginate(db.DB.Table("users"), filter, UserSortFields, "created_at").Find(&rows).Error
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
