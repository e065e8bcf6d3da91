package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/procura/backend/internal/domain/procurement"
	"github.com/procura/backend/internal/domain/shared"
)

func newMockRfqRepository(t *testing.T) (*GormRfqRepository, sqlmock.Sqlmock, *sql.DB) {
	gormDB, mock, mockDB := newMockDB(t)
	return NewGormRfqRepository(gormDB), mock, mockDB
}

func TestGormRfqRepository_FindByID(t *testing.T) {
	t.Run("loads the full aggregate graph", func(t *testing.T) {
		repo, mock, mockDB := newMockRfqRepository(t)
		defer mockDB.Close()

		rfqID := uuid.New()
		itemID := uuid.New()
		participantID := uuid.New()
		offerID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "rfqs" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(rfqID, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "code", "title", "status", "version"}).
				AddRow(rfqID, "RFQ-2026-00001", "Office hardware", "ACTIVE", 2))

		mock.ExpectQuery(`SELECT \* FROM "rfq_line_items" WHERE "rfq_line_items"\."rfq_id" = \$1 ORDER BY position ASC`).
			WithArgs(rfqID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "rfq_id", "name", "requested_quantity", "unit", "position"}).
				AddRow(itemID, rfqID, "Laptop", decimal.NewFromInt(10), "pcs", 0))

		mock.ExpectQuery(`SELECT \* FROM "rfq_participants" WHERE "rfq_participants"\."rfq_id" = \$1`).
			WithArgs(rfqID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "rfq_id", "supplier_id", "supplier_name", "stage"}).
				AddRow(participantID, rfqID, uuid.New(), "Acme Supplies", "OFFERED"))

		mock.ExpectQuery(`SELECT \* FROM "offers" WHERE "offers"\."participant_id" = \$1`).
			WithArgs(participantID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "participant_id", "rfq_id", "currency", "total_amount", "won"}).
				AddRow(offerID, participantID, rfqID, "TRY", decimal.NewFromInt(1000), false))

		mock.ExpectQuery(`SELECT \* FROM "offer_line_items" WHERE "offer_line_items"\."offer_id" = \$1`).
			WithArgs(offerID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "offer_id", "rfq_line_item_id", "quantity", "unit_price"}).
				AddRow(uuid.New(), offerID, itemID, decimal.NewFromInt(10), decimal.NewFromInt(100)))

		rfq, err := repo.FindByID(context.Background(), rfqID)

		assert.NoError(t, err)
		assert.NotNil(t, rfq)
		assert.Equal(t, "RFQ-2026-00001", rfq.Code)
		assert.Len(t, rfq.Items, 1)
		assert.Len(t, rfq.Participants, 1)
		assert.NotNil(t, rfq.Participants[0].Offer)
		assert.Len(t, rfq.Participants[0].Offer.Items, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for missing round", func(t *testing.T) {
		repo, mock, mockDB := newMockRfqRepository(t)
		defer mockDB.Close()

		rfqID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "rfqs" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(rfqID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		rfq, err := repo.FindByID(context.Background(), rfqID)

		assert.Nil(t, rfq)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormRfqRepository_FindByStatus(t *testing.T) {
	t.Run("applies status and pagination", func(t *testing.T) {
		repo, mock, mockDB := newMockRfqRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "rfqs" WHERE status = \$1 ORDER BY created_at DESC LIMIT .*`).
			WithArgs(string(procurement.RfqStatusActive), 20).
			WillReturnRows(sqlmock.NewRows([]string{"id", "code", "title", "status"}))

		rfqs, err := repo.FindByStatus(context.Background(), procurement.RfqStatusActive, shared.DefaultFilter())

		assert.NoError(t, err)
		assert.Empty(t, rfqs)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormRfqRepository_CountByStatus(t *testing.T) {
	t.Run("counts rounds in a status", func(t *testing.T) {
		repo, mock, mockDB := newMockRfqRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "rfqs" WHERE status = \$1`).
			WithArgs(string(procurement.RfqStatusCompleted)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

		count, err := repo.CountByStatus(context.Background(), procurement.RfqStatusCompleted)

		assert.NoError(t, err)
		assert.Equal(t, int64(7), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormRfqRepository_ExistsByCode(t *testing.T) {
	t.Run("returns true for taken code", func(t *testing.T) {
		repo, mock, mockDB := newMockRfqRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "rfqs" WHERE code = \$1`).
			WithArgs("RFQ-2026-00001").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		exists, err := repo.ExistsByCode(context.Background(), "RFQ-2026-00001")

		assert.NoError(t, err)
		assert.True(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormRfqRepository_GenerateCode(t *testing.T) {
	year := time.Now().Year()
	prefix := fmt.Sprintf("RFQ-%d-", year)

	t.Run("starts at 00001 for a fresh year", func(t *testing.T) {
		repo, mock, mockDB := newMockRfqRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "rfqs" WHERE code LIKE \$1 ORDER BY code DESC`).
			WithArgs(prefix+"%", 1).
			WillReturnError(gorm.ErrRecordNotFound)
		mock.ExpectQuery(`SELECT count\(\*\) FROM "rfqs" WHERE code = \$1`).
			WithArgs(prefix + "00001").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		code, err := repo.GenerateCode(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, prefix+"00001", code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("increments past the highest existing code", func(t *testing.T) {
		repo, mock, mockDB := newMockRfqRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "rfqs" WHERE code LIKE \$1 ORDER BY code DESC`).
			WithArgs(prefix+"%", 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "code"}).
				AddRow(uuid.New(), prefix+"00041"))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "rfqs" WHERE code = \$1`).
			WithArgs(prefix + "00042").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		code, err := repo.GenerateCode(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, prefix+"00042", code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormRfqRepository_InterfaceCompliance(t *testing.T) {
	t.Run("implements RfqRepository interface", func(t *testing.T) {
		repo, _, mockDB := newMockRfqRepository(t)
		defer mockDB.Close()

		var _ procurement.RfqRepository = repo
	})
}
