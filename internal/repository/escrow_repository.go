package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/yoga-escrow-api/internal/models"
	appErrors "github.com/noah-isme/yoga-escrow-api/pkg/errors"
)

const escrowColumns = `id, student, amount::text AS amount, status, created_at, class_time, description, location,
	array_replace(teacher_handles, NULL, '') AS teacher_handles,
	array_replace(time_slots::text[], NULL, '') AS time_slots, selected_time_index, COALESCE(selected_handle, '') AS selected_handle`

// escrowRow mirrors the indexer's escrows table. Sentinels are still raw here and NULL array
// elements arrive as empty strings.
type escrowRow struct {
	ID                int64          `db:"id"`
	Student           string         `db:"student"`
	Amount            string         `db:"amount"`
	Status            int16          `db:"status"`
	CreatedAt         int64          `db:"created_at"`
	ClassTime         int64          `db:"class_time"`
	Description       string         `db:"description"`
	Location          string         `db:"location"`
	TeacherHandles    pq.StringArray `db:"teacher_handles"`
	TimeSlots         pq.StringArray `db:"time_slots"`
	SelectedTimeIndex int16          `db:"selected_time_index"`
	SelectedHandle    string         `db:"selected_handle"`
}

// EscrowRepository reads escrow records for one contract from the chain index.
type EscrowRepository struct {
	db       *sqlx.DB
	contract string
	logger   *zap.Logger
}

// NewEscrowRepository constructs an EscrowRepository scoped to contract.
func NewEscrowRepository(db *sqlx.DB, contract string, logger *zap.Logger) *EscrowRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EscrowRepository{db: db, contract: strings.ToLower(contract), logger: logger}
}

// ListAll returns every escrow of the contract ordered by id. Rows that cannot be
// represented are skipped and logged.
func (r *EscrowRepository) ListAll(ctx context.Context) ([]models.RawEscrow, error) {
	query := fmt.Sprintf("SELECT %s FROM escrows WHERE contract_address = $1 ORDER BY id", escrowColumns)
	var rows []escrowRow
	if err := r.db.SelectContext(ctx, &rows, query, r.contract); err != nil {
		return nil, fmt.Errorf("list escrows: %w", err)
	}
	return r.convert(rows), nil
}

// ListByStudent returns the escrows funded by a student wallet.
func (r *EscrowRepository) ListByStudent(ctx context.Context, student string) ([]models.RawEscrow, error) {
	query := fmt.Sprintf("SELECT %s FROM escrows WHERE contract_address = $1 AND LOWER(student) = $2 ORDER BY id", escrowColumns)
	var rows []escrowRow
	if err := r.db.SelectContext(ctx, &rows, query, r.contract, strings.ToLower(strings.TrimSpace(student))); err != nil {
		return nil, fmt.Errorf("list escrows by student: %w", err)
	}
	return r.convert(rows), nil
}

// FindByID returns a single escrow.
func (r *EscrowRepository) FindByID(ctx context.Context, id uint64) (*models.RawEscrow, error) {
	query := fmt.Sprintf("SELECT %s FROM escrows WHERE contract_address = $1 AND id = $2", escrowColumns)
	var row escrowRow
	if err := r.db.GetContext(ctx, &row, query, r.contract, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("escrow %d not found", id))
		}
		return nil, fmt.Errorf("get escrow %d: %w", id, err)
	}
	escrow, err := row.toModel()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "escrow record is malformed")
	}
	return &escrow, nil
}

// Ping reports whether the index database is reachable.
func (r *EscrowRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *EscrowRepository) convert(rows []escrowRow) []models.RawEscrow {
	escrows := make([]models.RawEscrow, 0, len(rows))
	for _, row := range rows {
		escrow, err := row.toModel()
		if err != nil {
			r.logger.Warn("skipping malformed escrow", zap.Int64("escrow_id", row.ID), zap.Error(err))
			continue
		}
		escrows = append(escrows, escrow)
	}
	return escrows
}

func (row escrowRow) toModel() (models.RawEscrow, error) {
	if row.ID < 0 {
		return models.RawEscrow{}, fmt.Errorf("negative id %d", row.ID)
	}
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return models.RawEscrow{}, fmt.Errorf("amount %q: %w", row.Amount, err)
	}
	status := models.EscrowStatus(row.Status)
	if row.Status < 0 || !status.Valid() {
		return models.RawEscrow{}, fmt.Errorf("unknown status %d", row.Status)
	}

	escrow := models.RawEscrow{
		ID:             uint64(row.ID),
		Student:        row.Student,
		Amount:         amount,
		Status:         status,
		CreatedAt:      row.CreatedAt,
		ClassTime:      row.ClassTime,
		Description:    row.Description,
		Location:       row.Location,
		TeacherHandles: append([]string(nil), row.TeacherHandles...),
		SelectedHandle: models.HandleFromRaw(row.SelectedHandle),
	}
	for i := 0; i < models.SlotCount && i < len(row.TimeSlots); i++ {
		escrow.TimeSlots[i] = models.ParseSlotTime(row.TimeSlots[i])
	}
	if row.SelectedTimeIndex >= 0 && row.SelectedTimeIndex <= 255 {
		escrow.SelectedTimeIndex = models.TimeIndexFromRaw(uint8(row.SelectedTimeIndex))
	}
	return escrow, nil
}
