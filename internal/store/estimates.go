package store

import (
	"context"
	"database/sql"
	"fmt"

	"billkeeper/internal/dbx"
	"billkeeper/internal/models"
)

// EstimateRepository gives read-all / replace-all access to the estimates table.
type EstimateRepository struct {
	db dbx.DBTX
}

func NewEstimateRepository(db dbx.DBTX) *EstimateRepository {
	return &EstimateRepository{db: db}
}

func (r *EstimateRepository) GetAll(ctx context.Context) ([]models.Estimate, error) {
	query := `SELECT id, number, client_id, status, currency, tax_rate_bps, issued_at, valid_until, notes, created_at, updated_at
	          FROM estimates ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select estimates: %w", err)
	}
	defer rows.Close()

	var result []models.Estimate
	for rows.Next() {
		var est models.Estimate
		var issuedAt, createdAt, updatedAt string
		var validUntil sql.NullString
		if err := rows.Scan(&est.ID, &est.Number, &est.ClientID, &est.Status,
			&est.Currency, &est.TaxRateBps, &issuedAt, &validUntil, &est.Notes,
			&createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if est.IssuedAt, err = parseTime(issuedAt); err != nil {
			return nil, err
		}
		if est.ValidUntil, err = parseTimePtr(validUntil); err != nil {
			return nil, err
		}
		if est.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if est.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		result = append(result, est)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *EstimateRepository) InsertMany(ctx context.Context, rows []models.Estimate) error {
	query := `INSERT INTO estimates (id, number, client_id, status, currency, tax_rate_bps, issued_at, valid_until, notes, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, est := range rows {
		_, err := r.db.ExecContext(ctx, query, est.ID, est.Number, est.ClientID,
			est.Status, est.Currency, est.TaxRateBps, fmtTime(est.IssuedAt),
			fmtTimePtr(est.ValidUntil), est.Notes, fmtTime(est.CreatedAt), fmtTime(est.UpdatedAt))
		if err != nil {
			return fmt.Errorf("failed to insert estimate %s: %w", est.ID, err)
		}
	}
	return nil
}

func (r *EstimateRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM estimates`); err != nil {
		return fmt.Errorf("failed to clear estimates: %w", err)
	}
	return nil
}

// EstimateItemRepository gives read-all / replace-all access to the
// estimate_items table.
type EstimateItemRepository struct {
	db dbx.DBTX
}

func NewEstimateItemRepository(db dbx.DBTX) *EstimateItemRepository {
	return &EstimateItemRepository{db: db}
}

func (r *EstimateItemRepository) GetAll(ctx context.Context) ([]models.EstimateItem, error) {
	query := `SELECT id, estimate_id, item_id, description, quantity, unit_price_cents, position
	          FROM estimate_items ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select estimate items: %w", err)
	}
	defer rows.Close()

	var result []models.EstimateItem
	for rows.Next() {
		var li models.EstimateItem
		var itemID sql.NullString
		if err := rows.Scan(&li.ID, &li.EstimateID, &itemID, &li.Description,
			&li.Quantity, &li.UnitPriceCents, &li.Position); err != nil {
			return nil, err
		}
		li.ItemID = strPtr(itemID)
		result = append(result, li)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *EstimateItemRepository) InsertMany(ctx context.Context, rows []models.EstimateItem) error {
	query := `INSERT INTO estimate_items (id, estimate_id, item_id, description, quantity, unit_price_cents, position)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`
	for _, li := range rows {
		_, err := r.db.ExecContext(ctx, query, li.ID, li.EstimateID, ptrArg(li.ItemID),
			li.Description, li.Quantity, li.UnitPriceCents, li.Position)
		if err != nil {
			return fmt.Errorf("failed to insert estimate item %s: %w", li.ID, err)
		}
	}
	return nil
}

func (r *EstimateItemRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM estimate_items`); err != nil {
		return fmt.Errorf("failed to clear estimate items: %w", err)
	}
	return nil
}
