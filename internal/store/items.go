package store

import (
	"context"
	"database/sql"
	"fmt"

	"billkeeper/internal/dbx"
	"billkeeper/internal/models"
)

// ItemRepository gives read-all / replace-all access to the items table.
type ItemRepository struct {
	db dbx.DBTX
}

func NewItemRepository(db dbx.DBTX) *ItemRepository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) GetAll(ctx context.Context) ([]models.Item, error) {
	query := `SELECT id, name, sku, unit, unit_price_cents, quantity, category_id, supplier_id, notes, created_at, updated_at
	          FROM items ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select items: %w", err)
	}
	defer rows.Close()

	var result []models.Item
	for rows.Next() {
		var it models.Item
		var categoryID, supplierID sql.NullString
		var createdAt, updatedAt string
		if err := rows.Scan(&it.ID, &it.Name, &it.SKU, &it.Unit, &it.UnitPriceCents,
			&it.Quantity, &categoryID, &supplierID, &it.Notes, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		it.CategoryID = strPtr(categoryID)
		it.SupplierID = strPtr(supplierID)
		if it.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if it.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		result = append(result, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *ItemRepository) InsertMany(ctx context.Context, rows []models.Item) error {
	query := `INSERT INTO items (id, name, sku, unit, unit_price_cents, quantity, category_id, supplier_id, notes, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, it := range rows {
		_, err := r.db.ExecContext(ctx, query, it.ID, it.Name, it.SKU, it.Unit,
			it.UnitPriceCents, it.Quantity, ptrArg(it.CategoryID), ptrArg(it.SupplierID),
			it.Notes, fmtTime(it.CreatedAt), fmtTime(it.UpdatedAt))
		if err != nil {
			return fmt.Errorf("failed to insert item %s: %w", it.ID, err)
		}
	}
	return nil
}

func (r *ItemRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM items`); err != nil {
		return fmt.Errorf("failed to clear items: %w", err)
	}
	return nil
}
