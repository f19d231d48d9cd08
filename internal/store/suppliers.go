package store

import (
	"context"
	"fmt"

	"billkeeper/internal/dbx"
	"billkeeper/internal/models"
)

// SupplierRepository gives read-all / replace-all access to the suppliers table.
type SupplierRepository struct {
	db dbx.DBTX
}

func NewSupplierRepository(db dbx.DBTX) *SupplierRepository {
	return &SupplierRepository{db: db}
}

func (r *SupplierRepository) GetAll(ctx context.Context) ([]models.Supplier, error) {
	query := `SELECT id, name, email, phone, address, tax_number, notes, created_at, updated_at
	          FROM suppliers ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select suppliers: %w", err)
	}
	defer rows.Close()

	var result []models.Supplier
	for rows.Next() {
		var s models.Supplier
		var createdAt, updatedAt string
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Phone, &s.Address,
			&s.TaxNumber, &s.Notes, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if s.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if s.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SupplierRepository) InsertMany(ctx context.Context, rows []models.Supplier) error {
	query := `INSERT INTO suppliers (id, name, email, phone, address, tax_number, notes, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, s := range rows {
		_, err := r.db.ExecContext(ctx, query, s.ID, s.Name, s.Email, s.Phone,
			s.Address, s.TaxNumber, s.Notes, fmtTime(s.CreatedAt), fmtTime(s.UpdatedAt))
		if err != nil {
			return fmt.Errorf("failed to insert supplier %s: %w", s.ID, err)
		}
	}
	return nil
}

func (r *SupplierRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM suppliers`); err != nil {
		return fmt.Errorf("failed to clear suppliers: %w", err)
	}
	return nil
}
