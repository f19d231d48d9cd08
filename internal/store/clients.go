package store

import (
	"context"
	"fmt"

	"billkeeper/internal/dbx"
	"billkeeper/internal/models"
)

// ClientRepository gives read-all / replace-all access to the clients table.
type ClientRepository struct {
	db dbx.DBTX
}

func NewClientRepository(db dbx.DBTX) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) GetAll(ctx context.Context) ([]models.Client, error) {
	query := `SELECT id, name, email, phone, address, tax_number, notes, created_at, updated_at
	          FROM clients ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select clients: %w", err)
	}
	defer rows.Close()

	var result []models.Client
	for rows.Next() {
		var c models.Client
		var createdAt, updatedAt string
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address,
			&c.TaxNumber, &c.Notes, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if c.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *ClientRepository) InsertMany(ctx context.Context, rows []models.Client) error {
	query := `INSERT INTO clients (id, name, email, phone, address, tax_number, notes, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, c := range rows {
		_, err := r.db.ExecContext(ctx, query, c.ID, c.Name, c.Email, c.Phone,
			c.Address, c.TaxNumber, c.Notes, fmtTime(c.CreatedAt), fmtTime(c.UpdatedAt))
		if err != nil {
			return fmt.Errorf("failed to insert client %s: %w", c.ID, err)
		}
	}
	return nil
}

func (r *ClientRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM clients`); err != nil {
		return fmt.Errorf("failed to clear clients: %w", err)
	}
	return nil
}
