package store

import (
	"context"
	"database/sql"
	"fmt"

	"billkeeper/internal/dbx"
	"billkeeper/internal/models"
)

// InvoiceRepository gives read-all / replace-all access to the invoices table.
type InvoiceRepository struct {
	db dbx.DBTX
}

func NewInvoiceRepository(db dbx.DBTX) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) GetAll(ctx context.Context) ([]models.Invoice, error) {
	query := `SELECT id, number, client_id, status, currency, tax_rate_bps, issued_at, due_at, notes, created_at, updated_at
	          FROM invoices ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select invoices: %w", err)
	}
	defer rows.Close()

	var result []models.Invoice
	for rows.Next() {
		var inv models.Invoice
		var issuedAt, createdAt, updatedAt string
		var dueAt sql.NullString
		if err := rows.Scan(&inv.ID, &inv.Number, &inv.ClientID, &inv.Status,
			&inv.Currency, &inv.TaxRateBps, &issuedAt, &dueAt, &inv.Notes,
			&createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if inv.IssuedAt, err = parseTime(issuedAt); err != nil {
			return nil, err
		}
		if inv.DueAt, err = parseTimePtr(dueAt); err != nil {
			return nil, err
		}
		if inv.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if inv.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		result = append(result, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *InvoiceRepository) InsertMany(ctx context.Context, rows []models.Invoice) error {
	query := `INSERT INTO invoices (id, number, client_id, status, currency, tax_rate_bps, issued_at, due_at, notes, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, inv := range rows {
		_, err := r.db.ExecContext(ctx, query, inv.ID, inv.Number, inv.ClientID,
			inv.Status, inv.Currency, inv.TaxRateBps, fmtTime(inv.IssuedAt),
			fmtTimePtr(inv.DueAt), inv.Notes, fmtTime(inv.CreatedAt), fmtTime(inv.UpdatedAt))
		if err != nil {
			return fmt.Errorf("failed to insert invoice %s: %w", inv.ID, err)
		}
	}
	return nil
}

func (r *InvoiceRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM invoices`); err != nil {
		return fmt.Errorf("failed to clear invoices: %w", err)
	}
	return nil
}

// InvoiceItemRepository gives read-all / replace-all access to the
// invoice_items table.
type InvoiceItemRepository struct {
	db dbx.DBTX
}

func NewInvoiceItemRepository(db dbx.DBTX) *InvoiceItemRepository {
	return &InvoiceItemRepository{db: db}
}

func (r *InvoiceItemRepository) GetAll(ctx context.Context) ([]models.InvoiceItem, error) {
	query := `SELECT id, invoice_id, item_id, description, quantity, unit_price_cents, position
	          FROM invoice_items ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select invoice items: %w", err)
	}
	defer rows.Close()

	var result []models.InvoiceItem
	for rows.Next() {
		var li models.InvoiceItem
		var itemID sql.NullString
		if err := rows.Scan(&li.ID, &li.InvoiceID, &itemID, &li.Description,
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

func (r *InvoiceItemRepository) InsertMany(ctx context.Context, rows []models.InvoiceItem) error {
	query := `INSERT INTO invoice_items (id, invoice_id, item_id, description, quantity, unit_price_cents, position)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`
	for _, li := range rows {
		_, err := r.db.ExecContext(ctx, query, li.ID, li.InvoiceID, ptrArg(li.ItemID),
			li.Description, li.Quantity, li.UnitPriceCents, li.Position)
		if err != nil {
			return fmt.Errorf("failed to insert invoice item %s: %w", li.ID, err)
		}
	}
	return nil
}

func (r *InvoiceItemRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM invoice_items`); err != nil {
		return fmt.Errorf("failed to clear invoice items: %w", err)
	}
	return nil
}

// CustomInvoiceFieldRepository gives read-all / replace-all access to the
// custom_invoice_fields table.
type CustomInvoiceFieldRepository struct {
	db dbx.DBTX
}

func NewCustomInvoiceFieldRepository(db dbx.DBTX) *CustomInvoiceFieldRepository {
	return &CustomInvoiceFieldRepository{db: db}
}

func (r *CustomInvoiceFieldRepository) GetAll(ctx context.Context) ([]models.CustomInvoiceField, error) {
	query := `SELECT id, invoice_id, custom_field_id, name, value FROM custom_invoice_fields ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select custom invoice fields: %w", err)
	}
	defer rows.Close()

	var result []models.CustomInvoiceField
	for rows.Next() {
		var f models.CustomInvoiceField
		var customFieldID sql.NullString
		if err := rows.Scan(&f.ID, &f.InvoiceID, &customFieldID, &f.Name, &f.Value); err != nil {
			return nil, err
		}
		f.CustomFieldID = strPtr(customFieldID)
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *CustomInvoiceFieldRepository) InsertMany(ctx context.Context, rows []models.CustomInvoiceField) error {
	query := `INSERT INTO custom_invoice_fields (id, invoice_id, custom_field_id, name, value)
	          VALUES (?, ?, ?, ?, ?)`
	for _, f := range rows {
		_, err := r.db.ExecContext(ctx, query, f.ID, f.InvoiceID, ptrArg(f.CustomFieldID), f.Name, f.Value)
		if err != nil {
			return fmt.Errorf("failed to insert custom invoice field %s: %w", f.ID, err)
		}
	}
	return nil
}

func (r *CustomInvoiceFieldRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM custom_invoice_fields`); err != nil {
		return fmt.Errorf("failed to clear custom invoice fields: %w", err)
	}
	return nil
}
