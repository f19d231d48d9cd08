package store

import (
	"context"
	"fmt"

	"billkeeper/internal/dbx"
	"billkeeper/internal/models"
)

// CategoryRepository gives read-all / replace-all access to the categories table.
type CategoryRepository struct {
	db dbx.DBTX
}

func NewCategoryRepository(db dbx.DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) GetAll(ctx context.Context) ([]models.Category, error) {
	query := `SELECT id, name, color, created_at, updated_at FROM categories ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select categories: %w", err)
	}
	defer rows.Close()

	var result []models.Category
	for rows.Next() {
		var c models.Category
		var createdAt, updatedAt string
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &createdAt, &updatedAt); err != nil {
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

func (r *CategoryRepository) InsertMany(ctx context.Context, rows []models.Category) error {
	query := `INSERT INTO categories (id, name, color, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`
	for _, c := range rows {
		_, err := r.db.ExecContext(ctx, query, c.ID, c.Name, c.Color,
			fmtTime(c.CreatedAt), fmtTime(c.UpdatedAt))
		if err != nil {
			return fmt.Errorf("failed to insert category %s: %w", c.ID, err)
		}
	}
	return nil
}

func (r *CategoryRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM categories`); err != nil {
		return fmt.Errorf("failed to clear categories: %w", err)
	}
	return nil
}

// CustomFieldRepository gives read-all / replace-all access to the
// custom_fields table.
type CustomFieldRepository struct {
	db dbx.DBTX
}

func NewCustomFieldRepository(db dbx.DBTX) *CustomFieldRepository {
	return &CustomFieldRepository{db: db}
}

func (r *CustomFieldRepository) GetAll(ctx context.Context) ([]models.CustomField, error) {
	query := `SELECT id, category_id, name, default_value, position FROM custom_fields ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select custom fields: %w", err)
	}
	defer rows.Close()

	var result []models.CustomField
	for rows.Next() {
		var f models.CustomField
		if err := rows.Scan(&f.ID, &f.CategoryID, &f.Name, &f.DefaultValue, &f.Position); err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *CustomFieldRepository) InsertMany(ctx context.Context, rows []models.CustomField) error {
	query := `INSERT INTO custom_fields (id, category_id, name, default_value, position)
	          VALUES (?, ?, ?, ?, ?)`
	for _, f := range rows {
		_, err := r.db.ExecContext(ctx, query, f.ID, f.CategoryID, f.Name, f.DefaultValue, f.Position)
		if err != nil {
			return fmt.Errorf("failed to insert custom field %s: %w", f.ID, err)
		}
	}
	return nil
}

func (r *CustomFieldRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM custom_fields`); err != nil {
		return fmt.Errorf("failed to clear custom fields: %w", err)
	}
	return nil
}
