// Package store is the persistent entity store: a local SQLite database
// holding the complete invoicing data set. It exposes repository types bound
// to dbx.DBTX plus two graph-level operations used by the backup engine:
// ReadAll (a point-in-time read of every table) and ReplaceAll (an atomic
// full replacement of every table).
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"billkeeper/internal/dbx"
	"billkeeper/internal/models"
	"billkeeper/internal/store/migrations"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// Store owns the sqlite database handle.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dsn and applies pending
// schema migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// DB exposes the raw handle for transaction control and tests.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ReadAll reads every managed table inside one read transaction, so the
// returned dataset is a consistent point-in-time view even while other
// writers are active.
func (s *Store) ReadAll(ctx context.Context) (*models.Dataset, error) {
	var ds *models.Dataset

	err := dbx.WithTx(ctx, s.db, &sql.TxOptions{ReadOnly: true}, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		ds, err = readAll(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ds, nil
}

func readAll(ctx context.Context, tx dbx.DBTX) (*models.Dataset, error) {
	ds := &models.Dataset{}
	var err error

	if ds.Clients, err = NewClientRepository(tx).GetAll(ctx); err != nil {
		return nil, err
	}
	if ds.Suppliers, err = NewSupplierRepository(tx).GetAll(ctx); err != nil {
		return nil, err
	}
	if ds.Categories, err = NewCategoryRepository(tx).GetAll(ctx); err != nil {
		return nil, err
	}
	if ds.CustomFields, err = NewCustomFieldRepository(tx).GetAll(ctx); err != nil {
		return nil, err
	}
	if ds.Items, err = NewItemRepository(tx).GetAll(ctx); err != nil {
		return nil, err
	}
	if ds.Invoices, err = NewInvoiceRepository(tx).GetAll(ctx); err != nil {
		return nil, err
	}
	if ds.InvoiceItems, err = NewInvoiceItemRepository(tx).GetAll(ctx); err != nil {
		return nil, err
	}
	if ds.CustomInvoiceFields, err = NewCustomInvoiceFieldRepository(tx).GetAll(ctx); err != nil {
		return nil, err
	}
	if ds.Estimates, err = NewEstimateRepository(tx).GetAll(ctx); err != nil {
		return nil, err
	}
	if ds.EstimateItems, err = NewEstimateItemRepository(tx).GetAll(ctx); err != nil {
		return nil, err
	}

	return ds, nil
}

// ReplaceAll replaces the contents of every managed table with ds inside a
// single transaction. Either every table is replaced or none is: any failure
// rolls the whole transaction back and the prior contents stay untouched.
//
// Deletes run children-first and inserts parents-first so foreign keys hold
// at every point inside the transaction.
func (s *Store) ReplaceAll(ctx context.Context, ds *models.Dataset) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return replaceAll(ctx, tx, ds)
	})
}

// InsertAll adds ds on top of the existing contents inside a single
// transaction, without deleting anything.
func (s *Store) InsertAll(ctx context.Context, ds *models.Dataset) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, t := range tableOps(tx, ds) {
			if err := t.insert(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

func replaceAll(ctx context.Context, tx dbx.DBTX, ds *models.Dataset) error {
	tables := tableOps(tx, ds)

	for i := len(tables) - 1; i >= 0; i-- {
		if err := tables[i].deleteAll(ctx); err != nil {
			return err
		}
	}
	for _, t := range tables {
		if err := t.insert(ctx); err != nil {
			return err
		}
	}
	return nil
}

type tableOp struct {
	deleteAll func(context.Context) error
	insert    func(context.Context) error
}

// tableOps lists every managed table in parent-first order; deletes must
// walk it backwards.
func tableOps(tx dbx.DBTX, ds *models.Dataset) []tableOp {
	return []tableOp{
		{NewClientRepository(tx).DeleteAll, func(ctx context.Context) error {
			return NewClientRepository(tx).InsertMany(ctx, ds.Clients)
		}},
		{NewSupplierRepository(tx).DeleteAll, func(ctx context.Context) error {
			return NewSupplierRepository(tx).InsertMany(ctx, ds.Suppliers)
		}},
		{NewCategoryRepository(tx).DeleteAll, func(ctx context.Context) error {
			return NewCategoryRepository(tx).InsertMany(ctx, ds.Categories)
		}},
		{NewCustomFieldRepository(tx).DeleteAll, func(ctx context.Context) error {
			return NewCustomFieldRepository(tx).InsertMany(ctx, ds.CustomFields)
		}},
		{NewItemRepository(tx).DeleteAll, func(ctx context.Context) error {
			return NewItemRepository(tx).InsertMany(ctx, ds.Items)
		}},
		{NewInvoiceRepository(tx).DeleteAll, func(ctx context.Context) error {
			return NewInvoiceRepository(tx).InsertMany(ctx, ds.Invoices)
		}},
		{NewInvoiceItemRepository(tx).DeleteAll, func(ctx context.Context) error {
			return NewInvoiceItemRepository(tx).InsertMany(ctx, ds.InvoiceItems)
		}},
		{NewCustomInvoiceFieldRepository(tx).DeleteAll, func(ctx context.Context) error {
			return NewCustomInvoiceFieldRepository(tx).InsertMany(ctx, ds.CustomInvoiceFields)
		}},
		{NewEstimateRepository(tx).DeleteAll, func(ctx context.Context) error {
			return NewEstimateRepository(tx).InsertMany(ctx, ds.Estimates)
		}},
		{NewEstimateItemRepository(tx).DeleteAll, func(ctx context.Context) error {
			return NewEstimateItemRepository(tx).InsertMany(ctx, ds.EstimateItems)
		}},
	}
}

// Time columns are stored as RFC3339 text in UTC so values survive a
// store -> snapshot -> archive -> store round trip bit-for-bit.

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse time %q: %w", s, err)
	}
	return t, nil
}

func fmtTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtTime(*t)
}

func parseTimePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func ptrArg(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
