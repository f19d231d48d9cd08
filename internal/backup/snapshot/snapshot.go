// Package snapshot turns the live entity graph into a storage-independent,
// self-contained in-memory copy. A snapshot owns its records, never aliases
// live store objects, and expresses every relationship as an identifier, so
// it can be serialized and compared without knowledge of the storage engine.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"billkeeper/internal/models"
)

var (
	// ErrStoreRead means the store could not be queried.
	ErrStoreRead = errors.New("store read failed")

	// ErrIntegrity means the graph contains a dangling reference.
	ErrIntegrity = errors.New("referential integrity violation")
)

// Reader is the store-side collaborator: a single consistent read of every
// managed entity type.
type Reader interface {
	ReadAll(ctx context.Context) (*models.Dataset, error)
}

// Snapshot is the complete entity graph at one point in time. Collections
// are kept sorted by id so two snapshots of equal content are structurally
// equal and encode to identical bytes.
type Snapshot struct {
	models.Dataset
}

// Build reads every entity type through r and returns a complete snapshot,
// or an error and no snapshot at all. The returned snapshot has passed a
// referential integrity check: no dangling foreign key can enter one.
func Build(ctx context.Context, r Reader) (*Snapshot, error) {
	ds, err := r.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreRead, err)
	}

	s := &Snapshot{Dataset: *ds}
	s.sort()

	if err := s.CheckIntegrity(); err != nil {
		return nil, err
	}
	return s, nil
}

// sort orders every collection by id.
func (s *Snapshot) sort() {
	sort.Slice(s.Clients, func(i, j int) bool { return s.Clients[i].ID < s.Clients[j].ID })
	sort.Slice(s.Suppliers, func(i, j int) bool { return s.Suppliers[i].ID < s.Suppliers[j].ID })
	sort.Slice(s.Categories, func(i, j int) bool { return s.Categories[i].ID < s.Categories[j].ID })
	sort.Slice(s.CustomFields, func(i, j int) bool { return s.CustomFields[i].ID < s.CustomFields[j].ID })
	sort.Slice(s.Items, func(i, j int) bool { return s.Items[i].ID < s.Items[j].ID })
	sort.Slice(s.Invoices, func(i, j int) bool { return s.Invoices[i].ID < s.Invoices[j].ID })
	sort.Slice(s.InvoiceItems, func(i, j int) bool { return s.InvoiceItems[i].ID < s.InvoiceItems[j].ID })
	sort.Slice(s.CustomInvoiceFields, func(i, j int) bool { return s.CustomInvoiceFields[i].ID < s.CustomInvoiceFields[j].ID })
	sort.Slice(s.Estimates, func(i, j int) bool { return s.Estimates[i].ID < s.Estimates[j].ID })
	sort.Slice(s.EstimateItems, func(i, j int) bool { return s.EstimateItems[i].ID < s.EstimateItems[j].ID })
}

// CheckIntegrity verifies that every foreign key resolves to a record inside
// the snapshot, or is nullable and absent. The first violation is reported
// with its entity type, record id, and field.
func (s *Snapshot) CheckIntegrity() error {
	clients := idSet(len(s.Clients))
	for _, c := range s.Clients {
		clients[c.ID] = struct{}{}
	}
	suppliers := idSet(len(s.Suppliers))
	for _, sp := range s.Suppliers {
		suppliers[sp.ID] = struct{}{}
	}
	categories := idSet(len(s.Categories))
	for _, c := range s.Categories {
		categories[c.ID] = struct{}{}
	}
	customFields := idSet(len(s.CustomFields))
	invoices := idSet(len(s.Invoices))
	items := idSet(len(s.Items))
	estimates := idSet(len(s.Estimates))

	for _, f := range s.CustomFields {
		if _, ok := categories[f.CategoryID]; !ok {
			return violation("custom_field", f.ID, "category_id", f.CategoryID)
		}
		customFields[f.ID] = struct{}{}
	}

	for _, it := range s.Items {
		if it.CategoryID != nil {
			if _, ok := categories[*it.CategoryID]; !ok {
				return violation("item", it.ID, "category_id", *it.CategoryID)
			}
		}
		if it.SupplierID != nil {
			if _, ok := suppliers[*it.SupplierID]; !ok {
				return violation("item", it.ID, "supplier_id", *it.SupplierID)
			}
		}
		items[it.ID] = struct{}{}
	}

	for _, inv := range s.Invoices {
		if _, ok := clients[inv.ClientID]; !ok {
			return violation("invoice", inv.ID, "client_id", inv.ClientID)
		}
		invoices[inv.ID] = struct{}{}
	}

	for _, li := range s.InvoiceItems {
		if _, ok := invoices[li.InvoiceID]; !ok {
			return violation("invoice_item", li.ID, "invoice_id", li.InvoiceID)
		}
		if li.ItemID != nil {
			if _, ok := items[*li.ItemID]; !ok {
				return violation("invoice_item", li.ID, "item_id", *li.ItemID)
			}
		}
	}

	for _, f := range s.CustomInvoiceFields {
		if _, ok := invoices[f.InvoiceID]; !ok {
			return violation("custom_invoice_field", f.ID, "invoice_id", f.InvoiceID)
		}
		if f.CustomFieldID != nil {
			if _, ok := customFields[*f.CustomFieldID]; !ok {
				return violation("custom_invoice_field", f.ID, "custom_field_id", *f.CustomFieldID)
			}
		}
	}

	for _, est := range s.Estimates {
		if _, ok := clients[est.ClientID]; !ok {
			return violation("estimate", est.ID, "client_id", est.ClientID)
		}
		estimates[est.ID] = struct{}{}
	}

	for _, li := range s.EstimateItems {
		if _, ok := estimates[li.EstimateID]; !ok {
			return violation("estimate_item", li.ID, "estimate_id", li.EstimateID)
		}
		if li.ItemID != nil {
			if _, ok := items[*li.ItemID]; !ok {
				return violation("estimate_item", li.ID, "item_id", *li.ItemID)
			}
		}
	}

	return nil
}

// TypeCount is a per-entity-type record count, used for inspection output.
type TypeCount struct {
	Type  string
	Count int
}

// Counts returns record counts per entity type, in the snapshot's canonical
// type order.
func (s *Snapshot) Counts() []TypeCount {
	return []TypeCount{
		{"clients", len(s.Clients)},
		{"suppliers", len(s.Suppliers)},
		{"categories", len(s.Categories)},
		{"custom_fields", len(s.CustomFields)},
		{"items", len(s.Items)},
		{"invoices", len(s.Invoices)},
		{"invoice_items", len(s.InvoiceItems)},
		{"custom_invoice_fields", len(s.CustomInvoiceFields)},
		{"estimates", len(s.Estimates)},
		{"estimate_items", len(s.EstimateItems)},
	}
}

func idSet(size int) map[string]struct{} {
	return make(map[string]struct{}, size)
}

func violation(entity, id, field, ref string) error {
	return fmt.Errorf("%w: %s %s: %s %q does not resolve", ErrIntegrity, entity, id, field, ref)
}
