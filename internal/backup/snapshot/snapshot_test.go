package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billkeeper/internal/models"
)

type fakeReader struct {
	ds  *models.Dataset
	err error
}

func (f *fakeReader) ReadAll(_ context.Context) (*models.Dataset, error) {
	return f.ds, f.err
}

func strp(s string) *string { return &s }

func TestBuild_SortsCollections(t *testing.T) {
	created := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	r := &fakeReader{ds: &models.Dataset{
		Clients: []models.Client{
			{ID: "b", Name: "Second", CreatedAt: created, UpdatedAt: created},
			{ID: "a", Name: "First", CreatedAt: created, UpdatedAt: created},
			{ID: "c", Name: "Third", CreatedAt: created, UpdatedAt: created},
		},
	}}

	s, err := Build(context.Background(), r)
	require.NoError(t, err)

	require.Len(t, s.Clients, 3)
	assert.Equal(t, "a", s.Clients[0].ID)
	assert.Equal(t, "b", s.Clients[1].ID)
	assert.Equal(t, "c", s.Clients[2].ID)
}

func TestBuild_StoreReadError(t *testing.T) {
	readErr := errors.New("disk on fire")
	r := &fakeReader{err: readErr}

	_, err := Build(context.Background(), r)
	require.ErrorIs(t, err, ErrStoreRead)
	require.ErrorIs(t, err, readErr)
}

func TestBuild_DanglingReference(t *testing.T) {
	r := &fakeReader{ds: &models.Dataset{
		Invoices: []models.Invoice{
			{ID: "inv-1", Number: "2026-001", ClientID: "nobody"},
		},
	}}

	_, err := Build(context.Background(), r)
	require.ErrorIs(t, err, ErrIntegrity)
	assert.Contains(t, err.Error(), "inv-1")
	assert.Contains(t, err.Error(), "client_id")
}

func TestCheckIntegrity(t *testing.T) {
	valid := func() *Snapshot {
		return &Snapshot{Dataset: models.Dataset{
			Clients:    []models.Client{{ID: "cl-1"}},
			Suppliers:  []models.Supplier{{ID: "su-1"}},
			Categories: []models.Category{{ID: "ca-1"}},
			CustomFields: []models.CustomField{
				{ID: "cf-1", CategoryID: "ca-1", Name: "Voltage"},
			},
			Items: []models.Item{
				{ID: "it-1", CategoryID: strp("ca-1"), SupplierID: strp("su-1")},
				{ID: "it-2"},
			},
			Invoices: []models.Invoice{{ID: "in-1", ClientID: "cl-1"}},
			InvoiceItems: []models.InvoiceItem{
				{ID: "ii-1", InvoiceID: "in-1", ItemID: strp("it-1")},
				{ID: "ii-2", InvoiceID: "in-1"},
			},
			CustomInvoiceFields: []models.CustomInvoiceField{
				{ID: "cif-1", InvoiceID: "in-1", CustomFieldID: strp("cf-1")},
				{ID: "cif-2", InvoiceID: "in-1"},
			},
			Estimates: []models.Estimate{{ID: "es-1", ClientID: "cl-1"}},
			EstimateItems: []models.EstimateItem{
				{ID: "ei-1", EstimateID: "es-1", ItemID: strp("it-2")},
			},
		}}
	}

	t.Run("valid graph", func(t *testing.T) {
		require.NoError(t, valid().CheckIntegrity())
	})

	tests := []struct {
		name   string
		mutate func(*Snapshot)
	}{
		{"custom field without category", func(s *Snapshot) { s.CustomFields[0].CategoryID = "gone" }},
		{"item with missing category", func(s *Snapshot) { s.Items[0].CategoryID = strp("gone") }},
		{"item with missing supplier", func(s *Snapshot) { s.Items[0].SupplierID = strp("gone") }},
		{"invoice without client", func(s *Snapshot) { s.Invoices[0].ClientID = "gone" }},
		{"invoice item without invoice", func(s *Snapshot) { s.InvoiceItems[0].InvoiceID = "gone" }},
		{"invoice item with missing item", func(s *Snapshot) { s.InvoiceItems[0].ItemID = strp("gone") }},
		{"custom invoice field without invoice", func(s *Snapshot) { s.CustomInvoiceFields[0].InvoiceID = "gone" }},
		{"custom invoice field with missing definition", func(s *Snapshot) { s.CustomInvoiceFields[0].CustomFieldID = strp("gone") }},
		{"estimate without client", func(s *Snapshot) { s.Estimates[0].ClientID = "gone" }},
		{"estimate item without estimate", func(s *Snapshot) { s.EstimateItems[0].EstimateID = "gone" }},
		{"estimate item with missing item", func(s *Snapshot) { s.EstimateItems[0].ItemID = strp("gone") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			require.ErrorIs(t, s.CheckIntegrity(), ErrIntegrity)
		})
	}
}

func TestCounts(t *testing.T) {
	s := &Snapshot{Dataset: models.Dataset{
		Clients: []models.Client{{ID: "a"}, {ID: "b"}},
		Items:   []models.Item{{ID: "c"}},
	}}

	counts := s.Counts()
	require.Len(t, counts, 10)

	byType := make(map[string]int, len(counts))
	for _, c := range counts {
		byType[c.Type] = c.Count
	}
	assert.Equal(t, 2, byType["clients"])
	assert.Equal(t, 1, byType["items"])
	assert.Equal(t, 0, byType["invoices"])
}
