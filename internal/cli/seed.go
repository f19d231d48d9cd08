package cli

import (
	"context"
	"fmt"
	"time"

	"billkeeper/internal/models"
)

// seed inserts a small demo data set so a fresh install has something to
// back up. It adds on top of existing data and never deletes anything.
func (a *App) seed(ctx context.Context) {
	ds := demoDataset(time.Now().UTC())
	if err := a.store.InsertAll(ctx, ds); err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Printf("Inserted %d demo records.\n", ds.TotalRecords())
}

func demoDataset(now time.Time) *models.Dataset {
	clientID := models.NewID()
	supplierID := models.NewID()
	categoryID := models.NewID()
	fieldID := models.NewID()
	itemID := models.NewID()
	invoiceID := models.NewID()
	estimateID := models.NewID()

	due := now.Add(30 * 24 * time.Hour)

	return &models.Dataset{
		Clients: []models.Client{
			{ID: clientID, Name: "Demo Client", Email: "client@example.com",
				CreatedAt: now, UpdatedAt: now},
		},
		Suppliers: []models.Supplier{
			{ID: supplierID, Name: "Demo Supplier", Email: "supplier@example.com",
				CreatedAt: now, UpdatedAt: now},
		},
		Categories: []models.Category{
			{ID: categoryID, Name: "General", Color: "#3366cc", CreatedAt: now, UpdatedAt: now},
		},
		CustomFields: []models.CustomField{
			{ID: fieldID, CategoryID: categoryID, Name: "Warranty", DefaultValue: "1 year", Position: 1},
		},
		Items: []models.Item{
			{ID: itemID, Name: "Demo Item", SKU: "DEMO-1", Unit: "pcs",
				UnitPriceCents: 1999, Quantity: 10000,
				CategoryID: &categoryID, SupplierID: &supplierID,
				CreatedAt: now, UpdatedAt: now},
		},
		Invoices: []models.Invoice{
			{ID: invoiceID, Number: "DEMO-001", ClientID: clientID, Status: "draft",
				Currency: "EUR", TaxRateBps: 2100, IssuedAt: now, DueAt: &due,
				CreatedAt: now, UpdatedAt: now},
		},
		InvoiceItems: []models.InvoiceItem{
			{ID: models.NewID(), InvoiceID: invoiceID, ItemID: &itemID,
				Description: "Demo Item", Quantity: 2000, UnitPriceCents: 1999, Position: 1},
		},
		CustomInvoiceFields: []models.CustomInvoiceField{
			{ID: models.NewID(), InvoiceID: invoiceID, CustomFieldID: &fieldID,
				Name: "Warranty", Value: "1 year"},
		},
		Estimates: []models.Estimate{
			{ID: estimateID, Number: "EST-001", ClientID: clientID, Status: "open",
				Currency: "EUR", TaxRateBps: 2100, IssuedAt: now, ValidUntil: &due,
				CreatedAt: now, UpdatedAt: now},
		},
		EstimateItems: []models.EstimateItem{
			{ID: models.NewID(), EstimateID: estimateID, ItemID: &itemID,
				Description: "Demo Item", Quantity: 1000, UnitPriceCents: 1999, Position: 1},
		},
	}
}
