// Package models defines the invoicing entities managed by billkeeper.
//
// Every entity carries a stable UUID identifier. Relationships are expressed
// as identifier fields (never embedded structs), so a set of entities is
// serializable without knowledge of the storage engine. Nullable foreign
// keys use *string and are nil when absent.
//
// Monetary amounts are integer cents and quantities integer thousandths of a
// unit; persisted data contains no floating point values.
package models

import (
	"time"

	"github.com/google/uuid"
)

// NewID returns a fresh entity identifier.
func NewID() string {
	return uuid.NewString()
}

// Client is a customer that invoices and estimates are issued to.
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	TaxNumber string    `json:"tax_number"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Supplier is a vendor that inventory items are purchased from.
type Supplier struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	TaxNumber string    `json:"tax_number"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Category groups inventory items and owns a list of custom fields.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CustomField is a user-defined attribute attached to a category.
type CustomField struct {
	ID           string `json:"id"`
	CategoryID   string `json:"category_id"`
	Name         string `json:"name"`
	DefaultValue string `json:"default_value"`
	Position     int64  `json:"position"`
}

// Item is an inventory item. CategoryID and SupplierID are optional.
type Item struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	SKU            string    `json:"sku"`
	Unit           string    `json:"unit"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	Quantity       int64     `json:"quantity"` // thousandths of Unit
	CategoryID     *string   `json:"category_id"`
	SupplierID     *string   `json:"supplier_id"`
	Notes          string    `json:"notes"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Invoice is a billing document issued to a client.
type Invoice struct {
	ID          string     `json:"id"`
	Number      string     `json:"number"`
	ClientID    string     `json:"client_id"`
	Status      string     `json:"status"`
	Currency    string     `json:"currency"`
	TaxRateBps  int64      `json:"tax_rate_bps"` // basis points
	IssuedAt    time.Time  `json:"issued_at"`
	DueAt       *time.Time `json:"due_at"`
	Notes       string     `json:"notes"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// InvoiceItem is one line of an invoice. ItemID links back to inventory when
// the line was created from an item; free-form lines leave it nil.
type InvoiceItem struct {
	ID             string  `json:"id"`
	InvoiceID      string  `json:"invoice_id"`
	ItemID         *string `json:"item_id"`
	Description    string  `json:"description"`
	Quantity       int64   `json:"quantity"` // thousandths
	UnitPriceCents int64   `json:"unit_price_cents"`
	Position       int64   `json:"position"`
}

// CustomInvoiceField is a named value printed on an invoice. CustomFieldID
// links to the originating category field when one exists.
type CustomInvoiceField struct {
	ID            string  `json:"id"`
	InvoiceID     string  `json:"invoice_id"`
	CustomFieldID *string `json:"custom_field_id"`
	Name          string  `json:"name"`
	Value         string  `json:"value"`
}

// Estimate is a quote document; accepted estimates become invoices.
type Estimate struct {
	ID         string     `json:"id"`
	Number     string     `json:"number"`
	ClientID   string     `json:"client_id"`
	Status     string     `json:"status"`
	Currency   string     `json:"currency"`
	TaxRateBps int64      `json:"tax_rate_bps"`
	IssuedAt   time.Time  `json:"issued_at"`
	ValidUntil *time.Time `json:"valid_until"`
	Notes      string     `json:"notes"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// EstimateItem is one line of an estimate.
type EstimateItem struct {
	ID             string  `json:"id"`
	EstimateID     string  `json:"estimate_id"`
	ItemID         *string `json:"item_id"`
	Description    string  `json:"description"`
	Quantity       int64   `json:"quantity"` // thousandths
	UnitPriceCents int64   `json:"unit_price_cents"`
	Position       int64   `json:"position"`
}

// Dataset is the complete set of managed entities, as read from or written
// to the store in one transaction. It owns its records and never aliases
// live store state.
type Dataset struct {
	Clients             []Client             `json:"clients"`
	Suppliers           []Supplier           `json:"suppliers"`
	Categories          []Category           `json:"categories"`
	CustomFields        []CustomField        `json:"custom_fields"`
	Items               []Item               `json:"items"`
	Invoices            []Invoice            `json:"invoices"`
	InvoiceItems        []InvoiceItem        `json:"invoice_items"`
	CustomInvoiceFields []CustomInvoiceField `json:"custom_invoice_fields"`
	Estimates           []Estimate           `json:"estimates"`
	EstimateItems       []EstimateItem       `json:"estimate_items"`
}

// TotalRecords returns the number of records across all collections.
func (d *Dataset) TotalRecords() int {
	return len(d.Clients) + len(d.Suppliers) + len(d.Categories) +
		len(d.CustomFields) + len(d.Items) + len(d.Invoices) +
		len(d.InvoiceItems) + len(d.CustomInvoiceFields) +
		len(d.Estimates) + len(d.EstimateItems)
}
