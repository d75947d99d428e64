package quotes

import (
	"github.com/shopspring/decimal"

	"github.com/printflow/printflow/internal/pricing"
)

// Status is the quote lifecycle state.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSent      Status = "SENT"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
	StatusCompleted Status = "COMPLETED"
)

// Valid reports whether s is a known lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusAccepted, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

// Quote is an archived calculation result. Every monetary figure is a
// snapshot taken when the quote was created; the engine is never re-run to
// reconstruct a historical price.
type Quote struct {
	ID               int64           `json:"id"`
	Status           Status          `json:"status"`
	ClientName       string          `json:"client_name,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	TotalPriceNet    decimal.Decimal `json:"total_price_net"`
	TotalCostCOGS    decimal.Decimal `json:"total_cost_cogs"`
	MarginPercentage decimal.Decimal `json:"margin_percentage"`
	CreatedAt        string          `json:"created_at"`
	Items            []Item          `json:"items,omitempty"`
}

// Item is one priced job inside a quote.
type Item struct {
	ID          int64           `json:"id"`
	QuoteID     int64           `json:"quote_id"`
	ProductName string          `json:"product_name"`
	TemplateID  int64           `json:"template_id"`
	Width       decimal.Decimal `json:"width_cm"`
	Height      decimal.Decimal `json:"height_cm"`
	Quantity    int             `json:"quantity"`
	GrossWidth  decimal.Decimal `json:"gross_width_cm"`
	GrossHeight decimal.Decimal `json:"gross_height_cm"`
	IsSplit     bool            `json:"is_split"`
	NumPanels   int             `json:"num_panels"`
	Overlap     decimal.Decimal `json:"overlap_cm"`
	Components  []Component     `json:"components,omitempty"`
}

// Component is a verbatim line-item snapshot.
type Component struct {
	ID             int64            `json:"id"`
	VariantID      int64            `json:"variant_id,omitempty"`
	ProcessID      int64            `json:"process_id,omitempty"`
	Name           string           `json:"name"`
	Type           pricing.LineType `json:"type"`
	Quantity       decimal.Decimal  `json:"quantity"`
	Unit           string           `json:"unit"`
	UnitPrice      decimal.Decimal  `json:"unit_price"`
	TotalPrice     decimal.Decimal  `json:"total_price"`
	TotalCost      decimal.Decimal  `json:"total_cost"`
	FromOption     bool             `json:"is_from_option"`
	AppliedMarginW decimal.Decimal  `json:"tech_margin_applied_w"`
	AppliedMarginH decimal.Decimal  `json:"tech_margin_applied_h"`
	Detail         string           `json:"detail"`
}

// FromResult freezes one calculation into a quote with a single item. The
// caller supplies the client-facing fields; everything priced comes
// verbatim from the result.
func FromResult(productName, clientName, notes string, req pricing.Request, res *pricing.Result) Quote {
	item := Item{
		ProductName: productName,
		TemplateID:  req.TemplateID,
		Width:       req.Width,
		Height:      req.Height,
		Quantity:    req.Quantity,
		GrossWidth:  res.GrossWidth,
		GrossHeight: res.GrossHeight,
		IsSplit:     res.IsSplit,
		NumPanels:   res.NumPanels,
		Overlap:     res.OverlapUsed,
	}
	for i, li := range res.LineItems {
		item.Components = append(item.Components, Component{
			VariantID:      li.VariantID,
			ProcessID:      li.ProcessID,
			Name:           li.Name,
			Type:           li.Type,
			Quantity:       li.Quantity,
			Unit:           li.Unit,
			UnitPrice:      li.UnitPrice,
			TotalPrice:     li.Price,
			TotalCost:      li.Cost,
			FromOption:     li.FromOption,
			AppliedMarginW: li.AppliedMarginW,
			AppliedMarginH: li.AppliedMarginH,
			Detail:         res.TechView[i].Detail,
		})
	}

	return Quote{
		Status:           StatusDraft,
		ClientName:       clientName,
		Notes:            notes,
		TotalPriceNet:    res.TotalPriceNet,
		TotalCostCOGS:    res.TotalCostCOGS,
		MarginPercentage: res.MarginPercentage,
		Items:            []Item{item},
	}
}
