package pricing

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/printflow/printflow/internal/catalog"
)

// Request is one immutable calculation input. Dimensions are net sizes in
// centimeters; Quantity is the number of finished pieces.
type Request struct {
	Width           decimal.Decimal
	Height          decimal.Decimal
	Quantity        int
	TemplateID      int64
	SelectedOptions []int64
	OverlapOverride *decimal.Decimal
}

// LineType distinguishes material and process line items.
type LineType string

const (
	LineMaterial LineType = "MATERIAL"
	LineProcess  LineType = "PROCESS"
)

// LineItem is one priced component of a calculation. Line items escape the
// engine only inside a Result so the caller can snapshot them verbatim for
// archival; they are never read back into a later calculation.
type LineItem struct {
	ComponentID    int64
	Name           string
	Type           LineType
	VariantID      int64
	ProcessID      int64
	Quantity       decimal.Decimal
	Unit           string
	UnitPrice      decimal.Decimal
	UnitCost       decimal.Decimal
	SetupFee       decimal.Decimal
	Price          decimal.Decimal
	Cost           decimal.Decimal
	AppliedMarginW decimal.Decimal
	AppliedMarginH decimal.Decimal
	FromOption     bool
	IsSplit        bool
	NumPanels      int
	PanelWidth     decimal.Decimal
	SplitAxis      string
}

// ClientLine is one row of the client-facing summary.
type ClientLine struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	Total       decimal.Decimal `json:"total"`
}

// TechLine is one row of the production-facing breakdown.
type TechLine struct {
	Name     string          `json:"name"`
	Type     LineType        `json:"type"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit"`
	PriceNet decimal.Decimal `json:"price_net"`
	Detail   string          `json:"detail"`
}

// Result is the immutable output of one calculation. Monetary totals are
// rounded half-up to 2 decimal places, the margin percentage to 1.
type Result struct {
	TotalPriceNet    decimal.Decimal `json:"total_price_net"`
	TotalCostCOGS    decimal.Decimal `json:"total_cost_cogs"`
	MarginPercentage decimal.Decimal `json:"margin_percentage"`
	GrossWidth       decimal.Decimal `json:"gross_width_cm"`
	GrossHeight      decimal.Decimal `json:"gross_height_cm"`
	IsSplit          bool            `json:"is_split"`
	NumPanels        int             `json:"num_panels"`
	OverlapUsed      decimal.Decimal `json:"overlap_used_cm"`
	ClientView       []ClientLine    `json:"client_view"`
	TechView         []TechLine      `json:"tech_view"`
	LineItems        []LineItem      `json:"-"`
}

// Calculate prices one job against a catalog snapshot. It is a pure
// function: no I/O, no shared state, deterministic for fixed inputs.
func Calculate(snap catalog.Snapshot, req Request) (*Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := checkSnapshot(snap); err != nil {
		return nil, err
	}

	active, err := activeComponents(snap.Template, req.SelectedOptions)
	if err != nil {
		return nil, err
	}

	rm := resolveMargins(snap, req)

	lines, totals, err := aggregate(snap, active, rm, req)
	if err != nil {
		return nil, err
	}

	res := &Result{
		TotalPriceNet:    totals.price.Round(2),
		TotalCostCOGS:    totals.cost.Round(2),
		MarginPercentage: marginPercentage(totals.price, totals.cost),
		GrossWidth:       rm.GrossWidth,
		GrossHeight:      rm.GrossHeight,
		OverlapUsed:      rm.Overlap,
		NumPanels:        1,
		LineItems:        lines,
	}
	for _, li := range lines {
		if li.IsSplit {
			res.IsSplit = true
		}
		if li.NumPanels > res.NumPanels {
			res.NumPanels = li.NumPanels
		}
	}

	res.ClientView = formatClientView(snap.Template, req, res.TotalPriceNet)
	res.TechView = formatTechView(lines, rm.Overlap)

	return res, nil
}

func validateRequest(req Request) error {
	if !req.Width.IsPositive() {
		return validationf("width must be positive, got %s", req.Width)
	}
	if !req.Height.IsPositive() {
		return validationf("height must be positive, got %s", req.Height)
	}
	if req.Quantity <= 0 {
		return validationf("quantity must be positive, got %d", req.Quantity)
	}
	if req.OverlapOverride != nil && req.OverlapOverride.IsNegative() {
		return validationf("overlap override must not be negative, got %s", req.OverlapOverride)
	}
	return nil
}

// checkSnapshot verifies every reference resolves before any arithmetic
// starts, so a failed calculation never leaves a half-priced result.
func checkSnapshot(snap catalog.Snapshot) error {
	tpl := snap.Template
	if !tpl.Active {
		return &NotFoundError{Resource: "template", ID: tpl.ID}
	}

	required := 0
	for _, comp := range tpl.Components {
		if comp.Required {
			required++
		}
		switch ref := comp.Ref.(type) {
		case catalog.MaterialRef:
			if _, ok := snap.Materials[ref.MaterialID]; !ok {
				return &NotFoundError{Resource: "material", ID: ref.MaterialID}
			}
		case catalog.ProcessRef:
			proc, ok := snap.Processes[ref.ProcessID]
			if !ok || !proc.Active {
				return &NotFoundError{Resource: "process", ID: ref.ProcessID}
			}
		default:
			return configurationf("template %d: component %d references neither material nor process", tpl.ID, comp.ID)
		}
	}
	if required == 0 {
		return configurationf("template %d has no required components", tpl.ID)
	}
	return nil
}

// activeComponents returns the required components plus the selected
// optional ones, in sort order. Unknown selected ids are user input errors.
func activeComponents(tpl catalog.Template, selected []int64) ([]catalog.TemplateComponent, error) {
	optional := make(map[int64]bool, len(tpl.Components))
	for _, comp := range tpl.Components {
		if !comp.Required {
			optional[comp.ID] = true
		}
	}

	chosen := make(map[int64]bool, len(selected))
	for _, id := range selected {
		if !optional[id] {
			return nil, validationf("selected option %d is not an optional component of template %d", id, tpl.ID)
		}
		chosen[id] = true
	}

	active := make([]catalog.TemplateComponent, 0, len(tpl.Components))
	for _, comp := range tpl.Components {
		if comp.Required || chosen[comp.ID] {
			active = append(active, comp)
		}
	}
	// Presentation order is sort_order, regardless of how the snapshot
	// loader happened to order the slice.
	sort.SliceStable(active, func(i, j int) bool { return active[i].SortOrder < active[j].SortOrder })
	return active, nil
}

// marginPercentage returns (price - cost) / price * 100 rounded to one
// decimal place, and zero when the price is zero.
func marginPercentage(price, cost decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() {
		return decimal.Zero
	}
	return price.Sub(cost).Div(price).Mul(decimal.NewFromInt(100)).Round(1)
}
