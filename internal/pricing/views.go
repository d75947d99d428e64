package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/printflow/printflow/internal/catalog"
)

// formatClientView projects the whole calculation into a single summary
// row for the client: product, quantity, total. Costs and production
// detail never appear here.
func formatClientView(tpl catalog.Template, req Request, total decimal.Decimal) []ClientLine {
	return []ClientLine{{
		Description: tpl.Name,
		Quantity:    req.Quantity,
		Total:       total,
	}}
}

// formatTechView renders one row per line item for the production floor.
// The detail text always carries the applied margin and, for split jobs,
// the panel count, overlap and panel width; it is the authoritative
// cutting instruction and must not hide anything a line item knows.
func formatTechView(lines []LineItem, overlap decimal.Decimal) []TechLine {
	view := make([]TechLine, 0, len(lines))
	for _, li := range lines {
		view = append(view, TechLine{
			Name:     li.Name,
			Type:     li.Type,
			Quantity: li.Quantity,
			Unit:     li.Unit,
			PriceNet: li.Price,
			Detail:   detailText(li, overlap),
		})
	}
	return view
}

func detailText(li LineItem, overlap decimal.Decimal) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "margin %s x %s cm", li.AppliedMarginW, li.AppliedMarginH)
	if li.Type == LineProcess && li.SetupFee.IsPositive() {
		fmt.Fprintf(&sb, ", setup fee %s", li.SetupFee)
	}
	if li.IsSplit {
		fmt.Fprintf(&sb, ", panels: %d, overlap: %s cm, panel width: %s cm",
			li.NumPanels, overlap, li.PanelWidth)
		if li.SplitAxis != "" {
			fmt.Fprintf(&sb, ", split axis: %s", li.SplitAxis)
		}
	}
	if li.FromOption {
		sb.WriteString(", optional")
	}
	return sb.String()
}
