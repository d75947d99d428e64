package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/printflow/printflow/internal/catalog"
)

var two = decimal.NewFromInt(2)

// margin is a per-axis technical margin in centimeters.
type margin struct {
	W decimal.Decimal
	H decimal.Decimal
}

// resolvedMargins is the Margin Resolver output: production-safe gross
// dimensions, the overlap to use for paneling, and the effective margin
// per component for the technical view.
type resolvedMargins struct {
	GrossWidth   decimal.Decimal
	GrossHeight  decimal.Decimal
	Overlap      decimal.Decimal
	PerComponent map[int64]margin
}

// resolveMargins computes each component's effective technical margin and
// sizes the job to satisfy the most demanding required operation:
// gross = net + 2 * max(effective margin) across required components,
// independently per axis. Optional components never widen the gross size.
func resolveMargins(snap catalog.Snapshot, req Request) resolvedMargins {
	tpl := snap.Template

	rm := resolvedMargins{
		Overlap:      tpl.DefaultOverlap,
		PerComponent: make(map[int64]margin, len(tpl.Components)),
	}
	if req.OverlapOverride != nil {
		rm.Overlap = *req.OverlapOverride
	}

	maxW, maxH := decimal.Zero, decimal.Zero
	for _, comp := range tpl.Components {
		m := effectiveMargin(snap, comp)
		rm.PerComponent[comp.ID] = m
		if !comp.Required {
			continue
		}
		if m.W.GreaterThan(maxW) {
			maxW = m.W
		}
		if m.H.GreaterThan(maxH) {
			maxH = m.H
		}
	}

	rm.GrossWidth = req.Width.Add(maxW.Mul(two))
	rm.GrossHeight = req.Height.Add(maxH.Mul(two))
	return rm
}

// effectiveMargin applies the precedence chain per axis: a positive margin
// on the referenced variant or process wins, otherwise the template default.
// A material component is sized by the strictest margin among its active
// variants, since the variant is not chosen yet at this stage.
func effectiveMargin(snap catalog.Snapshot, comp catalog.TemplateComponent) margin {
	tpl := snap.Template
	m := margin{W: tpl.DefaultMarginW, H: tpl.DefaultMarginH}

	switch ref := comp.Ref.(type) {
	case catalog.MaterialRef:
		maxW, maxH := decimal.Zero, decimal.Zero
		for _, v := range snap.Materials[ref.MaterialID].Variants {
			if !v.Active {
				continue
			}
			if v.MarginW.GreaterThan(maxW) {
				maxW = v.MarginW
			}
			if v.MarginH.GreaterThan(maxH) {
				maxH = v.MarginH
			}
		}
		if maxW.IsPositive() {
			m.W = maxW
		}
		if maxH.IsPositive() {
			m.H = maxH
		}
	case catalog.ProcessRef:
		proc := snap.Processes[ref.ProcessID]
		if proc.MarginW.IsPositive() {
			m.W = proc.MarginW
		}
		if proc.MarginH.IsPositive() {
			m.H = proc.MarginH
		}
	}
	return m
}

// variantMargin is the margin recorded on a material line once the variant
// is known: the chosen variant's own margin when positive, else the
// template default.
func variantMargin(tpl catalog.Template, v catalog.MaterialVariant) margin {
	m := margin{W: tpl.DefaultMarginW, H: tpl.DefaultMarginH}
	if v.MarginW.IsPositive() {
		m.W = v.MarginW
	}
	if v.MarginH.IsPositive() {
		m.H = v.MarginH
	}
	return m
}
