package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/printflow/printflow/internal/catalog"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// totals accumulates unrounded money across line items. Rounding to the
// currency's minor unit happens exactly once, when the result is
// finalized, so sub-totals never compound rounding error.
type totals struct {
	price decimal.Decimal
	cost  decimal.Decimal
}

// aggregate prices every active component and returns the line items in
// component sort order together with the unrounded totals.
func aggregate(snap catalog.Snapshot, active []catalog.TemplateComponent, rm resolvedMargins, req Request) ([]LineItem, totals, error) {
	var (
		lines []LineItem
		tot   totals
	)

	qty := decimal.NewFromInt(int64(req.Quantity))

	for _, comp := range active {
		var (
			li  LineItem
			err error
		)
		switch ref := comp.Ref.(type) {
		case catalog.MaterialRef:
			li, err = materialLine(snap, comp, snap.Materials[ref.MaterialID], rm, qty)
		case catalog.ProcessRef:
			li, err = processLine(comp, snap.Processes[ref.ProcessID], rm, qty)
		}
		if err != nil {
			return nil, totals{}, err
		}

		tot.price = tot.price.Add(li.Price)
		tot.cost = tot.cost.Add(li.Cost)

		// Finalize money per line only after the unrounded values fed
		// the totals.
		li.Price = li.Price.Round(2)
		li.Cost = li.Cost.Round(2)
		li.Quantity = li.Quantity.Round(4)
		lines = append(lines, li)
	}

	return lines, tot, nil
}

// materialLine selects a variant for the component's material, plans
// panels when the job is wider than any roll, and prices the consumed
// material: cost = consumed * cost_price_per_unit, price = cost * (1 +
// markup/100).
func materialLine(snap catalog.Snapshot, comp catalog.TemplateComponent, mat catalog.Material, rm resolvedMargins, qty decimal.Decimal) (LineItem, error) {
	variant, splitRequired, err := selectBestFit(mat, rm.GrossWidth)
	if err != nil {
		return LineItem{}, err
	}

	consumedW, consumedH := rm.GrossWidth, rm.GrossHeight
	var plan panelPlan
	splitAxis := ""

	heightOverflows := variant.Length.Valid && rm.GrossHeight.GreaterThan(variant.Length.Decimal)
	switch {
	case splitRequired && heightOverflows:
		return LineItem{}, configurationf(
			"material %d (%s): job %s x %s cm exceeds roll %s x %s cm on both axes",
			mat.ID, mat.Name, rm.GrossWidth, rm.GrossHeight, variant.Width.Decimal, variant.Length.Decimal)
	case splitRequired:
		plan, err = planPanels(rm.GrossWidth, variant.Width.Decimal, rm.Overlap)
		if err != nil {
			return LineItem{}, err
		}
		consumedW = plan.TotalConsumed
		splitAxis = "width"
	case heightOverflows:
		plan, err = planPanels(rm.GrossHeight, variant.Length.Decimal, rm.Overlap)
		if err != nil {
			return LineItem{}, err
		}
		consumedH = plan.TotalConsumed
		splitAxis = "height"
	default:
		plan = panelPlan{NumPanels: 1}
	}

	var consumed decimal.Decimal
	switch variant.Unit {
	case catalog.UnitSquareMeter:
		consumed = consumedW.Div(hundred).Mul(consumedH.Div(hundred)).Mul(qty)
	case catalog.UnitLinearMeter:
		consumed = decimal.Max(consumedW, consumedH).Div(hundred).Mul(qty)
	case catalog.UnitPiece:
		consumed = qty
	default:
		return LineItem{}, configurationf("material variant %d has unpriceable unit %q", variant.ID, variant.Unit)
	}

	cost := consumed.Mul(variant.CostPricePerUnit)
	price := cost.Mul(one.Add(variant.MarkupPercentage.Div(hundred)))
	applied := variantMargin(snap.Template, variant)

	name := mat.Name
	if variant.Width.Valid {
		name = fmt.Sprintf("%s (roll %s cm)", mat.Name, variant.Width.Decimal)
	}

	return LineItem{
		ComponentID:    comp.ID,
		Name:           name,
		Type:           LineMaterial,
		VariantID:      variant.ID,
		Quantity:       consumed,
		Unit:           variant.Unit,
		UnitPrice:      variant.CostPricePerUnit.Mul(one.Add(variant.MarkupPercentage.Div(hundred))),
		UnitCost:       variant.CostPricePerUnit,
		Price:          price,
		Cost:           cost,
		AppliedMarginW: applied.W,
		AppliedMarginH: applied.H,
		FromOption:     !comp.Required,
		IsSplit:        plan.IsSplit,
		NumPanels:      plan.NumPanels,
		PanelWidth:     plan.PanelWidth,
		SplitAxis:      splitAxis,
	}, nil
}

// processLine prices an operation by its calculation method. The setup fee
// is charged once per line. When the process declares no internal cost the
// line is cost-neutral: cost equals price and contributes no margin.
func processLine(comp catalog.TemplateComponent, proc catalog.Process, rm resolvedMargins, qty decimal.Decimal) (LineItem, error) {
	var consumed decimal.Decimal
	switch proc.Method {
	case catalog.MethodArea:
		consumed = rm.GrossWidth.Div(hundred).Mul(rm.GrossHeight.Div(hundred)).Mul(qty)
	case catalog.MethodLinear:
		consumed = decimal.Max(rm.GrossWidth, rm.GrossHeight).Div(hundred).Mul(qty)
	case catalog.MethodTime:
		consumed = proc.TimeEstimate.Mul(qty)
	case catalog.MethodUnit:
		consumed = qty
	default:
		return LineItem{}, configurationf("process %d (%s) has unknown calculation method %q", proc.ID, proc.Name, proc.Method)
	}

	price := consumed.Mul(proc.UnitPrice).Add(proc.SetupFee)
	cost := price
	unitCost := proc.UnitPrice
	if proc.InternalCost.Valid {
		cost = consumed.Mul(proc.InternalCost.Decimal).Add(proc.SetupFee)
		unitCost = proc.InternalCost.Decimal
	}

	applied := rm.PerComponent[comp.ID]

	return LineItem{
		ComponentID:    comp.ID,
		Name:           proc.Name,
		Type:           LineProcess,
		ProcessID:      proc.ID,
		Quantity:       consumed,
		Unit:           processUnit(proc),
		UnitPrice:      proc.UnitPrice,
		UnitCost:       unitCost,
		SetupFee:       proc.SetupFee,
		Price:          price,
		Cost:           cost,
		AppliedMarginW: applied.W,
		AppliedMarginH: applied.H,
		FromOption:     !comp.Required,
		NumPanels:      1,
	}, nil
}

func processUnit(proc catalog.Process) string {
	if proc.Unit != "" {
		return proc.Unit
	}
	switch proc.Method {
	case catalog.MethodArea:
		return catalog.UnitSquareMeter
	case catalog.MethodLinear:
		return catalog.UnitLinearMeter
	case catalog.MethodTime:
		return catalog.UnitHour
	default:
		return catalog.UnitPiece
	}
}
