package pricing

import "github.com/shopspring/decimal"

// panelPlan describes how an oversized job is split into overlapping
// strips cut from a roll that is too narrow to cover it in one piece.
type panelPlan struct {
	NumPanels     int
	PanelWidth    decimal.Decimal
	Overlap       decimal.Decimal
	TotalConsumed decimal.Decimal
	IsSplit       bool
}

// planPanels computes the panel count and material consumption along the
// split axis. Each panel after the first contributes panelWidth - overlap
// of new coverage, the overlap strip being shared with its neighbor:
//
//	numPanels     = ceil((gross - overlap) / (panelWidth - overlap))
//	totalConsumed = numPanels*panelWidth - (numPanels-1)*overlap
//
// A panel no wider than the overlap would never converge and is rejected
// as bad catalog data.
func planPanels(gross, panelWidth, overlap decimal.Decimal) (panelPlan, error) {
	if panelWidth.LessThanOrEqual(overlap) {
		return panelPlan{}, configurationf("panel width %s cm does not exceed overlap %s cm", panelWidth, overlap)
	}

	plan := panelPlan{NumPanels: 1, PanelWidth: panelWidth, Overlap: overlap}
	if gross.GreaterThan(panelWidth) {
		n := gross.Sub(overlap).Div(panelWidth.Sub(overlap)).Ceil().IntPart()
		if n > 1 {
			plan.NumPanels = int(n)
			plan.IsSplit = true
		}
	}

	panels := decimal.NewFromInt(int64(plan.NumPanels))
	joints := decimal.NewFromInt(int64(plan.NumPanels - 1))
	plan.TotalConsumed = panels.Mul(panelWidth).Sub(joints.Mul(overlap))
	return plan, nil
}
