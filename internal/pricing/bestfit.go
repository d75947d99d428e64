package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/printflow/printflow/internal/catalog"
)

// selectBestFit picks the cheapest active variant whose roll width covers
// the required gross width. A variant without a width constraint always
// fits. When nothing fits, the widest active variant is returned with
// split=true as the panel-width candidate: the widest roll maximizes panel
// size and so minimizes panel count.
func selectBestFit(material catalog.Material, grossWidth decimal.Decimal) (catalog.MaterialVariant, bool, error) {
	var active, fits []catalog.MaterialVariant
	for _, v := range material.Variants {
		if !v.Active {
			continue
		}
		active = append(active, v)
		if !v.Width.Valid || v.Width.Decimal.GreaterThanOrEqual(grossWidth) {
			fits = append(fits, v)
		}
	}
	if len(active) == 0 {
		return catalog.MaterialVariant{}, false, configurationf("material %d (%s) has no active variants", material.ID, material.Name)
	}

	if len(fits) > 0 {
		best := fits[0]
		for _, v := range fits[1:] {
			if cheaperFit(v, best) {
				best = v
			}
		}
		return best, false, nil
	}

	// Nothing is wide enough; every active variant is width-constrained
	// here, because unconstrained variants always land in fits.
	widest := active[0]
	for _, v := range active[1:] {
		if v.Width.Decimal.GreaterThan(widest.Width.Decimal) {
			widest = v
		}
	}
	return widest, true, nil
}

// cheaperFit orders fitting variants by unit cost, then by ascending width
// so the narrowest sufficient roll wins a tie (least offcut). Unconstrained
// variants sort after constrained ones; variant id breaks exact ties to
// keep selection deterministic.
func cheaperFit(a, b catalog.MaterialVariant) bool {
	if c := a.CostPricePerUnit.Cmp(b.CostPricePerUnit); c != 0 {
		return c < 0
	}
	switch {
	case a.Width.Valid && !b.Width.Valid:
		return true
	case !a.Width.Valid && b.Width.Valid:
		return false
	case a.Width.Valid && b.Width.Valid:
		if c := a.Width.Decimal.Cmp(b.Width.Decimal); c != 0 {
			return c < 0
		}
	}
	return a.ID < b.ID
}
