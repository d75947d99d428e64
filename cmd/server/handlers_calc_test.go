package main

import (
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/printflow/printflow/internal/pricing"
)

func TestCalculateSeededWallpaper(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/calculations", "", map[string]any{
		"template_id": 1,
		"width_cm":    "100",
		"height_cm":   "100",
		"quantity":    1,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var res pricing.Result
	decodeBody(t, rec, &res)

	// Paper margin 2.0 widens width to 104; cutting margin 0.5 sets height
	// 101. The 100 cm roll no longer fits, so the 137 cm roll is chosen:
	// 1.04 x 1.01 m2 at cost 28 with 100% markup, plus LINEAR cutting.
	if !res.GrossWidth.Equal(decimal.RequireFromString("104")) {
		t.Fatalf("expected gross width 104, got %s", res.GrossWidth)
	}
	if !res.GrossHeight.Equal(decimal.RequireFromString("101")) {
		t.Fatalf("expected gross height 101, got %s", res.GrossHeight)
	}
	if !res.TotalPriceNet.Equal(decimal.RequireFromString("74.02")) {
		t.Fatalf("expected total price 74.02, got %s", res.TotalPriceNet)
	}
	if !res.TotalCostCOGS.Equal(decimal.RequireFromString("41.49")) {
		t.Fatalf("expected total cost 41.49, got %s", res.TotalCostCOGS)
	}
	if !res.MarginPercentage.Equal(decimal.RequireFromString("43.9")) {
		t.Fatalf("expected margin 43.9, got %s", res.MarginPercentage)
	}
	if res.IsSplit {
		t.Fatalf("expected no split for a job inside the widest roll")
	}
	if len(res.ClientView) != 1 {
		t.Fatalf("expected an opaque single-row client view, got %d rows", len(res.ClientView))
	}
	if len(res.TechView) != 2 {
		t.Fatalf("expected material and cutting tech lines, got %d", len(res.TechView))
	}
}

func TestCalculateSplitsWideJob(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/calculations", "", map[string]any{
		"template_id": 1,
		"width_cm":    "200",
		"height_cm":   "100",
		"quantity":    1,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var res pricing.Result
	decodeBody(t, rec, &res)

	if !res.IsSplit {
		t.Fatalf("expected a 204 cm gross width to split on a 137 cm roll")
	}
	if res.NumPanels != 2 {
		t.Fatalf("expected 2 panels, got %d", res.NumPanels)
	}
	if !res.OverlapUsed.Equal(decimal.RequireFromString("1.5")) {
		t.Fatalf("expected template default overlap 1.5, got %s", res.OverlapUsed)
	}

	found := false
	for _, line := range res.TechView {
		if strings.Contains(line.Detail, "panels: 2") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a tech line mentioning the panel split, got %+v", res.TechView)
	}
}

func TestCalculateOptionalComponentSelected(t *testing.T) {
	h := newTestHandler(t)

	// Magnetic Board template: foil + cutting required, lamination optional
	// (component id 4 as seeded).
	base := doJSON(t, h, http.MethodPost, "/api/v1/calculations", "", map[string]any{
		"template_id": 2,
		"width_cm":    "50",
		"height_cm":   "50",
		"quantity":    1,
	})
	if base.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", base.Code, base.Body.String())
	}
	var baseRes pricing.Result
	decodeBody(t, base, &baseRes)

	withOption := doJSON(t, h, http.MethodPost, "/api/v1/calculations", "", map[string]any{
		"template_id":      2,
		"width_cm":         "50",
		"height_cm":        "50",
		"quantity":         1,
		"selected_options": []int64{4},
	})
	if withOption.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", withOption.Code, withOption.Body.String())
	}
	var optRes pricing.Result
	decodeBody(t, withOption, &optRes)

	if len(optRes.TechView) != len(baseRes.TechView)+1 {
		t.Fatalf("expected one extra tech line with lamination, got %d vs %d",
			len(optRes.TechView), len(baseRes.TechView))
	}
	if !optRes.TotalPriceNet.GreaterThan(baseRes.TotalPriceNet) {
		t.Fatalf("expected lamination to raise the price: %s vs %s",
			optRes.TotalPriceNet, baseRes.TotalPriceNet)
	}
}

func TestCalculateErrorMapping(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/calculations", "", map[string]any{
		"template_id": 1,
		"width_cm":    "0",
		"height_cm":   "100",
		"quantity":    1,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero width, got %d: %s", rec.Code, rec.Body.String())
	}

	var errRes errorResponse
	decodeBody(t, rec, &errRes)
	if errRes.Kind != "validation" {
		t.Fatalf("expected validation error kind, got %q", errRes.Kind)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/calculations", "", map[string]any{
		"template_id": 999,
		"width_cm":    "100",
		"height_cm":   "100",
		"quantity":    1,
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown template, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestActiveTemplatesHidesInactive(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/calculations/templates", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var active []templatePayload
	decodeBody(t, rec, &active)
	if len(active) != 2 {
		t.Fatalf("expected 2 seeded active templates, got %d", len(active))
	}

	// Deactivate the wallpaper template without touching its components.
	wallpaper := active[0]
	wallpaper.Active = false
	wallpaper.Components = nil
	rec = doJSON(t, h, http.MethodPut, "/api/v1/templates/1", testAdminToken, wallpaper)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 updating template, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/calculations/templates", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	decodeBody(t, rec, &active)
	if len(active) != 1 || active[0].ID != 2 {
		t.Fatalf("expected only the magnetic board template, got %+v", active)
	}
}
