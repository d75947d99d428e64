package catalog

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/printflow/printflow/internal/db"
	"github.com/printflow/printflow/internal/migrations"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "catalog-test.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	if err := migrations.Up(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return NewStore(database)
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func TestMaterialRoundTrip(t *testing.T) {
	store := newTestStore(t)

	id, err := store.CreateMaterial(Material{
		Name:     "Latex Print Paper",
		Category: "print media",
		Variants: []MaterialVariant{
			{
				Width:            decimal.NewNullDecimal(dec(t, "137")),
				CostPricePerUnit: dec(t, "28.50"),
				MarkupPercentage: dec(t, "100"),
				Unit:             UnitSquareMeter,
				MarginW:          dec(t, "2.0"),
				Active:           true,
			},
			{
				CostPricePerUnit: dec(t, "12.3456"),
				MarkupPercentage: dec(t, "80"),
				Unit:             UnitSquareMeter,
				Active:           true,
			},
		},
	})
	if err != nil {
		t.Fatalf("create material: %v", err)
	}

	m, err := store.GetMaterial(id)
	if err != nil {
		t.Fatalf("get material: %v", err)
	}
	if m.Name != "Latex Print Paper" || len(m.Variants) != 2 {
		t.Fatalf("unexpected material: %+v", m)
	}

	roll := m.Variants[0]
	if !roll.Width.Valid || !roll.Width.Decimal.Equal(dec(t, "137")) {
		t.Fatalf("expected 137 cm roll, got %+v", roll.Width)
	}
	if roll.CostPricePerUnit.String() != "28.50" {
		t.Fatalf("cost price did not round-trip exactly, got %s", roll.CostPricePerUnit)
	}
	if roll.MarginW.String() != "2.0" {
		t.Fatalf("margin did not round-trip exactly, got %s", roll.MarginW)
	}

	unconstrained := m.Variants[1]
	if unconstrained.Width.Valid {
		t.Fatalf("expected null width on unconstrained variant, got %+v", unconstrained.Width)
	}
	if unconstrained.CostPricePerUnit.String() != "12.3456" {
		t.Fatalf("4dp cost did not round-trip exactly, got %s", unconstrained.CostPricePerUnit)
	}
}

func TestUpdateMaterialVariantReplacement(t *testing.T) {
	store := newTestStore(t)

	id, err := store.CreateMaterial(Material{
		Name: "Magnetic Foil",
		Variants: []MaterialVariant{
			{Width: decimal.NewNullDecimal(dec(t, "140")), CostPricePerUnit: dec(t, "35"), Unit: UnitSquareMeter, Active: true},
		},
	})
	if err != nil {
		t.Fatalf("create material: %v", err)
	}

	// Update without touching variants.
	if err := store.UpdateMaterial(Material{ID: id, Name: "Magnetic Foil Pro"}, false); err != nil {
		t.Fatalf("update material: %v", err)
	}
	m, err := store.GetMaterial(id)
	if err != nil {
		t.Fatalf("get material: %v", err)
	}
	if m.Name != "Magnetic Foil Pro" || len(m.Variants) != 1 {
		t.Fatalf("expected rename with variants kept, got %+v", m)
	}

	// Replace the variant set.
	if err := store.UpdateMaterial(Material{
		ID:   id,
		Name: "Magnetic Foil Pro",
		Variants: []MaterialVariant{
			{Width: decimal.NewNullDecimal(dec(t, "100")), CostPricePerUnit: dec(t, "30"), Unit: UnitSquareMeter, Active: true},
			{Width: decimal.NewNullDecimal(dec(t, "140")), CostPricePerUnit: dec(t, "35"), Unit: UnitSquareMeter, Active: true},
		},
	}, true); err != nil {
		t.Fatalf("update material variants: %v", err)
	}
	m, err = store.GetMaterial(id)
	if err != nil {
		t.Fatalf("get material: %v", err)
	}
	if len(m.Variants) != 2 {
		t.Fatalf("expected 2 variants after replacement, got %d", len(m.Variants))
	}

	if err := store.UpdateMaterial(Material{ID: 999, Name: "ghost"}, false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating missing material, got %v", err)
	}
}

func TestDeleteMaterialCascadesVariants(t *testing.T) {
	store := newTestStore(t)

	id, err := store.CreateMaterial(Material{
		Name: "Mesh Banner",
		Variants: []MaterialVariant{
			{CostPricePerUnit: dec(t, "9"), Unit: UnitSquareMeter, Active: true},
		},
	})
	if err != nil {
		t.Fatalf("create material: %v", err)
	}

	if err := store.DeleteMaterial(id); err != nil {
		t.Fatalf("delete material: %v", err)
	}
	if _, err := store.GetMaterial(id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.DeleteMaterial(id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestProcessRoundTrip(t *testing.T) {
	store := newTestStore(t)

	id, err := store.CreateProcess(Process{
		Name:      "CNC Cutting",
		Method:    MethodLinear,
		UnitPrice: dec(t, "5"),
		SetupFee:  dec(t, "10"),
		InternalCost: decimal.NullDecimal{
			Decimal: dec(t, "2"),
			Valid:   true,
		},
		MarginW: dec(t, "0.5"),
		MarginH: dec(t, "0.5"),
		Unit:    UnitLinearMeter,
		Active:  true,
	})
	if err != nil {
		t.Fatalf("create process: %v", err)
	}

	p, err := store.GetProcess(id)
	if err != nil {
		t.Fatalf("get process: %v", err)
	}
	if p.Method != MethodLinear || !p.InternalCost.Valid || p.InternalCost.Decimal.String() != "2" {
		t.Fatalf("unexpected process: %+v", p)
	}

	p.UnitPrice = dec(t, "6.50")
	p.InternalCost = decimal.NullDecimal{}
	if err := store.UpdateProcess(p); err != nil {
		t.Fatalf("update process: %v", err)
	}

	p, err = store.GetProcess(id)
	if err != nil {
		t.Fatalf("get process: %v", err)
	}
	if p.UnitPrice.String() != "6.50" || p.InternalCost.Valid {
		t.Fatalf("expected price 6.50 with cleared internal cost, got %+v", p)
	}

	if _, err := store.GetProcess(999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTemplateComponentsOrderedAndTyped(t *testing.T) {
	store := newTestStore(t)

	materialID, err := store.CreateMaterial(Material{Name: "Latex Print Paper"})
	if err != nil {
		t.Fatalf("create material: %v", err)
	}
	processID, err := store.CreateProcess(Process{
		Name: "Lamination", Method: MethodArea, UnitPrice: dec(t, "15"), Unit: UnitSquareMeter, Active: true,
	})
	if err != nil {
		t.Fatalf("create process: %v", err)
	}

	templateID, err := store.CreateTemplate(Template{
		Name:           "Latex Wallpaper",
		DefaultMarginW: dec(t, "0.5"),
		DefaultMarginH: dec(t, "0.5"),
		DefaultOverlap: dec(t, "1.5"),
		Active:         true,
		Components: []TemplateComponent{
			{Ref: ProcessRef{ProcessID: processID}, Required: false, GroupName: "finish", OptionLabel: "Lamination", SortOrder: 5},
			{Ref: MaterialRef{MaterialID: materialID}, Required: true, SortOrder: 1},
		},
	})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}

	tpl, err := store.GetTemplate(templateID)
	if err != nil {
		t.Fatalf("get template: %v", err)
	}
	if len(tpl.Components) != 2 {
		t.Fatalf("expected 2 components, got %d", len(tpl.Components))
	}

	first, ok := tpl.Components[0].Ref.(MaterialRef)
	if !ok || first.MaterialID != materialID || !tpl.Components[0].Required {
		t.Fatalf("expected required material component first, got %+v", tpl.Components[0])
	}
	second, ok := tpl.Components[1].Ref.(ProcessRef)
	if !ok || second.ProcessID != processID || tpl.Components[1].Required {
		t.Fatalf("expected optional process component second, got %+v", tpl.Components[1])
	}
	if tpl.Components[1].OptionLabel != "Lamination" {
		t.Fatalf("expected option label to round-trip, got %q", tpl.Components[1].OptionLabel)
	}
	if tpl.DefaultOverlap.String() != "1.5" {
		t.Fatalf("overlap did not round-trip exactly, got %s", tpl.DefaultOverlap)
	}
}

func TestSnapshotResolvesReferences(t *testing.T) {
	store := newTestStore(t)

	materialID, err := store.CreateMaterial(Material{
		Name: "Latex Print Paper",
		Variants: []MaterialVariant{
			{Width: decimal.NewNullDecimal(dec(t, "137")), CostPricePerUnit: dec(t, "28"), Unit: UnitSquareMeter, Active: true},
		},
	})
	if err != nil {
		t.Fatalf("create material: %v", err)
	}
	processID, err := store.CreateProcess(Process{
		Name: "CNC Cutting", Method: MethodLinear, UnitPrice: dec(t, "5"), Unit: UnitLinearMeter, Active: true,
	})
	if err != nil {
		t.Fatalf("create process: %v", err)
	}

	templateID, err := store.CreateTemplate(Template{
		Name:           "Latex Wallpaper",
		DefaultOverlap: dec(t, "1.0"),
		Active:         true,
		Components: []TemplateComponent{
			{Ref: MaterialRef{MaterialID: materialID}, Required: true},
			{Ref: ProcessRef{ProcessID: processID}, Required: true, SortOrder: 1},
		},
	})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}

	snap, err := store.Snapshot(templateID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Template.ID != templateID {
		t.Fatalf("expected template %d in snapshot, got %d", templateID, snap.Template.ID)
	}
	if _, ok := snap.Materials[materialID]; !ok {
		t.Fatalf("expected material %d in snapshot", materialID)
	}
	if _, ok := snap.Processes[processID]; !ok {
		t.Fatalf("expected process %d in snapshot", processID)
	}
	if len(snap.Materials[materialID].Variants) != 1 {
		t.Fatalf("expected variants loaded into snapshot")
	}

	if _, err := store.Snapshot(999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing template, got %v", err)
	}
}
