package catalog

import "github.com/shopspring/decimal"

// CalculationMethod determines how a process line derives its consumed quantity.
type CalculationMethod string

const (
	MethodArea   CalculationMethod = "AREA"
	MethodLinear CalculationMethod = "LINEAR"
	MethodTime   CalculationMethod = "TIME"
	MethodUnit   CalculationMethod = "UNIT"
)

// Valid reports whether m is one of the known calculation methods.
func (m CalculationMethod) Valid() bool {
	switch m {
	case MethodArea, MethodLinear, MethodTime, MethodUnit:
		return true
	}
	return false
}

// Units used by variants and processes. Dimensions are entered in
// centimeters; consumption is reported in these units.
const (
	UnitSquareMeter = "m2"
	UnitLinearMeter = "m"
	UnitHour        = "h"
	UnitPiece       = "pcs"
)

// Material is a printable substrate sold in one or more roll variants.
type Material struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Category    string            `json:"category,omitempty"`
	Description string            `json:"description,omitempty"`
	Variants    []MaterialVariant `json:"variants"`
}

// MaterialVariant is a concrete roll of a material. Width and Length are in
// centimeters; an invalid (null) Width means the variant is not constrained
// by roll width and fits any job.
type MaterialVariant struct {
	ID               int64               `json:"id"`
	MaterialID       int64               `json:"material_id"`
	Width            decimal.NullDecimal `json:"width_cm"`
	Length           decimal.NullDecimal `json:"length_cm"`
	CostPricePerUnit decimal.Decimal     `json:"cost_price_per_unit"`
	MarkupPercentage decimal.Decimal     `json:"markup_percentage"`
	Unit             string              `json:"unit"`
	MarginW          decimal.Decimal     `json:"margin_w_cm"`
	MarginH          decimal.Decimal     `json:"margin_h_cm"`
	Active           bool                `json:"is_active"`
}

// Process is a production operation (cutting, lamination, welding, ...).
type Process struct {
	ID           int64               `json:"id"`
	Name         string              `json:"name"`
	Method       CalculationMethod   `json:"method"`
	UnitPrice    decimal.Decimal     `json:"unit_price"`
	SetupFee     decimal.Decimal     `json:"setup_fee"`
	InternalCost decimal.NullDecimal `json:"internal_cost"`
	MarginW      decimal.Decimal     `json:"margin_w_cm"`
	MarginH      decimal.Decimal     `json:"margin_h_cm"`
	TimeEstimate decimal.Decimal     `json:"time_estimate_h"`
	Unit         string              `json:"unit,omitempty"`
	Active       bool                `json:"is_active"`
}

// ComponentRef identifies the priced entity behind a template component.
// It is a tagged reference: a component points at exactly one material or
// exactly one process, never both.
type ComponentRef interface {
	isComponentRef()
}

// MaterialRef points a template component at a material.
type MaterialRef struct {
	MaterialID int64
}

// ProcessRef points a template component at a process.
type ProcessRef struct {
	ProcessID int64
}

func (MaterialRef) isComponentRef() {}
func (ProcessRef) isComponentRef()  {}

// TemplateComponent is one slot of a product template.
type TemplateComponent struct {
	ID          int64
	TemplateID  int64
	Ref         ComponentRef
	Required    bool
	GroupName   string
	OptionLabel string
	SortOrder   int
}

// Template describes a sellable product as an ordered list of components.
type Template struct {
	ID             int64
	Name           string
	Description    string
	DefaultMarginW decimal.Decimal
	DefaultMarginH decimal.Decimal
	DefaultOverlap decimal.Decimal
	Active         bool
	Components     []TemplateComponent
}

// Snapshot is a read-only view of the catalog sufficient for one
// calculation: the requested template plus every material and process its
// components reference. The pricing engine never reads the catalog store
// directly; it consumes a Snapshot and must not mutate it.
type Snapshot struct {
	Template  Template
	Materials map[int64]Material
	Processes map[int64]Process
}
