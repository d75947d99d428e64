package seed

import (
	"database/sql"
	"fmt"
)

const (
	paperName      = "Latex Print Paper"
	foilName       = "Magnetic Foil"
	cuttingName    = "CNC Cutting"
	laminationName = "Lamination"

	wallpaperTemplate = "Latex Wallpaper"
	magneticTemplate  = "Magnetic Board"
)

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

// Run populates the demo catalog in an idempotent way. Rows are looked up
// by name, so re-running against an already seeded database is a no-op.
func Run(db *sql.DB) (Stats, error) {
	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	paperID, err := ensurePaper(tx, &stats)
	if err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	foilID, err := ensureFoil(tx, &stats)
	if err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	cuttingID, err := ensureCutting(tx, &stats)
	if err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	laminationID, err := ensureLamination(tx, &stats)
	if err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureWallpaperTemplate(tx, paperID, cuttingID, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureMagneticTemplate(tx, foilID, laminationID, cuttingID, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func materialIDByName(tx *sql.Tx, name string) (int64, bool, error) {
	var id int64
	err := tx.QueryRow(`SELECT id FROM materials WHERE name = ? LIMIT 1`, name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("look up material %q: %w", name, err)
	}
	return id, true, nil
}

func processIDByName(tx *sql.Tx, name string) (int64, bool, error) {
	var id int64
	err := tx.QueryRow(`SELECT id FROM processes WHERE name = ? LIMIT 1`, name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("look up process %q: %w", name, err)
	}
	return id, true, nil
}

func ensurePaper(tx *sql.Tx, stats *Stats) (int64, error) {
	if id, ok, err := materialIDByName(tx, paperName); err != nil || ok {
		return id, err
	}

	res, err := tx.Exec(`
		INSERT INTO materials (name, category, description)
		VALUES (?, ?, ?)
	`, paperName, "print media", "Roll media for latex printing")
	if err != nil {
		return 0, fmt.Errorf("insert seed material %q: %w", paperName, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("seed material id: %w", err)
	}
	stats.Inserts++

	variants := []struct {
		width  string
		cost   string
		markup string
	}{
		{"100", "20", "100"},
		{"137", "28", "100"},
	}
	for _, v := range variants {
		if _, err := tx.Exec(`
			INSERT INTO material_variants (
				material_id, width_cm, cost_price_per_unit,
				markup_percentage, unit, margin_w_cm, margin_h_cm, is_active
			)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, id, v.width, v.cost, v.markup, "m2", "2.0", "0", true); err != nil {
			return 0, fmt.Errorf("insert seed variant (%s cm): %w", v.width, err)
		}
		stats.Inserts++
	}

	return id, nil
}

func ensureFoil(tx *sql.Tx, stats *Stats) (int64, error) {
	if id, ok, err := materialIDByName(tx, foilName); err != nil || ok {
		return id, err
	}

	res, err := tx.Exec(`
		INSERT INTO materials (name, category, description)
		VALUES (?, ?, ?)
	`, foilName, "print media", "Self-adhesive magnetic foil")
	if err != nil {
		return 0, fmt.Errorf("insert seed material %q: %w", foilName, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("seed material id: %w", err)
	}
	stats.Inserts++

	if _, err := tx.Exec(`
		INSERT INTO material_variants (
			material_id, width_cm, cost_price_per_unit,
			markup_percentage, unit, margin_w_cm, margin_h_cm, is_active
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, "140", "35", "80", "m2", "1.0", "0", true); err != nil {
		return 0, fmt.Errorf("insert seed variant (140 cm): %w", err)
	}
	stats.Inserts++

	return id, nil
}

func ensureCutting(tx *sql.Tx, stats *Stats) (int64, error) {
	if id, ok, err := processIDByName(tx, cuttingName); err != nil || ok {
		return id, err
	}

	res, err := tx.Exec(`
		INSERT INTO processes (
			name, method, unit_price, setup_fee, internal_cost,
			margin_w_cm, margin_h_cm, unit
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, cuttingName, "LINEAR", "5", "10", "2", "0.5", "0.5", "m")
	if err != nil {
		return 0, fmt.Errorf("insert seed process %q: %w", cuttingName, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("seed process id: %w", err)
	}
	stats.Inserts++
	return id, nil
}

func ensureLamination(tx *sql.Tx, stats *Stats) (int64, error) {
	if id, ok, err := processIDByName(tx, laminationName); err != nil || ok {
		return id, err
	}

	res, err := tx.Exec(`
		INSERT INTO processes (
			name, method, unit_price, setup_fee, internal_cost, unit
		)
		VALUES (?, ?, ?, ?, ?, ?)
	`, laminationName, "AREA", "15", "5", "8", "m2")
	if err != nil {
		return 0, fmt.Errorf("insert seed process %q: %w", laminationName, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("seed process id: %w", err)
	}
	stats.Inserts++
	return id, nil
}

func templateExists(tx *sql.Tx, name string) (bool, error) {
	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM product_templates WHERE name = ? LIMIT 1)`, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("check template %q existence: %w", name, err)
	}
	return exists, nil
}

func ensureWallpaperTemplate(tx *sql.Tx, paperID, cuttingID int64, stats *Stats) error {
	exists, err := templateExists(tx, wallpaperTemplate)
	if err != nil || exists {
		return err
	}

	res, err := tx.Exec(`
		INSERT INTO product_templates (
			name, description, default_margin_w_cm, default_margin_h_cm, default_overlap_cm
		)
		VALUES (?, ?, ?, ?, ?)
	`, wallpaperTemplate, "Seamed latex wallpaper, trimmed to size", "0.5", "0.5", "1.5")
	if err != nil {
		return fmt.Errorf("insert seed template %q: %w", wallpaperTemplate, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("seed template id: %w", err)
	}
	stats.Inserts++

	components := []struct {
		materialID sql.NullInt64
		processID  sql.NullInt64
		sortOrder  int
	}{
		{materialID: sql.NullInt64{Int64: paperID, Valid: true}, sortOrder: 0},
		{processID: sql.NullInt64{Int64: cuttingID, Valid: true}, sortOrder: 1},
	}
	for _, c := range components {
		if _, err := tx.Exec(`
			INSERT INTO template_components (template_id, material_id, process_id, is_required, sort_order)
			VALUES (?, ?, ?, ?, ?)
		`, id, c.materialID, c.processID, true, c.sortOrder); err != nil {
			return fmt.Errorf("insert seed component for %q: %w", wallpaperTemplate, err)
		}
		stats.Inserts++
	}

	return nil
}

func ensureMagneticTemplate(tx *sql.Tx, foilID, laminationID, cuttingID int64, stats *Stats) error {
	exists, err := templateExists(tx, magneticTemplate)
	if err != nil || exists {
		return err
	}

	res, err := tx.Exec(`
		INSERT INTO product_templates (
			name, description, default_margin_w_cm, default_margin_h_cm, default_overlap_cm
		)
		VALUES (?, ?, ?, ?, ?)
	`, magneticTemplate, "Wall-mounted magnetic board", "1.0", "1.0", "2.0")
	if err != nil {
		return fmt.Errorf("insert seed template %q: %w", magneticTemplate, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("seed template id: %w", err)
	}
	stats.Inserts++

	components := []struct {
		materialID  sql.NullInt64
		processID   sql.NullInt64
		required    bool
		groupName   sql.NullString
		optionLabel sql.NullString
		sortOrder   int
	}{
		{materialID: sql.NullInt64{Int64: foilID, Valid: true}, required: true, sortOrder: 0},
		{
			processID:   sql.NullInt64{Int64: laminationID, Valid: true},
			required:    false,
			groupName:   sql.NullString{String: "finish", Valid: true},
			optionLabel: sql.NullString{String: "Protective lamination", Valid: true},
			sortOrder:   1,
		},
		{processID: sql.NullInt64{Int64: cuttingID, Valid: true}, required: true, sortOrder: 2},
	}
	for _, c := range components {
		if _, err := tx.Exec(`
			INSERT INTO template_components (
				template_id, material_id, process_id, is_required,
				group_name, option_label, sort_order
			)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, id, c.materialID, c.processID, c.required, c.groupName, c.optionLabel, c.sortOrder); err != nil {
			return fmt.Errorf("insert seed component for %q: %w", magneticTemplate, err)
		}
		stats.Inserts++
	}

	return nil
}
