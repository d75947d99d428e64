package catalog

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a catalog entity does not exist.
var ErrNotFound = errors.New("catalog entity not found")

// Store persists the catalog in SQLite. Monetary and dimensional columns
// are TEXT so decimals round-trip exactly; shopspring decimals scan from
// and value to strings.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ListMaterials() ([]Material, error) {
	rows, err := s.db.Query(`
		SELECT id, name, COALESCE(category, ''), COALESCE(description, '')
		FROM materials
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query materials: %w", err)
	}
	defer rows.Close()

	materials := make([]Material, 0)
	for rows.Next() {
		var m Material
		if err := rows.Scan(&m.ID, &m.Name, &m.Category, &m.Description); err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		materials = append(materials, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate materials: %w", err)
	}

	for i := range materials {
		variants, err := s.listVariants(materials[i].ID)
		if err != nil {
			return nil, err
		}
		materials[i].Variants = variants
	}
	return materials, nil
}

func (s *Store) GetMaterial(id int64) (Material, error) {
	var m Material
	err := s.db.QueryRow(`
		SELECT id, name, COALESCE(category, ''), COALESCE(description, '')
		FROM materials
		WHERE id = ?
	`, id).Scan(&m.ID, &m.Name, &m.Category, &m.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return Material{}, ErrNotFound
	}
	if err != nil {
		return Material{}, fmt.Errorf("query material %d: %w", id, err)
	}

	m.Variants, err = s.listVariants(id)
	if err != nil {
		return Material{}, err
	}
	return m, nil
}

func (s *Store) listVariants(materialID int64) ([]MaterialVariant, error) {
	rows, err := s.db.Query(`
		SELECT id, material_id, width_cm, length_cm, cost_price_per_unit,
		       markup_percentage, unit, margin_w_cm, margin_h_cm, is_active
		FROM material_variants
		WHERE material_id = ?
		ORDER BY id
	`, materialID)
	if err != nil {
		return nil, fmt.Errorf("query variants of material %d: %w", materialID, err)
	}
	defer rows.Close()

	variants := make([]MaterialVariant, 0)
	for rows.Next() {
		var v MaterialVariant
		if err := rows.Scan(&v.ID, &v.MaterialID, &v.Width, &v.Length, &v.CostPricePerUnit,
			&v.MarkupPercentage, &v.Unit, &v.MarginW, &v.MarginH, &v.Active); err != nil {
			return nil, fmt.Errorf("scan material variant: %w", err)
		}
		variants = append(variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate material variants: %w", err)
	}
	return variants, nil
}

// CreateMaterial inserts a material together with its variants.
func (s *Store) CreateMaterial(m Material) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin create material: %w", err)
	}

	res, err := tx.Exec(`
		INSERT INTO materials (name, category, description)
		VALUES (?, ?, ?)
	`, m.Name, m.Category, m.Description)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("insert material: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("material insert id: %w", err)
	}

	if err := insertVariants(tx, id, m.Variants); err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit create material: %w", err)
	}
	return id, nil
}

// UpdateMaterial updates the material row and, when variants are provided,
// replaces the whole variant set in the same transaction.
func (s *Store) UpdateMaterial(m Material, replaceVariants bool) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin update material: %w", err)
	}

	res, err := tx.Exec(`
		UPDATE materials
		SET name = ?, category = ?, description = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, m.Name, m.Category, m.Description, m.ID)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("update material %d: %w", m.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("update material %d: %w", m.ID, err)
	}
	if affected == 0 {
		_ = tx.Rollback()
		return ErrNotFound
	}

	if replaceVariants {
		if _, err := tx.Exec(`DELETE FROM material_variants WHERE material_id = ?`, m.ID); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("delete variants of material %d: %w", m.ID, err)
		}
		if err := insertVariants(tx, m.ID, m.Variants); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update material: %w", err)
	}
	return nil
}

func insertVariants(tx *sql.Tx, materialID int64, variants []MaterialVariant) error {
	for _, v := range variants {
		if _, err := tx.Exec(`
			INSERT INTO material_variants (
				material_id, width_cm, length_cm, cost_price_per_unit,
				markup_percentage, unit, margin_w_cm, margin_h_cm, is_active
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, materialID, v.Width, v.Length, v.CostPricePerUnit,
			v.MarkupPercentage, v.Unit, v.MarginW, v.MarginH, v.Active); err != nil {
			return fmt.Errorf("insert variant of material %d: %w", materialID, err)
		}
	}
	return nil
}

func (s *Store) DeleteMaterial(id int64) error {
	res, err := s.db.Exec(`DELETE FROM materials WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete material %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete material %d: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListProcesses() ([]Process, error) {
	rows, err := s.db.Query(`
		SELECT id, name, method, unit_price, setup_fee, internal_cost,
		       margin_w_cm, margin_h_cm, time_estimate_h, COALESCE(unit, ''), is_active
		FROM processes
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query processes: %w", err)
	}
	defer rows.Close()

	processes := make([]Process, 0)
	for rows.Next() {
		p, err := scanProcess(rows)
		if err != nil {
			return nil, err
		}
		processes = append(processes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate processes: %w", err)
	}
	return processes, nil
}

func (s *Store) GetProcess(id int64) (Process, error) {
	row := s.db.QueryRow(`
		SELECT id, name, method, unit_price, setup_fee, internal_cost,
		       margin_w_cm, margin_h_cm, time_estimate_h, COALESCE(unit, ''), is_active
		FROM processes
		WHERE id = ?
	`, id)
	p, err := scanProcess(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Process{}, ErrNotFound
	}
	if err != nil {
		return Process{}, err
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProcess(row rowScanner) (Process, error) {
	var p Process
	var method string
	err := row.Scan(&p.ID, &p.Name, &method, &p.UnitPrice, &p.SetupFee, &p.InternalCost,
		&p.MarginW, &p.MarginH, &p.TimeEstimate, &p.Unit, &p.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return Process{}, err
	}
	if err != nil {
		return Process{}, fmt.Errorf("scan process: %w", err)
	}
	p.Method = CalculationMethod(method)
	return p, nil
}

func (s *Store) CreateProcess(p Process) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO processes (
			name, method, unit_price, setup_fee, internal_cost,
			margin_w_cm, margin_h_cm, time_estimate_h, unit, is_active
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.Name, string(p.Method), p.UnitPrice, p.SetupFee, p.InternalCost,
		p.MarginW, p.MarginH, p.TimeEstimate, p.Unit, p.Active)
	if err != nil {
		return 0, fmt.Errorf("insert process: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("process insert id: %w", err)
	}
	return id, nil
}

func (s *Store) UpdateProcess(p Process) error {
	res, err := s.db.Exec(`
		UPDATE processes
		SET name = ?, method = ?, unit_price = ?, setup_fee = ?, internal_cost = ?,
		    margin_w_cm = ?, margin_h_cm = ?, time_estimate_h = ?, unit = ?, is_active = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, p.Name, string(p.Method), p.UnitPrice, p.SetupFee, p.InternalCost,
		p.MarginW, p.MarginH, p.TimeEstimate, p.Unit, p.Active, p.ID)
	if err != nil {
		return fmt.Errorf("update process %d: %w", p.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update process %d: %w", p.ID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteProcess(id int64) error {
	res, err := s.db.Exec(`DELETE FROM processes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete process %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete process %d: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListTemplates() ([]Template, error) {
	rows, err := s.db.Query(`
		SELECT id, name, COALESCE(description, ''), default_margin_w_cm,
		       default_margin_h_cm, default_overlap_cm, is_active
		FROM product_templates
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	defer rows.Close()

	templates := make([]Template, 0)
	for rows.Next() {
		var t Template
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.DefaultMarginW,
			&t.DefaultMarginH, &t.DefaultOverlap, &t.Active); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}

	for i := range templates {
		components, err := s.listComponents(templates[i].ID)
		if err != nil {
			return nil, err
		}
		templates[i].Components = components
	}
	return templates, nil
}

func (s *Store) GetTemplate(id int64) (Template, error) {
	var t Template
	err := s.db.QueryRow(`
		SELECT id, name, COALESCE(description, ''), default_margin_w_cm,
		       default_margin_h_cm, default_overlap_cm, is_active
		FROM product_templates
		WHERE id = ?
	`, id).Scan(&t.ID, &t.Name, &t.Description, &t.DefaultMarginW,
		&t.DefaultMarginH, &t.DefaultOverlap, &t.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return Template{}, ErrNotFound
	}
	if err != nil {
		return Template{}, fmt.Errorf("query template %d: %w", id, err)
	}

	t.Components, err = s.listComponents(id)
	if err != nil {
		return Template{}, err
	}
	return t, nil
}

func (s *Store) listComponents(templateID int64) ([]TemplateComponent, error) {
	rows, err := s.db.Query(`
		SELECT id, template_id, material_id, process_id, is_required,
		       COALESCE(group_name, ''), COALESCE(option_label, ''), sort_order
		FROM template_components
		WHERE template_id = ?
		ORDER BY sort_order, id
	`, templateID)
	if err != nil {
		return nil, fmt.Errorf("query components of template %d: %w", templateID, err)
	}
	defer rows.Close()

	components := make([]TemplateComponent, 0)
	for rows.Next() {
		var (
			c          TemplateComponent
			materialID sql.NullInt64
			processID  sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &c.TemplateID, &materialID, &processID,
			&c.Required, &c.GroupName, &c.OptionLabel, &c.SortOrder); err != nil {
			return nil, fmt.Errorf("scan template component: %w", err)
		}
		switch {
		case materialID.Valid && !processID.Valid:
			c.Ref = MaterialRef{MaterialID: materialID.Int64}
		case processID.Valid && !materialID.Valid:
			c.Ref = ProcessRef{ProcessID: processID.Int64}
		default:
			return nil, fmt.Errorf("template component %d must reference exactly one of material or process", c.ID)
		}
		components = append(components, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate template components: %w", err)
	}
	return components, nil
}

// CreateTemplate inserts a template with its components.
func (s *Store) CreateTemplate(t Template) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin create template: %w", err)
	}

	res, err := tx.Exec(`
		INSERT INTO product_templates (
			name, description, default_margin_w_cm, default_margin_h_cm,
			default_overlap_cm, is_active
		) VALUES (?, ?, ?, ?, ?, ?)
	`, t.Name, t.Description, t.DefaultMarginW, t.DefaultMarginH, t.DefaultOverlap, t.Active)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("insert template: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("template insert id: %w", err)
	}

	if err := insertComponents(tx, id, t.Components); err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit create template: %w", err)
	}
	return id, nil
}

// UpdateTemplate updates the template row and, when components are
// provided, replaces the component list.
func (s *Store) UpdateTemplate(t Template, replaceComponents bool) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin update template: %w", err)
	}

	res, err := tx.Exec(`
		UPDATE product_templates
		SET name = ?, description = ?, default_margin_w_cm = ?, default_margin_h_cm = ?,
		    default_overlap_cm = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, t.Name, t.Description, t.DefaultMarginW, t.DefaultMarginH, t.DefaultOverlap, t.Active, t.ID)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("update template %d: %w", t.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("update template %d: %w", t.ID, err)
	}
	if affected == 0 {
		_ = tx.Rollback()
		return ErrNotFound
	}

	if replaceComponents {
		if _, err := tx.Exec(`DELETE FROM template_components WHERE template_id = ?`, t.ID); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("delete components of template %d: %w", t.ID, err)
		}
		if err := insertComponents(tx, t.ID, t.Components); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update template: %w", err)
	}
	return nil
}

func insertComponents(tx *sql.Tx, templateID int64, components []TemplateComponent) error {
	for _, c := range components {
		var materialID, processID sql.NullInt64
		switch ref := c.Ref.(type) {
		case MaterialRef:
			materialID = sql.NullInt64{Int64: ref.MaterialID, Valid: true}
		case ProcessRef:
			processID = sql.NullInt64{Int64: ref.ProcessID, Valid: true}
		default:
			return fmt.Errorf("template component must reference exactly one of material or process")
		}
		if _, err := tx.Exec(`
			INSERT INTO template_components (
				template_id, material_id, process_id, is_required,
				group_name, option_label, sort_order
			) VALUES (?, ?, ?, ?, ?, ?, ?)
		`, templateID, materialID, processID, c.Required,
			c.GroupName, c.OptionLabel, c.SortOrder); err != nil {
			return fmt.Errorf("insert component of template %d: %w", templateID, err)
		}
	}
	return nil
}

func (s *Store) DeleteTemplate(id int64) error {
	res, err := s.db.Exec(`DELETE FROM product_templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete template %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete template %d: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Snapshot assembles the read-only catalog view for one calculation:
// the template plus every material and process its components reference.
func (s *Store) Snapshot(templateID int64) (Snapshot, error) {
	tpl, err := s.GetTemplate(templateID)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Template:  tpl,
		Materials: make(map[int64]Material),
		Processes: make(map[int64]Process),
	}

	for _, comp := range tpl.Components {
		switch ref := comp.Ref.(type) {
		case MaterialRef:
			if _, ok := snap.Materials[ref.MaterialID]; ok {
				continue
			}
			m, err := s.GetMaterial(ref.MaterialID)
			if err != nil {
				return Snapshot{}, fmt.Errorf("resolve material %d: %w", ref.MaterialID, err)
			}
			snap.Materials[ref.MaterialID] = m
		case ProcessRef:
			if _, ok := snap.Processes[ref.ProcessID]; ok {
				continue
			}
			p, err := s.GetProcess(ref.ProcessID)
			if err != nil {
				return Snapshot{}, fmt.Errorf("resolve process %d: %w", ref.ProcessID, err)
			}
			snap.Processes[ref.ProcessID] = p
		}
	}
	return snap, nil
}
