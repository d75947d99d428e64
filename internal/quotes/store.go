package quotes

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/printflow/printflow/internal/pricing"
)

// ErrNotFound is returned when a quote does not exist.
var ErrNotFound = errors.New("quote not found")

// Store archives quotes in SQLite. Decimal columns are TEXT so snapshots
// read back exactly as they were written.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create persists a quote with its items and line-item snapshots in one
// transaction.
func (s *Store) Create(q Quote) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin create quote: %w", err)
	}

	res, err := tx.Exec(`
		INSERT INTO quotes (status, client_name, notes, total_price_net, total_cost_cogs, margin_percentage)
		VALUES (?, ?, ?, ?, ?, ?)
	`, string(q.Status), q.ClientName, q.Notes, q.TotalPriceNet, q.TotalCostCOGS, q.MarginPercentage)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("insert quote: %w", err)
	}
	quoteID, err := res.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("quote insert id: %w", err)
	}

	for _, item := range q.Items {
		res, err := tx.Exec(`
			INSERT INTO quote_items (
				quote_id, product_name, template_id, width_cm, height_cm, quantity,
				gross_width_cm, gross_height_cm, is_split, num_panels, overlap_cm
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, quoteID, item.ProductName, item.TemplateID, item.Width, item.Height, item.Quantity,
			item.GrossWidth, item.GrossHeight, item.IsSplit, item.NumPanels, item.Overlap)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert quote item: %w", err)
		}
		itemID, err := res.LastInsertId()
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("quote item insert id: %w", err)
		}

		for _, comp := range item.Components {
			var variantID, processID sql.NullInt64
			if comp.VariantID != 0 {
				variantID = sql.NullInt64{Int64: comp.VariantID, Valid: true}
			}
			if comp.ProcessID != 0 {
				processID = sql.NullInt64{Int64: comp.ProcessID, Valid: true}
			}
			if _, err := tx.Exec(`
				INSERT INTO quote_components (
					quote_item_id, variant_id, process_id, name_snapshot, line_type,
					calculated_quantity, unit, unit_price_snapshot, total_price, total_cost,
					is_from_option, tech_margin_applied_w, tech_margin_applied_h, detail_text
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, itemID, variantID, processID, comp.Name, string(comp.Type),
				comp.Quantity, comp.Unit, comp.UnitPrice, comp.TotalPrice, comp.TotalCost,
				comp.FromOption, comp.AppliedMarginW, comp.AppliedMarginH, comp.Detail); err != nil {
				_ = tx.Rollback()
				return 0, fmt.Errorf("insert quote component: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit create quote: %w", err)
	}
	return quoteID, nil
}

// List returns quote summaries (no items), newest first, optionally
// filtered by status and by a search over client name and notes.
func (s *Store) List(query string, status Status) ([]Quote, error) {
	search := "%" + query + "%"
	rows, err := s.db.Query(`
		SELECT id, status, COALESCE(client_name, ''), COALESCE(notes, ''),
		       total_price_net, total_cost_cogs, margin_percentage, created_at
		FROM quotes
		WHERE (? = '' OR status = ?)
		  AND (? = '' OR COALESCE(client_name, '') LIKE ? OR COALESCE(notes, '') LIKE ?)
		ORDER BY datetime(created_at) DESC, id DESC
	`, string(status), string(status), query, search, search)
	if err != nil {
		return nil, fmt.Errorf("query quotes: %w", err)
	}
	defer rows.Close()

	list := make([]Quote, 0)
	for rows.Next() {
		var q Quote
		var status string
		if err := rows.Scan(&q.ID, &status, &q.ClientName, &q.Notes,
			&q.TotalPriceNet, &q.TotalCostCOGS, &q.MarginPercentage, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		q.Status = Status(status)
		list = append(list, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quotes: %w", err)
	}
	return list, nil
}

// Get returns a quote with its items and line-item snapshots.
func (s *Store) Get(id int64) (Quote, error) {
	var q Quote
	var status string
	err := s.db.QueryRow(`
		SELECT id, status, COALESCE(client_name, ''), COALESCE(notes, ''),
		       total_price_net, total_cost_cogs, margin_percentage, created_at
		FROM quotes
		WHERE id = ?
	`, id).Scan(&q.ID, &status, &q.ClientName, &q.Notes,
		&q.TotalPriceNet, &q.TotalCostCOGS, &q.MarginPercentage, &q.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Quote{}, ErrNotFound
	}
	if err != nil {
		return Quote{}, fmt.Errorf("query quote %d: %w", id, err)
	}
	q.Status = Status(status)

	q.Items, err = s.listItems(id)
	if err != nil {
		return Quote{}, err
	}
	return q, nil
}

func (s *Store) listItems(quoteID int64) ([]Item, error) {
	rows, err := s.db.Query(`
		SELECT id, quote_id, product_name, COALESCE(template_id, 0), width_cm, height_cm,
		       quantity, gross_width_cm, gross_height_cm, is_split, num_panels, overlap_cm
		FROM quote_items
		WHERE quote_id = ?
		ORDER BY id
	`, quoteID)
	if err != nil {
		return nil, fmt.Errorf("query items of quote %d: %w", quoteID, err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.QuoteID, &it.ProductName, &it.TemplateID,
			&it.Width, &it.Height, &it.Quantity, &it.GrossWidth, &it.GrossHeight,
			&it.IsSplit, &it.NumPanels, &it.Overlap); err != nil {
			return nil, fmt.Errorf("scan quote item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quote items: %w", err)
	}

	for i := range items {
		components, err := s.listComponents(items[i].ID)
		if err != nil {
			return nil, err
		}
		items[i].Components = components
	}
	return items, nil
}

func (s *Store) listComponents(itemID int64) ([]Component, error) {
	rows, err := s.db.Query(`
		SELECT id, COALESCE(variant_id, 0), COALESCE(process_id, 0), name_snapshot, line_type,
		       calculated_quantity, unit, unit_price_snapshot, total_price, total_cost,
		       is_from_option, tech_margin_applied_w, tech_margin_applied_h, detail_text
		FROM quote_components
		WHERE quote_item_id = ?
		ORDER BY id
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("query components of quote item %d: %w", itemID, err)
	}
	defer rows.Close()

	components := make([]Component, 0)
	for rows.Next() {
		var c Component
		var lineType string
		if err := rows.Scan(&c.ID, &c.VariantID, &c.ProcessID, &c.Name, &lineType,
			&c.Quantity, &c.Unit, &c.UnitPrice, &c.TotalPrice, &c.TotalCost,
			&c.FromOption, &c.AppliedMarginW, &c.AppliedMarginH, &c.Detail); err != nil {
			return nil, fmt.Errorf("scan quote component: %w", err)
		}
		c.Type = pricing.LineType(lineType)
		components = append(components, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quote components: %w", err)
	}
	return components, nil
}

// UpdateStatus moves a quote to a new lifecycle state.
func (s *Store) UpdateStatus(id int64, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid quote status %q", status)
	}

	res, err := s.db.Exec(`
		UPDATE quotes
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, string(status), id)
	if err != nil {
		return fmt.Errorf("update quote %d status: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update quote %d status: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
