package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/printflow/printflow/internal/catalog"
)

func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (s *server) handleMaterialsList(w http.ResponseWriter, r *http.Request) {
	materials, err := s.catalog.ListMaterials()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, materials)
}

func (s *server) handleMaterialGet(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "validation", "invalid material id")
		return
	}

	m, err := s.catalog.GetMaterial(id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, m)
}

func (s *server) handleMaterialCreate(w http.ResponseWriter, r *http.Request) {
	var m catalog.Material
	if err := decodeJSON(r, &m); err != nil {
		s.writeError(w, http.StatusBadRequest, "validation", "invalid material payload: "+err.Error())
		return
	}
	if strings.TrimSpace(m.Name) == "" {
		s.writeError(w, http.StatusBadRequest, "validation", "material name is required")
		return
	}

	id, err := s.catalog.CreateMaterial(m)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	created, err := s.catalog.GetMaterial(id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *server) handleMaterialUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "validation", "invalid material id")
		return
	}

	var m catalog.Material
	if err := decodeJSON(r, &m); err != nil {
		s.writeError(w, http.StatusBadRequest, "validation", "invalid material payload: "+err.Error())
		return
	}
	if strings.TrimSpace(m.Name) == "" {
		s.writeError(w, http.StatusBadRequest, "validation", "material name is required")
		return
	}
	m.ID = id

	// A payload without a variants key updates the material row only; an
	// explicit list (empty included) replaces the whole variant set.
	if err := s.catalog.UpdateMaterial(m, m.Variants != nil); err != nil {
		s.writeDomainError(w, err)
		return
	}

	updated, err := s.catalog.GetMaterial(id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *server) handleMaterialDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "validation", "invalid material id")
		return
	}
	if err := s.catalog.DeleteMaterial(id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleProcessesList(w http.ResponseWriter, r *http.Request) {
	processes, err := s.catalog.ListProcesses()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, processes)
}

func (s *server) handleProcessGet(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "validation", "invalid process id")
		return
	}

	p, err := s.catalog.GetProcess(id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *server) handleProcessCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := s.decodeProcess(w, r)
	if !ok {
		return
	}

	id, err := s.catalog.CreateProcess(p)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	created, err := s.catalog.GetProcess(id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *server) handleProcessUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "validation", "invalid process id")
		return
	}

	p, ok := s.decodeProcess(w, r)
	if !ok {
		return
	}
	p.ID = id

	if err := s.catalog.UpdateProcess(p); err != nil {
		s.writeDomainError(w, err)
		return
	}

	updated, err := s.catalog.GetProcess(id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *server) decodeProcess(w http.ResponseWriter, r *http.Request) (catalog.Process, bool) {
	var p catalog.Process
	if err := decodeJSON(r, &p); err != nil {
		s.writeError(w, http.StatusBadRequest, "validation", "invalid process payload: "+err.Error())
		return catalog.Process{}, false
	}
	if strings.TrimSpace(p.Name) == "" {
		s.writeError(w, http.StatusBadRequest, "validation", "process name is required")
		return catalog.Process{}, false
	}
	if !p.Method.Valid() {
		s.writeError(w, http.StatusBadRequest, "validation", "unknown calculation method "+string(p.Method))
		return catalog.Process{}, false
	}
	return p, true
}

func (s *server) handleProcessDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "validation", "invalid process id")
		return
	}
	if err := s.catalog.DeleteProcess(id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// templatePayload is the wire shape of a product template. Components carry
// nullable material and process ids; exactly one must be set per component.
type templatePayload struct {
	ID             int64              `json:"id,omitempty"`
	Name           string             `json:"name"`
	Description    string             `json:"description,omitempty"`
	DefaultMarginW decimal.Decimal    `json:"default_margin_w_cm"`
	DefaultMarginH decimal.Decimal    `json:"default_margin_h_cm"`
	DefaultOverlap decimal.Decimal    `json:"default_overlap_cm"`
	Active         bool               `json:"is_active"`
	Components     []componentPayload `json:"components"`
}

type componentPayload struct {
	ID          int64  `json:"id,omitempty"`
	MaterialID  *int64 `json:"material_id,omitempty"`
	ProcessID   *int64 `json:"process_id,omitempty"`
	Required    bool   `json:"is_required"`
	GroupName   string `json:"group_name,omitempty"`
	OptionLabel string `json:"option_label,omitempty"`
	SortOrder   int    `json:"sort_order"`
}

func (p templatePayload) toTemplate() (catalog.Template, error) {
	t := catalog.Template{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		DefaultMarginW: p.DefaultMarginW,
		DefaultMarginH: p.DefaultMarginH,
		DefaultOverlap: p.DefaultOverlap,
		Active:         p.Active,
	}
	if p.Components != nil {
		t.Components = make([]catalog.TemplateComponent, 0, len(p.Components))
	}
	for _, c := range p.Components {
		comp := catalog.TemplateComponent{
			ID:          c.ID,
			TemplateID:  p.ID,
			Required:    c.Required,
			GroupName:   c.GroupName,
			OptionLabel: c.OptionLabel,
			SortOrder:   c.SortOrder,
		}
		switch {
		case c.MaterialID != nil && c.ProcessID == nil:
			comp.Ref = catalog.MaterialRef{MaterialID: *c.MaterialID}
		case c.ProcessID != nil && c.MaterialID == nil:
			comp.Ref = catalog.ProcessRef{ProcessID: *c.ProcessID}
		default:
			return catalog.Template{}, errExactlyOneRef
		}
		t.Components = append(t.Components, comp)
	}
	return t, nil
}

var errExactlyOneRef = &payloadError{"each component must set exactly one of material_id or process_id"}

type payloadError struct {
	msg string
}

func (e *payloadError) Error() string { return e.msg }

func fromTemplate(t catalog.Template) templatePayload {
	p := templatePayload{
		ID:             t.ID,
		Name:           t.Name,
		Description:    t.Description,
		DefaultMarginW: t.DefaultMarginW,
		DefaultMarginH: t.DefaultMarginH,
		DefaultOverlap: t.DefaultOverlap,
		Active:         t.Active,
		Components:     make([]componentPayload, 0, len(t.Components)),
	}
	for _, c := range t.Components {
		comp := componentPayload{
			ID:          c.ID,
			Required:    c.Required,
			GroupName:   c.GroupName,
			OptionLabel: c.OptionLabel,
			SortOrder:   c.SortOrder,
		}
		switch ref := c.Ref.(type) {
		case catalog.MaterialRef:
			id := ref.MaterialID
			comp.MaterialID = &id
		case catalog.ProcessRef:
			id := ref.ProcessID
			comp.ProcessID = &id
		}
		p.Components = append(p.Components, comp)
	}
	return p
}

func (s *server) handleTemplatesList(w http.ResponseWriter, r *http.Request) {
	templates, err := s.catalog.ListTemplates()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	payloads := make([]templatePayload, 0, len(templates))
	for _, t := range templates {
		payloads = append(payloads, fromTemplate(t))
	}
	s.writeJSON(w, http.StatusOK, payloads)
}

func (s *server) handleTemplateGet(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "validation", "invalid template id")
		return
	}

	t, err := s.catalog.GetTemplate(id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, fromTemplate(t))
}

func (s *server) handleTemplateCreate(w http.ResponseWriter, r *http.Request) {
	t, ok := s.decodeTemplate(w, r)
	if !ok {
		return
	}

	id, err := s.catalog.CreateTemplate(t)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	created, err := s.catalog.GetTemplate(id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, fromTemplate(created))
}

func (s *server) handleTemplateUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "validation", "invalid template id")
		return
	}

	t, ok := s.decodeTemplate(w, r)
	if !ok {
		return
	}
	t.ID = id

	if err := s.catalog.UpdateTemplate(t, t.Components != nil); err != nil {
		s.writeDomainError(w, err)
		return
	}

	updated, err := s.catalog.GetTemplate(id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, fromTemplate(updated))
}

func (s *server) decodeTemplate(w http.ResponseWriter, r *http.Request) (catalog.Template, bool) {
	var payload templatePayload
	if err := decodeJSON(r, &payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "validation", "invalid template payload: "+err.Error())
		return catalog.Template{}, false
	}
	if strings.TrimSpace(payload.Name) == "" {
		s.writeError(w, http.StatusBadRequest, "validation", "template name is required")
		return catalog.Template{}, false
	}

	t, err := payload.toTemplate()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "validation", err.Error())
		return catalog.Template{}, false
	}
	return t, true
}

func (s *server) handleTemplateDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "validation", "invalid template id")
		return
	}
	if err := s.catalog.DeleteTemplate(id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
