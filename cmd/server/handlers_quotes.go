package main

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/printflow/printflow/internal/pricing"
	"github.com/printflow/printflow/internal/quotes"
)

// calculationPayload is the wire shape of one pricing request.
type calculationPayload struct {
	TemplateID      int64            `json:"template_id"`
	Width           decimal.Decimal  `json:"width_cm"`
	Height          decimal.Decimal  `json:"height_cm"`
	Quantity        int              `json:"quantity"`
	SelectedOptions []int64          `json:"selected_options,omitempty"`
	OverlapOverride *decimal.Decimal `json:"overlap_override_cm,omitempty"`
}

func (p calculationPayload) toRequest() pricing.Request {
	return pricing.Request{
		Width:           p.Width,
		Height:          p.Height,
		Quantity:        p.Quantity,
		TemplateID:      p.TemplateID,
		SelectedOptions: p.SelectedOptions,
		OverlapOverride: p.OverlapOverride,
	}
}

func (s *server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var payload calculationPayload
	if err := decodeJSON(r, &payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "validation", "invalid calculation payload: "+err.Error())
		return
	}

	res, _, err := s.calculate(payload)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// calculate loads a catalog snapshot and runs the engine on it. The template
// name rides along so quote creation can label its item.
func (s *server) calculate(payload calculationPayload) (*pricing.Result, string, error) {
	snap, err := s.catalog.Snapshot(payload.TemplateID)
	if err != nil {
		return nil, "", err
	}

	res, err := pricing.Calculate(snap, payload.toRequest())
	if err != nil {
		return nil, "", err
	}
	return res, snap.Template.Name, nil
}

// handleActiveTemplates lists the templates a client may request a
// calculation for. Inactive templates are quotable history, not offers.
func (s *server) handleActiveTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.catalog.ListTemplates()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	payloads := make([]templatePayload, 0, len(templates))
	for _, t := range templates {
		if !t.Active {
			continue
		}
		payloads = append(payloads, fromTemplate(t))
	}
	s.writeJSON(w, http.StatusOK, payloads)
}

type createQuotePayload struct {
	ProductName string             `json:"product_name,omitempty"`
	ClientName  string             `json:"client_name,omitempty"`
	Notes       string             `json:"notes,omitempty"`
	Calculation calculationPayload `json:"calculation"`
}

func (s *server) handleQuoteCreate(w http.ResponseWriter, r *http.Request) {
	var payload createQuotePayload
	if err := decodeJSON(r, &payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "validation", "invalid quote payload: "+err.Error())
		return
	}

	res, templateName, err := s.calculate(payload.Calculation)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	productName := strings.TrimSpace(payload.ProductName)
	if productName == "" {
		productName = templateName
	}

	quote := quotes.FromResult(productName, payload.ClientName, payload.Notes, payload.Calculation.toRequest(), res)
	id, err := s.quotes.Create(quote)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	created, err := s.quotes.Get(id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *server) handleQuotesList(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	var status quotes.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		status = quotes.Status(raw)
		if !status.Valid() {
			s.writeError(w, http.StatusBadRequest, "validation", "unknown quote status "+raw)
			return
		}
	}

	list, err := s.quotes.List(query, status)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *server) handleQuoteGet(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "validation", "invalid quote id")
		return
	}

	quote, err := s.quotes.Get(id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, quote)
}

type statusPayload struct {
	Status quotes.Status `json:"status"`
}

func (s *server) handleQuoteStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "validation", "invalid quote id")
		return
	}

	var payload statusPayload
	if err := decodeJSON(r, &payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "validation", "invalid status payload: "+err.Error())
		return
	}
	if !payload.Status.Valid() {
		s.writeError(w, http.StatusBadRequest, "validation", "unknown quote status "+string(payload.Status))
		return
	}

	if err := s.quotes.UpdateStatus(id, payload.Status); err != nil {
		s.writeDomainError(w, err)
		return
	}

	updated, err := s.quotes.Get(id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}
