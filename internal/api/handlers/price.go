package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/ramonehamilton/deck-budget/internal/api/response"
	"github.com/ramonehamilton/deck-budget/internal/budget"
	"github.com/ramonehamilton/deck-budget/internal/decklist"
	"github.com/ramonehamilton/deck-budget/internal/pricing"
	"github.com/ramonehamilton/deck-budget/internal/report"
)

// Pricer parses and prices deck lists.
type Pricer interface {
	Parse(text string) (decklist.Sections, error)
	Price(ctx context.Context, text string, onItem func(pricing.LineItem)) (*budget.Result, error)
}

// PriceHandler handles parse and price requests.
type PriceHandler struct {
	pricer Pricer
}

// NewPriceHandler creates a new PriceHandler.
func NewPriceHandler(pricer Pricer) *PriceHandler {
	return &PriceHandler{pricer: pricer}
}

// SectionEntries lists the parsed entries of one section.
type SectionEntries struct {
	Name    string           `json:"name"`
	Cards   int              `json:"cards"`
	Entries []decklist.Entry `json:"entries"`
}

// ParseResponse is the result of parsing a deck list.
type ParseResponse struct {
	Sections []SectionEntries `json:"sections"`
}

// Parse splits the posted deck list into sections without pricing it.
func (h *PriceHandler) Parse(w http.ResponseWriter, r *http.Request) {
	text, err := readDecklist(w, r)
	if err != nil {
		response.BadRequest(w, r, err)
		return
	}

	sections, err := h.pricer.Parse(text)
	if err != nil {
		response.BadRequest(w, r, err)
		return
	}

	response.Success(w, NewParseResponse(sections))
}

// NewParseResponse converts parsed sections to their JSON representation.
func NewParseResponse(sections decklist.Sections) ParseResponse {
	resp := ParseResponse{Sections: make([]SectionEntries, 0, len(decklist.Order))}
	for _, section := range decklist.Order {
		entries := sections[section]
		if entries == nil {
			entries = make([]decklist.Entry, 0)
		}
		resp.Sections = append(resp.Sections, SectionEntries{
			Name:    string(section),
			Cards:   sections.Cards(section),
			Entries: entries,
		})
	}
	return resp
}

// Price prices the posted deck list and returns the full report.
func (h *PriceHandler) Price(w http.ResponseWriter, r *http.Request) {
	text, err := readDecklist(w, r)
	if err != nil {
		response.BadRequest(w, r, err)
		return
	}

	result, err := h.pricer.Price(r.Context(), text, nil)
	switch {
	case errors.Is(err, decklist.ErrEmptyDecklist):
		response.BadRequest(w, r, err)
		return
	case err != nil:
		response.ServiceUnavailable(w, r, err)
		return
	}

	response.Success(w, report.NewDocument(result))
}
