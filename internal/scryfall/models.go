package scryfall

import (
	"errors"
	"fmt"
)

// Card represents one printing of a Magic card from Scryfall.
type Card struct {
	ID       string `json:"id"`
	OracleID string `json:"oracle_id"`

	Name     string `json:"name"`
	Lang     string `json:"lang"`
	Layout   string `json:"layout"`
	TypeLine string `json:"type_line"`

	// Print details
	SetCode         string `json:"set"`
	SetName         string `json:"set_name"`
	CollectorNumber string `json:"collector_number"`
	Rarity          string `json:"rarity"`
	ReleasedAt      string `json:"released_at"`
	Digital         bool   `json:"digital"`

	Prices Prices `json:"prices"`
}

// Prices represents the prices of a printing in various currencies.
// Scryfall reports them as decimal strings; nil means unknown.
type Prices struct {
	USD       *string `json:"usd,omitempty"`
	USDFoil   *string `json:"usd_foil,omitempty"`
	USDEtched *string `json:"usd_etched,omitempty"`
	EUR       *string `json:"eur,omitempty"`
	EURFoil   *string `json:"eur_foil,omitempty"`
	// EURLow is the lowest Cardmarket listing. Scryfall mirrors that carry
	// Cardmarket data expose it; the public API usually leaves it empty.
	EURLow *string `json:"eur_low,omitempty"`
	TIX    *string `json:"tix,omitempty"`
}

// SearchResult represents search results from Scryfall.
type SearchResult struct {
	Object     string   `json:"object"`
	TotalCards int      `json:"total_cards"`
	HasMore    bool     `json:"has_more"`
	NextPage   string   `json:"next_page,omitempty"`
	Data       []Card   `json:"data"`
	Warnings   []string `json:"warnings,omitempty"`
}

// APIError represents an error response from the Scryfall API.
type APIError struct {
	Object   string   `json:"object"`
	Code     string   `json:"code"`
	Status   int      `json:"status"`
	Details  string   `json:"details"`
	Type     string   `json:"type,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Error implements the error interface for APIError.
func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("Scryfall API error (HTTP %d): %s", e.Status, e.Details)
	}
	return fmt.Sprintf("Scryfall API error (HTTP %d): %s", e.Status, e.Code)
}

// NotFoundError represents a 404 error from the API.
type NotFoundError struct {
	URL string
}

// Error implements the error interface for NotFoundError.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource not found: %s", e.URL)
}

// IsNotFound returns true if err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
