package storage

import (
	"context"
	"time"
)

// MarketPrice is one mandi price observation for a commodity.
type MarketPrice struct {
	ID            int64     `json:"id"`
	Commodity     string    `json:"commodity"`
	MandiName     string    `json:"mandi_name"`
	MandiDistrict string    `json:"mandi_district"`
	MandiState    string    `json:"mandi_state"`
	ModalPrice    float64   `json:"modal_price"`
	MinPrice      float64   `json:"min_price"`
	MaxPrice      float64   `json:"max_price"`
	PriceUnit     string    `json:"price_unit"`
	PriceDate     time.Time `json:"price_date"`
}

// MarketPriceQuery filters market price rows. Commodity matches
// case-insensitively as a substring; State and Mandi are optional filters.
type MarketPriceQuery struct {
	Commodity string
	State     string
	Mandi     string
	Limit     int
}

// Scheme is a government agricultural scheme record.
type Scheme struct {
	ID             int64  `json:"id"`
	Name           string `json:"scheme_name"`
	Ministry       string `json:"ministry"`
	Description    string `json:"description"`
	Benefits       string `json:"benefits"`
	Eligibility    string `json:"eligibility_criteria"`
	ApplicationURL string `json:"application_url"`
	ValidUntil     string `json:"valid_until"`
	IsActive       bool   `json:"is_active"`
}

// SchemeQuery searches active schemes. Query matches name, description, or
// benefits as a case-insensitive substring.
type SchemeQuery struct {
	Query string
	State string
	Crop  string
	Limit int
}

// Store is the read interface over the price and scheme tables. It must be
// safe for concurrent use; the orchestrator issues queries from concurrently
// executing tool calls.
type Store interface {
	// MarketPrices returns rows matching q, most recent first.
	MarketPrices(ctx context.Context, q MarketPriceQuery) ([]MarketPrice, error)

	// SearchSchemes returns active schemes matching q.
	SearchSchemes(ctx context.Context, q SchemeQuery) ([]Scheme, error)

	// Close releases resources.
	Close() error
}
