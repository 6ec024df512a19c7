package tools

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/kisanmitra/kisan/internal/storage"
)

type marketArgs struct {
	Commodity string `json:"commodity"`
	State     string `json:"state"`
	Mandi     string `json:"mandi"`
}

type marketPriceRow struct {
	Mandi      string `json:"mandi"`
	State      string `json:"state"`
	District   string `json:"district"`
	ModalPrice string `json:"modal_price"`
	MinPrice   string `json:"min_price,omitempty"`
	MaxPrice   string `json:"max_price,omitempty"`
	Date       string `json:"date"`
}

type marketSummary struct {
	AverageModalPrice string `json:"average_modal_price"`
	MandisChecked     int    `json:"mandis_checked"`
	DateRange         string `json:"date_range"`
}

type marketPayload struct {
	Commodity string           `json:"commodity"`
	Prices    []marketPriceRow `json:"prices"`
	Summary   marketSummary    `json:"summary"`
	Tip       string           `json:"tip"`
}

// noDataPayload keeps an empty result explanatory: the model gets a message
// and example commodities to suggest, never a bare empty array.
type noDataPayload struct {
	Message    string `json:"message"`
	Suggestion string `json:"suggestion"`
}

func (e *Executor) executeGetMarketPrices(ctx context.Context, args map[string]any) string {
	var a marketArgs
	if err := decodeArgs(args, &a); err != nil {
		return errorJSON("invalid market price arguments")
	}

	rows, err := e.store.MarketPrices(ctx, storage.MarketPriceQuery{
		Commodity: a.Commodity,
		State:     a.State,
		Mandi:     a.Mandi,
		Limit:     10,
	})
	if err != nil {
		log.Error().Err(err).Str("commodity", a.Commodity).Msg("market price query failed")
		return errorJSON("Unable to fetch market prices")
	}

	if len(rows) == 0 {
		region := ""
		if a.State != "" {
			region = " in " + a.State
		}
		return marshalResult(noDataPayload{
			Message:    fmt.Sprintf("No recent price data found for %s%s. You may want to check local mandi directly or try nearby states.", a.Commodity, region),
			Suggestion: "Try searching for common crops like Wheat, Rice, Soybean, Cotton, or Onion",
		})
	}

	payload := marketPayload{
		Commodity: a.Commodity,
		Tip:       "Compare prices across multiple mandis before selling. Transportation cost should also be considered.",
	}

	var total float64
	for _, p := range rows {
		total += p.ModalPrice
		row := marketPriceRow{
			Mandi:      p.MandiName,
			State:      p.MandiState,
			District:   p.MandiDistrict,
			ModalPrice: fmt.Sprintf("₹%.0f/%s", p.ModalPrice, p.PriceUnit),
			Date:       p.PriceDate.Format("2006-01-02"),
		}
		if p.MinPrice > 0 {
			row.MinPrice = fmt.Sprintf("₹%.0f", p.MinPrice)
		}
		if p.MaxPrice > 0 {
			row.MaxPrice = fmt.Sprintf("₹%.0f", p.MaxPrice)
		}
		payload.Prices = append(payload.Prices, row)
	}

	// Rows arrive most recent first.
	payload.Summary = marketSummary{
		AverageModalPrice: fmt.Sprintf("₹%.0f/quintal", math.Round(total/float64(len(rows)))),
		MandisChecked:     len(rows),
		DateRange: fmt.Sprintf("%s to %s",
			rows[len(rows)-1].PriceDate.Format("2006-01-02"),
			rows[0].PriceDate.Format("2006-01-02")),
	}

	return marshalResult(payload)
}
