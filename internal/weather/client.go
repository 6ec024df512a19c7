// Package weather is a client for an OpenWeatherMap-compatible API,
// condensing the current conditions and 5-day forecast into the compact
// report the advisor feeds back to the model.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Condition is the coarse sky condition shown to farmers.
type Condition string

const (
	ConditionSunny  Condition = "sunny"
	ConditionCloudy Condition = "cloudy"
	ConditionRainy  Condition = "rainy"
	ConditionStormy Condition = "stormy"
)

// Current holds present conditions at a location.
type Current struct {
	Temp        float64   `json:"temp"`
	FeelsLike   float64   `json:"feels_like"`
	Humidity    int       `json:"humidity"`
	WindSpeed   float64   `json:"wind_speed"` // km/h
	Condition   Condition `json:"condition"`
	Description string    `json:"description"`
}

// Day is one forecast day, aggregated from 3-hourly entries.
type Day struct {
	Date       string    `json:"date"`
	High       float64   `json:"high"`
	Low        float64   `json:"low"`
	Condition  Condition `json:"condition"`
	RainChance int       `json:"rain_chance"` // percent
}

// Report is the condensed weather answer for one location.
type Report struct {
	Location string  `json:"location"`
	Current  Current `json:"current"`
	Forecast []Day   `json:"forecast"`
}

// Client calls the weather API. The zero value is not usable; construct
// with New.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a weather client. baseURL is the API root, e.g.
// "https://api.openweathermap.org/data/2.5".
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Fetch returns the condensed report for the given coordinates.
func (c *Client) Fetch(ctx context.Context, lat, lon float64, location string) (*Report, error) {
	var cur currentResponse
	if err := c.get(ctx, "/weather", lat, lon, &cur); err != nil {
		return nil, fmt.Errorf("current weather: %w", err)
	}

	var fc forecastResponse
	if err := c.get(ctx, "/forecast", lat, lon, &fc); err != nil {
		return nil, fmt.Errorf("forecast: %w", err)
	}

	report := &Report{
		Location: location,
		Current: Current{
			Temp:        math.Round(cur.Main.Temp),
			FeelsLike:   math.Round(cur.Main.FeelsLike),
			Humidity:    cur.Main.Humidity,
			WindSpeed:   math.Round(cur.Wind.Speed * 3.6),
			Condition:   mapCondition(firstWeatherMain(cur.Weather)),
			Description: firstWeatherDescription(cur.Weather),
		},
		Forecast: summarizeForecast(fc),
	}
	return report, nil
}

func (c *Client) get(ctx context.Context, path string, lat, lon float64, out any) error {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%g", lat))
	q.Set("lon", fmt.Sprintf("%g", lon))
	q.Set("units", "metric")
	q.Set("appid", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("weather API returned %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// mapCondition reduces the API's weather "main" field to the four coarse
// conditions the UI knows.
func mapCondition(main string) Condition {
	m := strings.ToLower(main)
	switch {
	case strings.Contains(m, "thunder") || strings.Contains(m, "storm"):
		return ConditionStormy
	case strings.Contains(m, "rain") || strings.Contains(m, "drizzle") || strings.Contains(m, "shower"):
		return ConditionRainy
	case strings.Contains(m, "cloud") || strings.Contains(m, "overcast") ||
		strings.Contains(m, "mist") || strings.Contains(m, "fog") || strings.Contains(m, "haze"):
		return ConditionCloudy
	default:
		return ConditionSunny
	}
}

// summarizeForecast groups the 3-hourly forecast entries by calendar day and
// keeps the first five days.
func summarizeForecast(fc forecastResponse) []Day {
	type bucket struct {
		high, low float64
		pop       float64
		main      string
	}
	buckets := make(map[string]*bucket)
	var order []string

	for _, item := range fc.List {
		date := time.Unix(item.Dt, 0).Format("2006-01-02")
		b, ok := buckets[date]
		if !ok {
			b = &bucket{high: item.Main.Temp, low: item.Main.Temp, main: firstWeatherMain(item.Weather)}
			buckets[date] = b
			order = append(order, date)
		}
		b.high = math.Max(b.high, item.Main.Temp)
		b.low = math.Min(b.low, item.Main.Temp)
		b.pop = math.Max(b.pop, item.Pop)
	}

	sort.Strings(order)
	if len(order) > 5 {
		order = order[:5]
	}

	days := make([]Day, 0, len(order))
	for _, date := range order {
		b := buckets[date]
		days = append(days, Day{
			Date:       date,
			High:       math.Round(b.high),
			Low:        math.Round(b.low),
			Condition:  mapCondition(b.main),
			RainChance: int(math.Round(b.pop * 100)),
		})
	}
	return days
}

// API response shapes (subset of OpenWeatherMap's /weather and /forecast).

type weatherEntry struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}

type currentResponse struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"` // m/s
	} `json:"wind"`
	Weather []weatherEntry `json:"weather"`
}

type forecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Pop     float64        `json:"pop"`
		Weather []weatherEntry `json:"weather"`
	} `json:"list"`
}

func firstWeatherMain(entries []weatherEntry) string {
	if len(entries) == 0 {
		return ""
	}
	return entries[0].Main
}

func firstWeatherDescription(entries []weatherEntry) string {
	if len(entries) == 0 {
		return ""
	}
	return entries[0].Description
}
