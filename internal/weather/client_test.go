package weather

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newAPIServer(t *testing.T, current map[string]any, forecast map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("appid") == "" {
			http.Error(w, "missing api key", http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/weather":
			json.NewEncoder(w).Encode(current)
		case "/forecast":
			json.NewEncoder(w).Encode(forecast)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestFetchCurrentConditions(t *testing.T) {
	current := map[string]any{
		"main":    map[string]any{"temp": 31.4, "feels_like": 33.8, "humidity": 62},
		"wind":    map[string]any{"speed": 3.5},
		"weather": []map[string]any{{"main": "Clear", "description": "clear sky"}},
	}
	ts := newAPIServer(t, current, map[string]any{"list": []any{}})
	defer ts.Close()

	c := New(ts.URL, "test-key")
	report, err := c.Fetch(context.Background(), 22.7196, 75.8577, "Indore, Madhya Pradesh")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if report.Location != "Indore, Madhya Pradesh" {
		t.Errorf("Location = %q", report.Location)
	}
	if report.Current.Temp != 31 {
		t.Errorf("Temp = %v, want 31 (rounded)", report.Current.Temp)
	}
	if report.Current.FeelsLike != 34 {
		t.Errorf("FeelsLike = %v, want 34", report.Current.FeelsLike)
	}
	if report.Current.Humidity != 62 {
		t.Errorf("Humidity = %v", report.Current.Humidity)
	}
	// 3.5 m/s is 12.6 km/h, rounded to 13.
	if report.Current.WindSpeed != 13 {
		t.Errorf("WindSpeed = %v, want 13", report.Current.WindSpeed)
	}
	if report.Current.Condition != ConditionSunny {
		t.Errorf("Condition = %q", report.Current.Condition)
	}
	if report.Current.Description != "clear sky" {
		t.Errorf("Description = %q", report.Current.Description)
	}
}

func TestFetchForecastGroupsByDay(t *testing.T) {
	// Mid-day timestamps with small offsets keep each group on one calendar
	// day in any timezone.
	base := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	entry := func(at time.Time, temp, pop float64, main string) map[string]any {
		return map[string]any{
			"dt":      at.Unix(),
			"main":    map[string]any{"temp": temp},
			"pop":     pop,
			"weather": []map[string]any{{"main": main}},
		}
	}
	forecast := map[string]any{"list": []map[string]any{
		entry(base, 24, 0.1, "Clouds"),
		entry(base.Add(1*time.Hour), 32, 0.2, "Clear"),
		entry(base.Add(2*time.Hour), 27, 0.0, "Clear"),
		entry(base.AddDate(0, 0, 1), 22, 0.8, "Rain"),
		entry(base.AddDate(0, 0, 1).Add(1*time.Hour), 26, 0.6, "Rain"),
	}}
	current := map[string]any{
		"main":    map[string]any{"temp": 25.0, "feels_like": 25.0, "humidity": 50},
		"wind":    map[string]any{"speed": 1.0},
		"weather": []map[string]any{{"main": "Clear", "description": "clear sky"}},
	}
	ts := newAPIServer(t, current, forecast)
	defer ts.Close()

	c := New(ts.URL, "test-key")
	report, err := c.Fetch(context.Background(), 22.7, 75.8, "Indore")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if len(report.Forecast) != 2 {
		t.Fatalf("got %d forecast days, want 2: %+v", len(report.Forecast), report.Forecast)
	}

	day1 := report.Forecast[0]
	if day1.High != 32 || day1.Low != 24 {
		t.Errorf("day1 high/low = %v/%v, want 32/24", day1.High, day1.Low)
	}
	if day1.RainChance != 20 {
		t.Errorf("day1 RainChance = %d, want 20 (max pop of the day)", day1.RainChance)
	}

	day2 := report.Forecast[1]
	if day2.RainChance != 80 {
		t.Errorf("day2 RainChance = %d, want 80", day2.RainChance)
	}
	if day2.Date <= day1.Date {
		t.Errorf("days out of order: %s then %s", day1.Date, day2.Date)
	}
}

func TestMapCondition(t *testing.T) {
	tests := []struct {
		main string
		want Condition
	}{
		{"Clear", ConditionSunny},
		{"Clouds", ConditionCloudy},
		{"Mist", ConditionCloudy},
		{"Haze", ConditionCloudy},
		{"Rain", ConditionRainy},
		{"Drizzle", ConditionRainy},
		{"Thunderstorm", ConditionStormy},
		{"", ConditionSunny},
	}
	for _, tt := range tests {
		if got := mapCondition(tt.main); got != tt.want {
			t.Errorf("mapCondition(%q) = %q, want %q", tt.main, got, tt.want)
		}
	}
}

func TestFetchErrorOnNon200(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"cod":401,"message":"Invalid API key"}`, http.StatusUnauthorized)
	}))
	defer ts.Close()

	c := New(ts.URL, "bad-key")
	_, err := c.Fetch(context.Background(), 22.7, 75.8, "Indore")
	if err == nil {
		t.Fatal("expected error on non-200 response")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error should carry the upstream status: %v", err)
	}
}
