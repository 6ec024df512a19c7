package tools

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

type weatherArgs struct {
	Location string   `json:"location"`
	Lat      *float64 `json:"lat"`
	Lon      *float64 `json:"lon"`
}

type weatherCurrentPayload struct {
	Temperature string `json:"temperature"`
	FeelsLike   string `json:"feels_like"`
	Humidity    string `json:"humidity"`
	Condition   string `json:"condition"`
	Description string `json:"description"`
	WindSpeed   string `json:"wind_speed"`
}

type weatherForecastDay struct {
	Date       string `json:"date"`
	High       string `json:"high"`
	Low        string `json:"low"`
	Condition  string `json:"condition"`
	RainChance string `json:"rain_chance"`
}

type weatherPayload struct {
	Location        string                `json:"location"`
	Current         weatherCurrentPayload `json:"current"`
	Forecast        []weatherForecastDay  `json:"forecast"`
	FarmingAdvisory string                `json:"farming_advisory"`
}

func (e *Executor) executeGetWeather(ctx context.Context, args map[string]any) string {
	var a weatherArgs
	if err := decodeArgs(args, &a); err != nil {
		return errorJSON("invalid weather arguments")
	}

	var lat, lon float64
	if a.Lat != nil && a.Lon != nil {
		lat, lon = *a.Lat, *a.Lon
	} else {
		coords := e.gazetteer.Resolve(a.Location)
		lat, lon = coords.Lat, coords.Lon
	}

	report, err := e.weather.Fetch(ctx, lat, lon, a.Location)
	if err != nil {
		log.Error().Err(err).Str("location", a.Location).Msg("weather tool failed")
		return errorJSON("Unable to fetch weather information")
	}

	payload := weatherPayload{
		Location: report.Location,
		Current: weatherCurrentPayload{
			Temperature: fmt.Sprintf("%.0f°C", report.Current.Temp),
			FeelsLike:   fmt.Sprintf("%.0f°C", report.Current.FeelsLike),
			Humidity:    fmt.Sprintf("%d%%", report.Current.Humidity),
			Condition:   string(report.Current.Condition),
			Description: report.Current.Description,
			WindSpeed:   fmt.Sprintf("%.0f km/h", report.Current.WindSpeed),
		},
		FarmingAdvisory: farmingAdvisory(report.Current.Temp),
	}

	for _, day := range report.Forecast {
		payload.Forecast = append(payload.Forecast, weatherForecastDay{
			Date:       day.Date,
			High:       fmt.Sprintf("%.0f°C", day.High),
			Low:        fmt.Sprintf("%.0f°C", day.Low),
			Condition:  string(day.Condition),
			RainChance: fmt.Sprintf("%d%%", day.RainChance),
		})
	}

	return marshalResult(payload)
}

// farmingAdvisory derives a one-line advisory from temperature thresholds.
func farmingAdvisory(temp float64) string {
	switch {
	case temp > 35:
		return "High temperature alert - avoid mid-day field work, ensure adequate irrigation"
	case temp < 10:
		return "Cold weather - protect young crops from frost"
	default:
		return "Weather conditions are suitable for regular farm activities"
	}
}
