package tools

import "github.com/kisanmitra/kisan/internal/llm"

// Tool names. The executor dispatches over these with an exhaustive switch;
// adding a tool means adding a constant, a definition, and a case.
const (
	ToolGetWeather        = "get_weather"
	ToolGetMarketPrices   = "get_market_prices"
	ToolSearchSchemes     = "search_schemes"
	ToolAnalyzeCropAdvice = "analyze_crop_advice"
)

// DefaultRegistry returns a registry holding the four advisor tools.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, def := range advisorTools() {
		// Definitions are static; a registration failure is a programming
		// error, not a runtime condition.
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
	return r
}

func advisorTools() []llm.ToolDef {
	return []llm.ToolDef{
		{
			Name:        ToolGetWeather,
			Description: "Get current weather conditions and forecast for a location in India. Use this when farmers ask about weather, rainfall, temperature, or need planning advice.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"location": map[string]any{
						"type":        "string",
						"description": "Location name (city, district, or state in India). Example: 'Indore, Madhya Pradesh'",
					},
					"lat": map[string]any{
						"type":        "number",
						"description": "Latitude of the location (optional, resolved from the location name if not provided)",
					},
					"lon": map[string]any{
						"type":        "number",
						"description": "Longitude of the location (optional, resolved from the location name if not provided)",
					},
				},
				"required": []string{"location"},
			},
		},
		{
			Name:        ToolGetMarketPrices,
			Description: "Get current mandi (market) prices for agricultural commodities. Use when farmers ask about selling crops, price trends, or which mandi to go to.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"commodity": map[string]any{
						"type":        "string",
						"description": "Name of the crop/commodity. Examples: Wheat, Rice, Soybean, Cotton, Onion, Tomato",
					},
					"state": map[string]any{
						"type":        "string",
						"description": "State name to filter mandis. Example: 'Madhya Pradesh'",
					},
					"mandi": map[string]any{
						"type":        "string",
						"description": "Specific mandi name (optional)",
					},
				},
				"required": []string{"commodity"},
			},
		},
		{
			Name:        ToolSearchSchemes,
			Description: "Search for government agricultural schemes, subsidies, and programs. Use when farmers ask about financial help, loans, insurance, or government benefits.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "What type of scheme they're looking for. Examples: 'crop insurance', 'PM-KISAN', 'irrigation subsidy', 'tractor loan'",
					},
					"state": map[string]any{
						"type":        "string",
						"description": "State to filter state-specific schemes (optional)",
					},
					"crop": map[string]any{
						"type":        "string",
						"description": "Crop name to find crop-specific schemes (optional)",
					},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        ToolAnalyzeCropAdvice,
			Description: "Get tailored crop management advice. Use when farmers ask about sowing, irrigation, fertilizers, pest control, or general crop guidance.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"crop": map[string]any{
						"type":        "string",
						"description": "Name of the crop. Examples: Wheat, Rice, Cotton, Soybean",
					},
					"stage": map[string]any{
						"type":        "string",
						"description": "Current growth stage",
						"enum":        []string{"sowing", "vegetative", "flowering", "maturity", "harvest"},
					},
					"issue": map[string]any{
						"type":        "string",
						"description": "Specific issue or question (optional). Example: 'yellow leaves', 'pest attack', 'irrigation timing'",
					},
					"location": map[string]any{
						"type":        "string",
						"description": "Location for climate-specific advice (optional)",
					},
				},
				"required": []string{"crop"},
			},
		},
	}
}
