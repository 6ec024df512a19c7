package tools

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/kisanmitra/kisan/internal/storage"
)

type schemeArgs struct {
	Query string `json:"query"`
	State string `json:"state"`
	Crop  string `json:"crop"`
}

type schemeRow struct {
	Name        string `json:"name"`
	Ministry    string `json:"ministry,omitempty"`
	Description string `json:"description"`
	Benefits    string `json:"benefits,omitempty"`
	Eligibility string `json:"eligibility,omitempty"`
	HowToApply  string `json:"how_to_apply"`
	ValidUntil  string `json:"valid_until,omitempty"`
}

type schemePayload struct {
	Query        string      `json:"query"`
	SchemesFound int         `json:"schemes_found"`
	Schemes      []schemeRow `json:"schemes"`
	Tip          string      `json:"tip"`
}

type commonScheme struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	HowToApply  string `json:"how_to_apply"`
}

type schemeFallbackPayload struct {
	Message       string         `json:"message"`
	CommonSchemes []commonScheme `json:"common_schemes"`
	Suggestion    string         `json:"suggestion"`
}

func (e *Executor) executeSearchSchemes(ctx context.Context, args map[string]any) string {
	var a schemeArgs
	if err := decodeArgs(args, &a); err != nil {
		return errorJSON("invalid scheme search arguments")
	}

	schemes, err := e.store.SearchSchemes(ctx, storage.SchemeQuery{
		Query: a.Query,
		State: a.State,
		Crop:  a.Crop,
		Limit: 5,
	})
	if err != nil {
		log.Error().Err(err).Str("query", a.Query).Msg("scheme search failed")
		return errorJSON("Unable to search schemes")
	}

	if len(schemes) == 0 {
		return marshalResult(schemeFallback(a.Query))
	}

	payload := schemePayload{
		Query:        a.Query,
		SchemesFound: len(schemes),
		Tip:          "Carry Aadhaar card, land records, and bank passbook when applying for any scheme",
	}
	for _, s := range schemes {
		apply := "Contact local agriculture office"
		if s.ApplicationURL != "" {
			apply = "Apply at: " + s.ApplicationURL
		}
		payload.Schemes = append(payload.Schemes, schemeRow{
			Name:        s.Name,
			Ministry:    s.Ministry,
			Description: s.Description,
			Benefits:    s.Benefits,
			Eligibility: s.Eligibility,
			HowToApply:  apply,
			ValidUntil:  s.ValidUntil,
		})
	}

	return marshalResult(payload)
}

// schemeFallback lists nationally-known schemes so the user never receives a
// bare empty response.
func schemeFallback(query string) schemeFallbackPayload {
	return schemeFallbackPayload{
		Message: fmt.Sprintf("No specific schemes found for %q. Here are major schemes available to farmers:", query),
		CommonSchemes: []commonScheme{
			{
				Name:        "PM-KISAN",
				Description: "Direct income support of ₹6,000 per year to eligible farmer families",
				HowToApply:  "Apply through local agriculture office or online at pmkisan.gov.in",
			},
			{
				Name:        "Pradhan Mantri Fasal Bima Yojana (PMFBY)",
				Description: "Crop insurance scheme covering natural calamities, pests, and diseases",
				HowToApply:  "Apply through banks or online before sowing season",
			},
			{
				Name:        "Kisan Credit Card (KCC)",
				Description: "Easy credit for farmers at subsidized interest rates",
				HowToApply:  "Apply at any bank branch with land documents",
			},
		},
		Suggestion: "Visit your local Krishi Vigyan Kendra (KVK) or agriculture office for state-specific schemes",
	}
}
