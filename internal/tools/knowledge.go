package tools

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/gazetteer.yaml data/crops.yaml
var dataFS embed.FS

// Coordinates is an approximate lat/lon pair from the gazetteer.
type Coordinates struct {
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
}

type locationEntry struct {
	Name string  `yaml:"name"`
	Lat  float64 `yaml:"lat"`
	Lon  float64 `yaml:"lon"`
}

// Gazetteer maps place names to approximate coordinates. Loaded once at
// startup; read-only afterwards. Entries keep their file order: cities are
// listed before states so a "City, State" string resolves to the city.
type Gazetteer struct {
	locations []locationEntry
	fallback  Coordinates
}

// LoadGazetteer parses the embedded gazetteer table.
func LoadGazetteer() (*Gazetteer, error) {
	raw, err := dataFS.ReadFile("data/gazetteer.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading gazetteer: %w", err)
	}

	var doc struct {
		Locations []locationEntry `yaml:"locations"`
		Default   Coordinates     `yaml:"default"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing gazetteer: %w", err)
	}

	return &Gazetteer{locations: doc.Locations, fallback: doc.Default}, nil
}

// Resolve returns approximate coordinates for a free-form location string.
// Matching is a case-insensitive substring check in table order, so "Indore,
// Madhya Pradesh" hits the "indore" entry before the state. Unknown locations
// resolve to the central-India fallback rather than failing.
func (g *Gazetteer) Resolve(location string) Coordinates {
	lower := strings.ToLower(location)
	for _, entry := range g.locations {
		if strings.Contains(lower, entry.Name) {
			return Coordinates{Lat: entry.Lat, Lon: entry.Lon}
		}
	}
	return g.fallback
}

// CropKnowledge holds the per-crop stage and issue guidance table. Loaded
// once at startup; read-only afterwards.
type CropKnowledge struct {
	crops map[string]CropEntry
}

// IssueEntry pairs a known problem keyword with its remedy.
type IssueEntry struct {
	Problem  string `yaml:"problem"`
	Solution string `yaml:"solution"`
}

// CropEntry is the guidance for a single crop. Issues keep their file order
// so matching is deterministic when a report mentions more than one problem.
type CropEntry struct {
	Stages map[string]string `yaml:"stages"`
	Issues []IssueEntry      `yaml:"issues"`
}

// LoadCropKnowledge parses the embedded crop knowledge table.
func LoadCropKnowledge() (*CropKnowledge, error) {
	raw, err := dataFS.ReadFile("data/crops.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading crop knowledge: %w", err)
	}

	var doc struct {
		Crops map[string]CropEntry `yaml:"crops"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing crop knowledge: %w", err)
	}

	return &CropKnowledge{crops: doc.Crops}, nil
}

// Lookup returns the entry for a crop name, case-insensitively.
func (k *CropKnowledge) Lookup(crop string) (CropEntry, bool) {
	entry, ok := k.crops[strings.ToLower(crop)]
	return entry, ok
}

// MatchIssue finds guidance for a reported issue by substring match in
// either direction ("yellow leaves on my wheat" matches "yellow leaves").
// Entries are tried in file order; the first match wins.
func (e CropEntry) MatchIssue(issue string) (string, string, bool) {
	lower := strings.ToLower(issue)
	for _, entry := range e.Issues {
		if strings.Contains(lower, entry.Problem) || strings.Contains(entry.Problem, lower) {
			return entry.Problem, entry.Solution, true
		}
	}
	return "", "", false
}
