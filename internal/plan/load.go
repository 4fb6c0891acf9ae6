package plan

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// catalogFile is the YAML layout of a plan table
type catalogFile struct {
	Plans []planEntry `yaml:"plans"`
}

type planEntry struct {
	ID                string     `yaml:"id"`
	Name              string     `yaml:"name"`
	Price             int        `yaml:"price"`
	Interval          string     `yaml:"interval"`
	Features          []string   `yaml:"features"`
	Limits            limitEntry `yaml:"limits"`
	TeamCollaboration bool       `yaml:"team_collaboration"`
	StripePriceID     string     `yaml:"stripe_price_id"`
	ButtonText        string     `yaml:"button_text"`
	Popular           bool       `yaml:"popular"`
}

type limitEntry struct {
	Projects             limitValue `yaml:"projects"`
	GitHubRequests       limitValue `yaml:"github_requests"`
	AnalyticsHistoryDays limitValue `yaml:"analytics_history_days"`
}

// limitValue accepts an integer or the literal "unlimited"
type limitValue int

// UnmarshalYAML implements yaml.Unmarshaler
func (v *limitValue) UnmarshalYAML(node *yaml.Node) error {
	raw := strings.TrimSpace(node.Value)
	if strings.EqualFold(raw, "unlimited") {
		*v = limitValue(Unlimited)
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("line %d: limit must be an integer or \"unlimited\", got %q", node.Line, raw)
	}
	*v = limitValue(n)
	return nil
}

// LoadCatalogFile reads a YAML plan table from path
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open plans file: %w", err)
	}
	defer f.Close()

	return LoadCatalog(f)
}

// LoadCatalog decodes a YAML plan table.
//
// Example:
//
//	plans:
//	  - id: free
//	    name: Free
//	    limits:
//	      projects: 3
//	      github_requests: 10
//	      analytics_history_days: 7
//	  - id: pro
//	    name: Pro
//	    price: 19
//	    limits:
//	      projects: unlimited
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var file catalogFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse plans YAML: %w", err)
	}

	plans := make([]Plan, 0, len(file.Plans))
	for _, e := range file.Plans {
		interval := e.Interval
		if interval == "" {
			interval = "month"
		}
		plans = append(plans, Plan{
			ID:       e.ID,
			Name:     e.Name,
			Price:    e.Price,
			Interval: interval,
			Features: e.Features,
			Limits: Limits{
				Projects:             int(e.Limits.Projects),
				GitHubRequests:       int(e.Limits.GitHubRequests),
				AnalyticsHistoryDays: int(e.Limits.AnalyticsHistoryDays),
			},
			TeamCollaboration: e.TeamCollaboration,
			StripePriceID:     e.StripePriceID,
			ButtonText:        e.ButtonText,
			Popular:           e.Popular,
		})
	}

	return NewCatalog(plans...)
}
