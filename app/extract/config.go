package extract

import (
	"fmt"
	"os"

	"github.com/andybalholm/cascadia"
	"gopkg.in/yaml.v3"
)

// Synonyms is a label matcher: a label matches when it contains any Include
// entry and no Exclude entry, compared case-insensitively.
type Synonyms struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// Markers detect a page state. Any element matching Selectors is a hit. Texts
// are searched in the page title and in elements matching Regions only, so
// seller-written descriptions cannot trigger them.
type Markers struct {
	Texts     []string `yaml:"texts"`
	Selectors []string `yaml:"selectors"`
	Regions   []string `yaml:"regions"`
}

func (m Markers) empty() bool {
	return len(m.Texts) == 0 && len(m.Selectors) == 0 && len(m.Regions) == 0
}

func (m Markers) clone() Markers {
	return Markers{
		Texts:     append([]string(nil), m.Texts...),
		Selectors: append([]string(nil), m.Selectors...),
		Regions:   append([]string(nil), m.Regions...),
	}
}

// Config is the data side of extraction: selectors, synonym lists and markers.
type Config struct {
	Chains          map[string][]LocatorSpec `yaml:"chains"`
	TableRows       []string                 `yaml:"table_rows"`
	Synonyms        map[string]Synonyms      `yaml:"synonyms"`
	BreadcrumbStop  []string                 `yaml:"breadcrumb_stop_words"`
	AdminUnits      []string                 `yaml:"admin_unit_keywords"`
	TitleSuffixes   []string                 `yaml:"title_suffixes"`
	ArchivedMarkers Markers                  `yaml:"archived_markers"`
	BlockedMarkers  Markers                  `yaml:"blocked_markers"`
}

func DefaultConfig() Config {
	chains := make(map[string][]LocatorSpec, len(defaultChains))
	for field, specs := range defaultChains {
		chains[field] = append([]LocatorSpec(nil), specs...)
	}

	synonyms := make(map[string]Synonyms, len(defaultSynonyms))
	for k, v := range defaultSynonyms {
		synonyms[k] = Synonyms{
			Include: append([]string(nil), v.Include...),
			Exclude: append([]string(nil), v.Exclude...),
		}
	}

	return Config{
		Chains:         chains,
		TableRows:      append([]string(nil), defaultTableRows...),
		Synonyms:       synonyms,
		BreadcrumbStop: append([]string(nil), defaultBreadcrumbStop...),
		AdminUnits:     append([]string(nil), defaultAdminUnits...),
		TitleSuffixes:  append([]string(nil), defaultTitleSuffixes...),
		ArchivedMarkers: defaultArchivedMarkers.clone(),
		BlockedMarkers:  defaultBlockedMarkers.clone(),
	}
}

// LoadConfig reads a YAML file and merges it over DefaultConfig.
// An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read file: %w", err)
	}

	var override Config
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.merge(override)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid extraction config %s: %w", path, err)
	}

	return cfg, nil
}

func (c *Config) merge(o Config) {
	for field, specs := range o.Chains {
		c.Chains[field] = specs
	}
	for key, syn := range o.Synonyms {
		c.Synonyms[key] = syn
	}
	if len(o.TableRows) > 0 {
		c.TableRows = o.TableRows
	}
	if len(o.BreadcrumbStop) > 0 {
		c.BreadcrumbStop = o.BreadcrumbStop
	}
	if len(o.AdminUnits) > 0 {
		c.AdminUnits = o.AdminUnits
	}
	if len(o.TitleSuffixes) > 0 {
		c.TitleSuffixes = o.TitleSuffixes
	}
	if !o.ArchivedMarkers.empty() {
		c.ArchivedMarkers = o.ArchivedMarkers
	}
	if !o.BlockedMarkers.empty() {
		c.BlockedMarkers = o.BlockedMarkers
	}
}

func (c Config) Validate() error {
	for _, field := range Fields {
		specs := c.Chains[field]
		if len(specs) == 0 {
			return fmt.Errorf("chain for %s is empty", field)
		}
		for i, spec := range specs {
			if err := spec.Validate(); err != nil {
				return fmt.Errorf("chain %s, locator %d: %w", field, i, err)
			}
			if spec.Kind == KindParam {
				if _, ok := c.Synonyms[spec.Param]; !ok {
					return fmt.Errorf("chain %s, locator %d: no synonyms for %q", field, i, spec.Param)
				}
			}
		}
	}

	selectors := append([]string(nil), c.TableRows...)
	for _, m := range []Markers{c.ArchivedMarkers, c.BlockedMarkers} {
		selectors = append(selectors, m.Selectors...)
		selectors = append(selectors, m.Regions...)
	}
	for _, sel := range selectors {
		if _, err := cascadia.Compile(sel); err != nil {
			return fmt.Errorf("invalid selector %q: %w", sel, err)
		}
	}

	return nil
}
