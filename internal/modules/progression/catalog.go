package progression

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	domainagg "github.com/yungbote/learnquest-backend/internal/domain/aggregates"
)

//go:embed catalog_default.yaml
var defaultCatalogYAML []byte

type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

func (r Rarity) valid() bool {
	switch r {
	case RarityCommon, RarityRare, RarityEpic, RarityLegendary:
		return true
	}
	return false
}

// RuleSpec names a registered predicate and its parameters.
type RuleSpec struct {
	Predicate   string   `yaml:"predicate" toml:"predicate" json:"predicate"`
	Threshold   *float64 `yaml:"threshold" toml:"threshold" json:"threshold,omitempty"`
	ContentType string   `yaml:"content_type" toml:"content_type" json:"content_type,omitempty"`
	MinQuizzes  int      `yaml:"min_quizzes" toml:"min_quizzes" json:"min_quizzes,omitempty"`
}

type AchievementDefinition struct {
	ID          string   `yaml:"id" toml:"id" json:"id"`
	Name        string   `yaml:"name" toml:"name" json:"name"`
	Description string   `yaml:"description" toml:"description" json:"description"`
	Rarity      Rarity   `yaml:"rarity" toml:"rarity" json:"rarity"`
	XPReward    int      `yaml:"xp_reward" toml:"xp_reward" json:"xp_reward"`
	Rule        RuleSpec `yaml:"rule" toml:"rule" json:"rule"`

	predicate Predicate
}

type catalogFile struct {
	Achievements []AchievementDefinition `yaml:"achievements" toml:"achievements"`
}

// Catalog is the ordered, validated set of achievement definitions.
// It implements aggregates.AchievementRules.
type Catalog struct {
	defs []AchievementDefinition
	byID map[string]int
}

var _ domainagg.AchievementRules = (*Catalog)(nil)

// LoadCatalog reads a YAML or TOML catalog from path. An empty path loads the built-in catalog.
func LoadCatalog(path string, reg *PredicateRegistry) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return ParseCatalog(defaultCatalogYAML, "yaml", reg)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read catalog %s: %v", ErrConfiguration, path, err)
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return ParseCatalog(data, format, reg)
}

// ParseCatalog decodes a catalog in the given format ("yaml", "yml" or "toml").
func ParseCatalog(data []byte, format string, reg *PredicateRegistry) (*Catalog, error) {
	var file catalogFile
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil {
			return nil, fmt.Errorf("%w: decode yaml catalog: %v", ErrConfiguration, err)
		}
	case "toml":
		md, err := toml.Decode(string(data), &file)
		if err != nil {
			return nil, fmt.Errorf("%w: decode toml catalog: %v", ErrConfiguration, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, configErr("unknown catalog keys: %v", undecoded)
		}
	default:
		return nil, configErr("unsupported catalog format %q", format)
	}
	return NewCatalog(file.Achievements, reg)
}

// NewCatalog validates defs and compiles their predicates. Order is preserved.
func NewCatalog(defs []AchievementDefinition, reg *PredicateRegistry) (*Catalog, error) {
	if reg == nil {
		reg = DefaultPredicates()
	}
	c := &Catalog{
		defs: make([]AchievementDefinition, 0, len(defs)),
		byID: make(map[string]int, len(defs)),
	}
	for i, d := range defs {
		d.ID = strings.TrimSpace(d.ID)
		d.Name = strings.TrimSpace(d.Name)
		d.Rarity = Rarity(strings.ToLower(strings.TrimSpace(string(d.Rarity))))
		if d.ID == "" {
			return nil, configErr("achievement #%d: missing id", i)
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, configErr("achievement %q: duplicate id", d.ID)
		}
		if d.Name == "" {
			d.Name = d.ID
		}
		if !d.Rarity.valid() {
			return nil, configErr("achievement %q: invalid rarity %q", d.ID, d.Rarity)
		}
		if d.XPReward < 0 {
			return nil, configErr("achievement %q: xp_reward must be >= 0", d.ID)
		}
		pred, err := reg.Compile(d.Rule)
		if err != nil {
			return nil, fmt.Errorf("achievement %q: %w", d.ID, err)
		}
		d.predicate = pred
		c.byID[d.ID] = len(c.defs)
		c.defs = append(c.defs, d)
	}
	return c, nil
}

func (c *Catalog) Len() int { return len(c.defs) }

// Definitions returns a copy of the catalog in evaluation order.
func (c *Catalog) Definitions() []AchievementDefinition {
	out := make([]AchievementDefinition, len(c.defs))
	copy(out, c.defs)
	return out
}

func (c *Catalog) Get(id string) (AchievementDefinition, bool) {
	i, ok := c.byID[id]
	if !ok {
		return AchievementDefinition{}, false
	}
	return c.defs[i], true
}

// Qualifying returns grants for every definition not in unlocked whose predicate holds, in catalog order.
func (c *Catalog) Qualifying(snap domainagg.StatsSnapshot, unlocked map[string]bool) []domainagg.AchievementGrant {
	var out []domainagg.AchievementGrant
	for _, d := range c.defs {
		if unlocked[d.ID] || d.predicate == nil || !d.predicate(snap) {
			continue
		}
		out = append(out, domainagg.AchievementGrant{
			AchievementID: d.ID,
			Name:          d.Name,
			Rarity:        string(d.Rarity),
			XPReward:      d.XPReward,
		})
	}
	return out
}
