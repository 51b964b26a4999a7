package progression

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/learnquest-backend/internal/domain/aggregates"
)

func TestLoadCatalogDefault(t *testing.T) {
	c, err := LoadCatalog("", nil)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if c.Len() != 12 {
		t.Fatalf("default catalog size: want=12 got=%d", c.Len())
	}
	defs := c.Definitions()
	if defs[0].ID != "first_steps" || defs[len(defs)-1].ID != "unstoppable" {
		t.Fatalf("catalog order: first=%s last=%s", defs[0].ID, defs[len(defs)-1].ID)
	}
	if _, ok := c.Get("century"); !ok {
		t.Fatalf("expected century in default catalog")
	}
}

func TestParseCatalogRejectsBadEntries(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"unknown predicate", `
achievements:
  - id: a
    rarity: common
    rule: {predicate: mystery, threshold: 1}
`},
		{"duplicate id", `
achievements:
  - id: a
    rarity: common
    rule: {predicate: total_xp_at_least, threshold: 1}
  - id: a
    rarity: rare
    rule: {predicate: total_xp_at_least, threshold: 2}
`},
		{"bad rarity", `
achievements:
  - id: a
    rarity: mythic
    rule: {predicate: total_xp_at_least, threshold: 1}
`},
		{"negative reward", `
achievements:
  - id: a
    rarity: common
    xp_reward: -5
    rule: {predicate: total_xp_at_least, threshold: 1}
`},
		{"missing threshold", `
achievements:
  - id: a
    rarity: common
    rule: {predicate: total_xp_at_least}
`},
		{"missing id", `
achievements:
  - rarity: common
    rule: {predicate: total_xp_at_least, threshold: 1}
`},
		{"unknown content type", `
achievements:
  - id: a
    rarity: common
    rule: {predicate: content_completed_at_least, content_type: podcast, threshold: 1}
`},
		{"unknown field", `
achievements:
  - id: a
    rarity: common
    reward: 5
    rule: {predicate: total_xp_at_least, threshold: 1}
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tc.yaml), "yaml", nil)
			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("ParseCatalog: want ErrConfiguration got=%v", err)
			}
		})
	}
}

func TestLoadCatalogTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.toml")
	body := `
[[achievements]]
id = "scholar"
name = "Scholar"
rarity = "rare"
xp_reward = 30
[achievements.rule]
predicate = "average_score_at_least"
threshold = 80.0
min_quizzes = 3

[[achievements]]
id = "reader"
rarity = "common"
[achievements.rule]
predicate = "content_completed_at_least"
content_type = "section"
threshold = 2.0
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := LoadCatalog(path, nil)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("size: want=2 got=%d", c.Len())
	}
	reader, _ := c.Get("reader")
	if reader.Name != "reader" {
		t.Fatalf("name defaults to id: got=%q", reader.Name)
	}

	snap := domainagg.StatsSnapshot{
		UserID:           uuid.New(),
		QuizzesCompleted: 2,
		AverageQuizScore: 95,
		CompletedByType:  map[string]int{"section": 2},
	}
	got := c.Qualifying(snap, nil)
	if len(got) != 1 || got[0].AchievementID != "reader" {
		t.Fatalf("two quizzes are below min_quizzes: got=%+v", got)
	}
	snap.QuizzesCompleted = 3
	got = c.Qualifying(snap, nil)
	if len(got) != 2 || got[0].AchievementID != "scholar" || got[1].AchievementID != "reader" {
		t.Fatalf("catalog order: got=%+v", got)
	}
	if got[0].XPReward != 30 || got[0].Rarity != "rare" {
		t.Fatalf("grant fields: got=%+v", got[0])
	}
	got = c.Qualifying(snap, map[string]bool{"scholar": true})
	if len(got) != 1 || got[0].AchievementID != "reader" {
		t.Fatalf("unlocked ids are skipped: got=%+v", got)
	}
}

func TestLoadCatalogUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadCatalog(path, nil); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("json catalog: want ErrConfiguration got=%v", err)
	}
	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"), nil); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("missing file: want ErrConfiguration got=%v", err)
	}
}

func TestCustomPredicateRegistration(t *testing.T) {
	reg := DefaultPredicates()
	reg.Register("always", func(RuleSpec) (Predicate, error) {
		return func(domainagg.StatsSnapshot) bool { return true }, nil
	})
	c, err := NewCatalog([]AchievementDefinition{
		{ID: "hello", Rarity: RarityCommon, Rule: RuleSpec{Predicate: "always"}},
	}, reg)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	if got := c.Qualifying(domainagg.StatsSnapshot{}, map[string]bool{}); len(got) != 1 {
		t.Fatalf("custom predicate: got=%+v", got)
	}
}
