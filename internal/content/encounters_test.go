package content

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/wyrmwatch/core/internal/encounter"
)

const sampleEncounters = `{
  "encounters": [
    {
      "boss": {"id": 9001, "name": "Grove Tyrant", "level": 50, "max_health": 500000, "interrupt_armor": 2},
      "phases": [
        {
          "name": "one",
          "condition": {"kind": "health_above", "above": 70},
          "abilities": [
            {
              "name": "cleave",
              "cooldown_ms": 8000,
              "target": {"kind": "tank"},
              "effects": [
                {"kind": "telegraph", "shape": {"kind": "cone", "angle_deg": 60, "length_u": 15}, "telegraph_duration_ms": 1500},
                {"kind": "damage", "base_damage": 2000, "shape": {"kind": "cone", "angle_deg": 60, "length_u": 15}}
              ]
            }
          ]
        },
        {
          "name": "two",
          "condition": {"kind": "health_between", "above": 30, "below": 70},
          "abilities": [
            {
              "name": "stack_marker",
              "cooldown_ms": 20000,
              "target": {"kind": "random"},
              "effects": [
                {"kind": "coordination", "coordination": {"kind": "stack", "center_radius_u": 6, "min_players": 3, "split": true, "damage": 9000, "failure_damage": 15000}}
              ]
            }
          ]
        },
        {
          "name": "three",
          "condition": {"kind": "health_below", "below": 30},
          "inherit_from": "two",
          "abilities": [
            {
              "name": "enrage_slam",
              "cooldown_ms": 12000,
              "cast_time_ms": 2500,
              "interruptible": true,
              "target": {"kind": "tank"},
              "effects": [
                {"kind": "damage", "base_damage": 6000},
                {"kind": "interrupt_handler", "handler_kind": "moo", "duration_ms": 4000}
              ]
            }
          ]
        }
      ]
    }
  ]
}`

func writeEncounters(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "encounters.json"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadEncountersCompilesAndValidates(t *testing.T) {
	dir := writeEncounters(t, sampleEncounters)
	defs, err := LoadEncounters(dir, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	def, ok := defs[9001]
	if !ok {
		t.Fatalf("boss 9001 missing from %v", defs)
	}
	if len(def.Phases) != 3 {
		t.Fatalf("phases = %d, want 3", len(def.Phases))
	}

	effective := def.EffectiveAbilities("three")
	names := map[string]bool{}
	for _, a := range effective {
		names[a.Name] = true
	}
	if !names["enrage_slam"] || !names["stack_marker"] {
		t.Fatalf("phase three effective abilities = %v, want own plus inherited", names)
	}
	if names["cleave"] {
		t.Fatal("phase three should not inherit phase one abilities")
	}
}

func TestLoadEncountersMissingFileIsEmpty(t *testing.T) {
	defs, err := LoadEncounters(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if len(defs) != 0 {
		t.Fatalf("defs = %v, want empty", defs)
	}
}

func TestLoadEncountersRejectsInheritCycle(t *testing.T) {
	body := `{"encounters":[{"boss":{"id":1,"name":"x","max_health":100},"phases":[
	  {"name":"a","condition":{"kind":"always"},"inherit_from":"b"},
	  {"name":"b","condition":{"kind":"always"},"inherit_from":"a"}
	]}]}`
	dir := writeEncounters(t, body)
	if _, err := LoadEncounters(dir, zap.NewNop()); err == nil {
		t.Fatal("expected cycle rejection")
	}
}

func TestLoadEncountersRejectsUnknownEffectKind(t *testing.T) {
	body := `{"encounters":[{"boss":{"id":1,"name":"x","max_health":100},"phases":[
	  {"name":"a","condition":{"kind":"always"},"abilities":[
	    {"name":"bad","target":{"kind":"tank"},"effects":[{"kind":"explode_everything"}]}
	  ]}
	]}]}`
	dir := writeEncounters(t, body)
	if _, err := LoadEncounters(dir, zap.NewNop()); err == nil {
		t.Fatal("expected unknown effect kind rejection")
	}
}

func TestCompileSelectorKinds(t *testing.T) {
	for _, kind := range []string{"tank", "second_threat", "farthest", "nearest", "lowest_health", "random", "random_n", "marked", "chain"} {
		if _, err := compileSelector(selectorRecord{Kind: kind}); err != nil {
			t.Fatalf("selector %q rejected: %v", kind, err)
		}
	}
	if _, err := compileSelector(selectorRecord{Kind: "psychic"}); err == nil {
		t.Fatal("expected unknown selector rejection")
	}
}

func TestCompileConditionKinds(t *testing.T) {
	cond, err := compileCondition(conditionRecord{Kind: "intermission_at", AtPercent: 50, DurationMs: 8000})
	if err != nil {
		t.Fatal(err)
	}
	if cond.Kind != encounter.CondIntermissionAt || cond.AtPercent != 50 || cond.DurationMs != 8000 {
		t.Fatalf("condition = %+v", cond)
	}
}
