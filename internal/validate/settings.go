package validate

import (
	"fmt"
	"math"
)

// WorkflowConfig is the typed form of a workflow's config mapping.
type WorkflowConfig struct {
	FPS      float64
	Agents   int
	Focus    string
	Language string
}

// WorkflowSettings checks a decoded workflow config mapping and returns its
// typed form. fps, agents and focus are required; language is optional and
// checked separately by Language when transcription runs.
func WorkflowSettings(raw map[string]any) (WorkflowConfig, error) {
	var out WorkflowConfig
	if raw == nil {
		return out, fail("config", "workflow config is missing")
	}
	for _, field := range []string{"fps", "agents", "focus"} {
		if _, ok := raw[field]; !ok {
			return out, fail("config", "workflow config missing required field: %s", field)
		}
	}

	fps, ok := asFloat(raw["fps"])
	if !ok {
		return out, fail("fps", "must be numeric, got %s", typeName(raw["fps"]))
	}
	if err := FPS(fps); err != nil {
		return out, err
	}

	agents, ok := asInt(raw["agents"])
	if !ok {
		return out, fail("agents", "must be integer, got %s", typeName(raw["agents"]))
	}
	if err := Agents(agents); err != nil {
		return out, err
	}

	focus, ok := raw["focus"].(string)
	if !ok {
		return out, fail("focus", "must be string, got %s", typeName(raw["focus"]))
	}
	if err := Focus(focus); err != nil {
		return out, err
	}

	out = WorkflowConfig{FPS: fps, Agents: agents, Focus: focus}
	if value, present := raw["language"]; present && value != nil {
		lang, ok := value.(string)
		if !ok {
			return out, fail("language", "must be string, got %s", typeName(value))
		}
		out.Language = lang
	}
	return out, nil
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}

func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		if v > math.MaxInt32 || v < math.MinInt32 {
			return 0, false
		}
		return int(v), true
	case uint64:
		if v > math.MaxInt32 {
			return 0, false
		}
		return int(v), true
	default:
		return 0, false
	}
}

func typeName(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case float32, float64:
		return "float"
	case int, int64, uint64:
		return "integer"
	case []any:
		return "list"
	case map[string]any:
		return "mapping"
	default:
		return fmt.Sprintf("%T", value)
	}
}
