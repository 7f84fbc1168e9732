package mcpserver

import (
	"encoding/json"
	"fmt"

	"pagebuilder/internal/domain"
)

// parseJSON parses a JSON string into the target type.
func parseJSON(data string, target any) error {
	return json.Unmarshal([]byte(data), target)
}

// decodeArg accepts either a structured argument or a JSON string holding
// one. Clients differ in how they send nested values.
func decodeArg(args map[string]any, name string, target any) (bool, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return false, nil
	}
	if s, isString := raw.(string); isString {
		if s == "" {
			return false, nil
		}
		if err := parseJSON(s, target); err != nil {
			return false, fmt.Errorf("%s: %w", name, err)
		}
		return true, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", name, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return false, fmt.Errorf("%s: %w", name, err)
	}
	return true, nil
}

func settingsArg(args map[string]any, name string) (map[string]any, error) {
	var settings map[string]any
	if _, err := decodeArg(args, name, &settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func sectionListArg(args map[string]any, name string) (domain.SectionList, bool, error) {
	var list domain.SectionList
	ok, err := decodeArg(args, name, &list)
	if ok && list == nil {
		list = domain.SectionList{}
	}
	return list, ok, err
}

func stringsArg(args map[string]any, name string) ([]string, error) {
	var out []string
	if _, err := decodeArg(args, name, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// intArg reads a JSON number argument.
func intArg(args map[string]any, name string, fallback int) int {
	if v, ok := args[name].(float64); ok {
		return int(v)
	}
	return fallback
}
