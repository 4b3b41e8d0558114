package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ConfigValueType defines the expected type for a configuration value.
type ConfigValueType int

const (
	TypeBool ConfigValueType = iota
	TypeInt
	TypeDuration
	TypeString
	TypeList
)

// String returns the string representation of ConfigValueType.
func (t ConfigValueType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeDuration:
		return "duration"
	case TypeString:
		return "string"
	case TypeList:
		return "list"
	default:
		return "unknown"
	}
}

// ConfigKeySchema defines a known configuration key with its expected type and validation rules.
type ConfigKeySchema struct {
	Path        string          // Key path (e.g., "changelog_file")
	Type        ConfigValueType // Expected value type for validation
	Description string          // Human-readable description for help text
	Default     interface{}     // Default value
}

// KnownKeys is the registry of all known configuration keys with their schemas.
var KnownKeys = map[string]ConfigKeySchema{
	"git_executable": {
		Path:        "git_executable",
		Type:        TypeString,
		Description: "Git command, may include leading arguments",
		Default:     "git",
	},
	"working_dir": {
		Path:        "working_dir",
		Type:        TypeString,
		Description: "Directory git runs in",
		Default:     "",
	},
	"timeout": {
		Path:        "timeout",
		Type:        TypeDuration,
		Description: "Timeout for each git command (0s disables it)",
		Default:     "0s",
	},
	"debug": {
		Path:        "debug",
		Type:        TypeBool,
		Description: "Log every git command with its output",
		Default:     false,
	},
	"changelog_file": {
		Path:        "changelog_file",
		Type:        TypeString,
		Description: "Path of the generated changelog",
		Default:     "CHANGELOG.txt",
	},
	"preserve_changes": {
		Path:        "preserve_changes",
		Type:        TypeBool,
		Description: "Keep manual edits made to the existing changelog",
		Default:     true,
	},
	"ref": {
		Path:        "ref",
		Type:        TypeString,
		Description: "Tracked ref or expression such as !(latestTag+1)",
		Default:     "HEAD",
	},
	"branch": {
		Path:        "branch",
		Type:        TypeString,
		Description: "Branch used by look-ahead expressions",
		Default:     "HEAD",
	},
	"remote": {
		Path:        "remote",
		Type:        TypeString,
		Description: "Remote used by look-ahead expressions and tag fetches",
		Default:     "origin",
	},
	"exclude_merges": {
		Path:        "exclude_merges",
		Type:        TypeBool,
		Description: "Skip merge commits when reading history",
		Default:     true,
	},
	"categories": {
		Path:        "categories",
		Type:        TypeList,
		Description: "Ordered category labels, separated by ';' or ','",
		Default:     []string{},
	},
	"nuspec_file": {
		Path:        "nuspec_file",
		Type:        TypeString,
		Description: "NuSpec manifest that receives the release notes",
		Default:     "",
	},
	"nuspec_section": {
		Path:        "nuspec_section",
		Type:        TypeString,
		Description: "Manifest section holding the releaseNotes element",
		Default:     "metadata",
	},
	"state_dir": {
		Path:        "state_dir",
		Type:        TypeString,
		Description: "Directory for history and lock files",
		Default:     "~/.gitchangelog/state",
	},
	"max_history_entries": {
		Path:        "max_history_entries",
		Type:        TypeInt,
		Description: "Maximum number of command history entries to retain",
		Default:     500,
	},
	"watch_debounce": {
		Path:        "watch_debounce",
		Type:        TypeDuration,
		Description: "Quiet period before watch mode regenerates the changelog",
		Default:     "500ms",
	},
}

// ErrUnknownKey is returned when trying to access an unknown configuration key.
type ErrUnknownKey struct {
	Key string
}

func (e ErrUnknownKey) Error() string {
	return "unknown configuration key: " + e.Key
}

// GetKeySchema returns the schema for a known configuration key.
// Returns ErrUnknownKey if the key is not in the registry.
func GetKeySchema(path string) (ConfigKeySchema, error) {
	schema, ok := KnownKeys[path]
	if !ok {
		return ConfigKeySchema{}, ErrUnknownKey{Key: path}
	}
	return schema, nil
}

// SortedKeys returns the known key names in alphabetical order.
func SortedKeys() []string {
	keys := make([]string, 0, len(KnownKeys))
	for k := range KnownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParsedValue represents a configuration value after type inference and validation.
type ParsedValue struct {
	Raw    string      // Original string input from user
	Parsed interface{} // Value converted to correct type
	Type   ConfigValueType
}

// ValidateValue validates a value against the schema for a given key.
// Returns the parsed value or an error with details about what's wrong.
func ValidateValue(key, value string) (ParsedValue, error) {
	schema, err := GetKeySchema(key)
	if err != nil {
		return ParsedValue{}, err
	}
	return validateAgainstSchema(schema, value)
}

// validateAgainstSchema validates a value against a specific schema.
func validateAgainstSchema(schema ConfigKeySchema, value string) (ParsedValue, error) {
	switch schema.Type {
	case TypeBool:
		return parseBoolValue(value)
	case TypeInt:
		return parseIntValue(value)
	case TypeDuration:
		return parseDurationValue(value)
	case TypeList:
		return parseListValue(value), nil
	case TypeString:
		return ParsedValue{Raw: value, Parsed: value, Type: TypeString}, nil
	default:
		return ParsedValue{}, fmt.Errorf("unsupported type: %v", schema.Type)
	}
}

// parseBoolValue parses and validates a boolean value.
func parseBoolValue(value string) (ParsedValue, error) {
	switch strings.ToLower(value) {
	case "true":
		return ParsedValue{Raw: value, Parsed: true, Type: TypeBool}, nil
	case "false":
		return ParsedValue{Raw: value, Parsed: false, Type: TypeBool}, nil
	default:
		return ParsedValue{}, fmt.Errorf("invalid boolean: %q (expected true or false)", value)
	}
}

// parseIntValue parses and validates an integer value.
func parseIntValue(value string) (ParsedValue, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return ParsedValue{}, fmt.Errorf("invalid integer: %q", value)
	}
	return ParsedValue{Raw: value, Parsed: n, Type: TypeInt}, nil
}

// parseDurationValue parses and validates a duration value.
func parseDurationValue(value string) (ParsedValue, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return ParsedValue{}, fmt.Errorf("invalid duration: %q (examples: 500ms, 10s, 1m)", value)
	}
	return ParsedValue{Raw: value, Parsed: d.String(), Type: TypeDuration}, nil
}

// parseListValue splits value on ';' or ','.
func parseListValue(value string) ParsedValue {
	fields := strings.FieldsFunc(value, func(r rune) bool { return r == ';' || r == ',' })
	items := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			items = append(items, f)
		}
	}
	return ParsedValue{Raw: value, Parsed: items, Type: TypeList}
}
