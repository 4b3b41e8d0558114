package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// yaml.v3 reports syntax errors as "yaml: line N: message".
var yamlLinePattern = regexp.MustCompile(`^yaml: line (\d+):(?: column (\d+):)? (.*)$`)

// ValidationError is a config problem tied to a file and, when known, to a
// position in it or to a config key.
type ValidationError struct {
	FilePath string
	Line     int
	Column   int
	Message  string
	// Field is the config key, e.g. max_history_entries.
	Field string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Line > 0:
		return fmt.Sprintf("%s:%d:%d: %s", e.FilePath, e.Line, e.Column, e.Message)
	case e.Field != "":
		return fmt.Sprintf("%s: field '%s': %s", e.FilePath, e.Field, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.FilePath, e.Message)
	}
}

// ValidateYAMLSyntax checks the YAML file at filePath before koanf loads it,
// so syntax errors carry a line number. A missing file passes.
func ValidateYAMLSyntax(filePath string) error {
	data, err := os.ReadFile(filePath)
	switch {
	case err == nil:
		return CheckYAML(data, filePath)
	case os.IsNotExist(err):
		return nil
	case os.IsPermission(err):
		return &ValidationError{FilePath: filePath, Message: "permission denied"}
	default:
		return &ValidationError{FilePath: filePath, Message: err.Error()}
	}
}

// CheckYAML checks config text read from filePath. Blank text passes.
func CheckYAML(data []byte, filePath string) error {
	if strings.TrimSpace(string(data)) == "" {
		return nil
	}

	var node yaml.Node
	err := yaml.Unmarshal(data, &node)
	if err == nil {
		return nil
	}

	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) {
		return &ValidationError{FilePath: filePath, Message: strings.Join(typeErr.Errors, "; ")}
	}
	line, column, msg := yamlPosition(err.Error())
	return &ValidationError{FilePath: filePath, Line: line, Column: column, Message: msg}
}

// yamlPosition splits a yaml.v3 error into its position and message.
// The column defaults to 1 when only the line is known.
func yamlPosition(errMsg string) (line, column int, msg string) {
	m := yamlLinePattern.FindStringSubmatch(errMsg)
	if m == nil {
		return 0, 0, strings.TrimPrefix(errMsg, "yaml: ")
	}
	line, _ = strconv.Atoi(m[1])
	column = 1
	if m[2] != "" {
		column, _ = strconv.Atoi(m[2])
	}
	return line, column, m[3]
}

// nonNegative lists the durations where a negative value makes no sense.
var nonNegative = []struct {
	key   string
	value func(*Configuration) time.Duration
}{
	{"timeout", func(c *Configuration) time.Duration { return c.Timeout }},
	{"watch_debounce", func(c *Configuration) time.Duration { return c.WatchDebounce }},
}

// ValidateConfigValues checks the merged configuration: the validate struct
// tags first, then the rules tags cannot express. Only the first problem
// is reported.
func ValidateConfigValues(cfg *Configuration, filePath string) error {
	if err := newValidator().Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return &ValidationError{
				FilePath: filePath,
				Field:    fieldErrs[0].Field(),
				Message:  describeFieldError(fieldErrs[0]),
			}
		}
		return &ValidationError{FilePath: filePath, Message: err.Error()}
	}

	for _, rule := range nonNegative {
		if rule.value(cfg) < 0 {
			return &ValidationError{FilePath: filePath, Field: rule.key, Message: "must not be negative"}
		}
	}
	if cfg.NuspecFile != "" && strings.TrimSpace(cfg.NuspecSection) == "" {
		return &ValidationError{FilePath: filePath, Field: "nuspec_section", Message: "is required when nuspec_file is set"}
	}
	return nil
}

// newValidator reports fields by their config key rather than the Go name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return "failed validation: " + fe.Tag()
	}
}
