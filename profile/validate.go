package profile

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// ErrValidation is matched by every profile validation failure.
var ErrValidation = errors.New("bag profile validation failure")

// systemGenerated lists fields written by the packaging step itself.
// They are never validated, whatever the profile says about them.
var systemGenerated = map[string]struct{}{
	"Bagging-Date":             {},
	"Bag-Size":                 {},
	"Payload-Oxum":             {},
	"BagIt-Profile-Identifier": {},
}

// IsSystemGenerated reports whether field is written by the packaging step
// and therefore exempt from validation.
func IsSystemGenerated(field string) bool {
	_, ok := systemGenerated[field]
	return ok
}

// SystemGeneratedFields returns the exempt field names in lexical order.
func SystemGeneratedFields() []string {
	names := make([]string, 0, len(systemGenerated))
	for name := range systemGenerated {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ValidationError lists every violation found in one section.
type ValidationError struct {
	Section    string
	Violations []string
}

func (e *ValidationError) Error() string {
	return "Bag profile validation failure: The following errors occurred in the " +
		e.Section + ":\n" + strings.Join(e.Violations, "\n")
}

// Unwrap makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ValidateOption configures Validate.
type ValidateOption func(*validateConfig)

type validateConfig struct {
	logger *slog.Logger
}

// WithLogger receives a warning for every missing recommended field.
// By default warnings are discarded.
func WithLogger(logger *slog.Logger) ValidateOption {
	return func(cfg *validateConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// Validate checks fields, the values of one tag file section, against rules.
//
// Rules are evaluated in lexical field order. System-generated fields are
// skipped. A present field whose rule lists allowed values must hold one
// of them; an absent required field is a violation; an absent recommended
// field only produces a warning. All violations are collected into a single
// *ValidationError. A nil rules section always passes.
func Validate(section string, rules Section, fields map[string]string, opts ...ValidateOption) error {
	if rules == nil {
		return nil
	}
	cfg := validateConfig{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&cfg)
	}

	var violations []string
	for _, name := range rules.FieldNames() {
		if IsSystemGenerated(name) {
			cfg.logger.Debug("skipping system generated field", slog.String("field", name))
			continue
		}

		rule := rules[name]
		if value, ok := fields[name]; ok {
			if len(rule.Values) > 0 && !slices.Contains(rule.Values, value) {
				violations = append(violations, fmt.Sprintf(`"%s" is not valid for "%s". Valid values: %s`,
					value, name, strings.Join(rule.Values, ",")))
			}
		} else if rule.Required {
			violations = append(violations, fmt.Sprintf(`"%s" is a required field.`, name))
		} else if rule.Recommended {
			cfg.logger.Warn(fmt.Sprintf("%s does not contain the recommended field %s", section, name),
				slog.String("section", section),
				slog.String("field", name))
		}
	}

	if len(violations) > 0 {
		return &ValidationError{Section: section, Violations: violations}
	}
	return nil
}
