package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aleister1102/membertrack/internal/common"
	"github.com/aleister1102/membertrack/internal/models"
	"github.com/go-playground/validator/v10"
)

// newValidator returns a validator with the application's custom rules registered.
func newValidator() *validator.Validate {
	validate := validator.New()

	_ = validate.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "trace", "debug", "info", "warn", "error", "fatal", "panic":
			return true
		default:
			return false
		}
	})

	_ = validate.RegisterValidation("logformat", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "console", "text", "json":
			return true
		default:
			return false
		}
	})

	_ = validate.RegisterValidation("mode", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case ModeOnetime, ModeAutomated, ModeReport, ModeExport:
			return true
		default:
			return false
		}
	})

	_ = validate.RegisterValidation("targetkind", func(fl validator.FieldLevel) bool {
		return models.TargetKind(fl.Field().String()).IsValid()
	})

	return validate
}

// ValidateConfig performs validation on the GlobalConfig structure.
func ValidateConfig(cfg *GlobalConfig) error {
	if err := newValidator().Struct(cfg); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) {
			messages := make([]string, 0, len(errs))
			for _, e := range errs {
				msg := fmt.Sprintf("Validation failed for '%s': rule '%s'", e.Namespace(), e.Tag())
				if e.Param() != "" {
					msg += fmt.Sprintf(" (expected: %s)", e.Param())
				}
				if e.Value() != nil && e.Value() != "" {
					msg += fmt.Sprintf(", actual: '%v'", e.Value())
				}
				messages = append(messages, msg)
			}
			return fmt.Errorf("%w: configuration validation failed:\n  %s", common.ErrInvalidConfiguration, strings.Join(messages, "\n  "))
		}
		return fmt.Errorf("%w: %w", common.ErrInvalidConfiguration, err)
	}

	return validateTargetReferences(cfg.TargetsConfig)
}

// validateTargetReferences checks that target names are unique and regions only name known targets.
func validateTargetReferences(tc TargetsConfig) error {
	var problems []string

	known := make(map[string]struct{}, len(tc.Targets))
	for _, t := range tc.Targets {
		if _, dup := known[t.Name]; dup {
			problems = append(problems, fmt.Sprintf("duplicate target name '%s'", t.Name))
		}
		known[t.Name] = struct{}{}
	}

	regionNames := make(map[string]struct{}, len(tc.Regions))
	for _, r := range tc.Regions {
		if _, dup := regionNames[r.Name]; dup {
			problems = append(problems, fmt.Sprintf("duplicate region name '%s'", r.Name))
		}
		regionNames[r.Name] = struct{}{}
		for _, member := range r.Targets {
			if _, ok := known[member]; !ok {
				problems = append(problems, fmt.Sprintf("region '%s' references unknown target '%s'", r.Name, member))
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: configuration validation failed:\n  %s", common.ErrInvalidConfiguration, strings.Join(problems, "\n  "))
	}
	return nil
}
