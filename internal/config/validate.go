// internal/config/validate.go
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/tamzrod/sign-controller/internal/status"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report yaml key paths, not Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("valid", validateEnum)
	return v
}

// validateEnum accepts closed protocol enums that know their own range.
func validateEnum(fl validator.FieldLevel) bool {
	e, ok := fl.Field().Interface().(interface{ Valid() bool })
	return ok && e.Valid()
}

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return &ConfigurationError{Err: errors.New("missing configuration")}
	}

	// ------------------------------------------------------------
	// FIELD RULES (TAGS)
	// ------------------------------------------------------------

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fieldError(verrs[0])
		}
		return &ConfigurationError{Err: err}
	}

	// ------------------------------------------------------------
	// STATUS BLOCK (OPT-IN)
	// ------------------------------------------------------------

	if cfg.Status.Enabled {
		// device_name sanity (ASCII only)
		for i := 0; i < len(cfg.Status.DeviceName); i++ {
			if cfg.Status.DeviceName[i] > 0x7F {
				return &ConfigurationError{
					Field: "status.device_name",
					Err:   errors.New("must contain ASCII characters only"),
				}
			}
		}

		end := (uint32(cfg.Status.Slot) + 1) * status.SlotsPerDevice
		if end > 1<<16 {
			return &ConfigurationError{
				Field: "status.slot",
				Err:   fmt.Errorf("slot %d does not fit the register space", cfg.Status.Slot),
			}
		}
	}

	// ------------------------------------------------------------
	// DISPLAY POLICY
	// ------------------------------------------------------------

	// Everything the scheduler needs must encode before anything is sent.
	if err := cfg.Policy().Validate(); err != nil {
		return &ConfigurationError{Err: err}
	}

	return nil
}

func fieldError(fe validator.FieldError) error {
	return &ConfigurationError{
		Field: fieldPath(fe.Namespace()),
		Err:   errors.New(formatFieldError(fe)),
	}
}

// fieldPath turns "Config.offline_messages[0].Attributes.color" into
// "offline_messages[0].color".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		ns = rest
	}
	return strings.ReplaceAll(ns, ".Attributes", "")
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if", "required_with":
		return "is required"
	case "valid":
		return fmt.Sprintf("unknown value %v", fe.Value())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "ltfield":
		return fmt.Sprintf("must be less than %s", strings.ToLower(fe.Param()))
	case "hexadecimal":
		return "must be hexadecimal"
	case "hostname_port":
		return fmt.Sprintf("%q is not host:port", fe.Value())
	case "url":
		return fmt.Sprintf("%q is not a url", fe.Value())
	case "printascii":
		return "must contain printable ASCII only"
	case "excludesall":
		return fmt.Sprintf("must not contain any of %q", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
