package engine

import (
	"fmt"
	"net"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

// Config tunes one engine instance. Defaults come from struct tags;
// PrepareConfig applies and validates them.
type Config struct {
	// ExecutionLimitPerKey caps live executions sharing one
	// (flow, origin) fingerprint. 1 blocks any trigger-driven re-entry of
	// the same flow from the same origin.
	ExecutionLimitPerKey int `yaml:"execution_limit_per_key" default:"1" validate:"gte=1"`
	// MaxStepHistory bounds the stack's step history; 0 disables the cap.
	MaxStepHistory int `yaml:"max_step_history" default:"10000" validate:"gte=0"`
	// ContentDir holds the flow/trigger/package definition files.
	ContentDir string `yaml:"content_dir"`
	// ListenAddr is the HTTP boundary address.
	ListenAddr string `yaml:"listen_addr" default:"localhost:8080" validate:"hostname_port"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()

	// hostname_port validates "host:port" with a numeric port.
	validate.RegisterValidation("hostname_port", func(fl validator.FieldLevel) bool {
		addr := fl.Field().String()
		host, port, err := net.SplitHostPort(addr)
		if err != nil || host == "" || port == "" {
			return false
		}
		_, err = net.LookupPort("tcp", port)
		return err == nil
	})
}

// PrepareConfig applies struct-tag defaults, then validates. The config
// pointer is ready for use on nil error.
func PrepareConfig(config any) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := defaults.Set(config); err != nil {
		return fmt.Errorf("failed to apply default values: %w", err)
	}
	return validateStruct(config)
}

func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			var messages []string
			for _, fieldErr := range validationErrors {
				messages = append(messages, fmt.Sprintf(
					"field '%s' failed validation (rule: %s)", fieldErr.Field(), fieldErr.Tag()))
			}
			return fmt.Errorf("validation failed:\n  - %s", strings.Join(messages, "\n  - "))
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}
