package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks a configuration against its struct rules.
func Validate(cfg *Config) error {
	v := validator.New()
	// Registration only fails on empty tags.
	_ = v.RegisterValidation("policy", validatePolicy)
	_ = v.RegisterValidation("identifier", validateIdentifier)

	err := v.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return formatValidationErrors(verrs)
	}
	return fmt.Errorf("validate config: %w", err)
}

func validatePolicy(fl validator.FieldLevel) bool {
	switch strings.ToLower(fl.Field().String()) {
	case "a", "b", "confidence", "weighted":
		return true
	}
	return false
}

func validateIdentifier(fl validator.FieldLevel) bool {
	return identifierRe.MatchString(fl.Field().String())
}

func formatValidationErrors(verrs validator.ValidationErrors) error {
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.TrimPrefix(e.Namespace(), "Config.")
		if e.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s (got %v)", field, e.Tag(), e.Param(), e.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s (got %v)", field, e.Tag(), e.Value()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
