package catalog

import (
	"fmt"
	"strings"

	"github.com/truconsent/truscanner/pkg/types"
)

// validSensitivity lists the accepted sensitivity levels.
var validSensitivity = map[string]bool{
	types.SensitivityLow:      true,
	types.SensitivityMedium:   true,
	types.SensitivityHigh:     true,
	types.SensitivityCritical: true,
}

// validateSource checks the required fields of a catalog entry.
func validateSource(src catalogSource) error {
	if strings.TrimSpace(src.Name) == "" {
		return fmt.Errorf("source name is required")
	}
	if strings.TrimSpace(src.Category) == "" {
		return fmt.Errorf("source category is required")
	}
	if src.Sensitivity != "" && !validSensitivity[strings.ToLower(src.Sensitivity)] {
		return fmt.Errorf("unknown sensitivity %q", src.Sensitivity)
	}
	return nil
}

// ValidateElement checks a loaded element for consistency.
func ValidateElement(e *types.PatternElement) error {
	if e == nil {
		return fmt.Errorf("element is nil")
	}
	if e.Name == "" {
		return fmt.Errorf("element name is required")
	}
	if e.Category == "" {
		return fmt.Errorf("element %s: category is required", e.Name)
	}
	if len(e.Patterns) == 0 {
		return fmt.Errorf("element %s has no compiled patterns", e.Name)
	}
	for i, p := range e.Patterns {
		if p == nil || p.Regexp == nil {
			return fmt.Errorf("element %s: pattern %d is not compiled", e.Name, i)
		}
	}
	return nil
}
