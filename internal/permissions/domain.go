package permissions

import (
	"fmt"
	"strings"
	"time"

	"github.com/sentinel-id/sentinel/internal/shared"
)

// Permission represents an atomic capability named <resource>:<action>.
type Permission struct {
	ID          int64
	Name        string
	Description string
	Resource    string
	Action      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Name builds the canonical permission name from resource and action.
func Name(resource, action string) string {
	return resource + ":" + action
}

// validateParts rejects resource/action values that would break the
// colon-delimited wire format, which has no escaping.
func validateParts(resource, action string) error {
	if resource == "" || action == "" {
		return fmt.Errorf("%w: resource and action are required", shared.ErrInvalidInput)
	}
	if strings.Contains(resource, ":") || strings.Contains(action, ":") {
		return fmt.Errorf("%w: resource and action must not contain ':'", shared.ErrInvalidInput)
	}
	if resource != strings.ToLower(resource) || action != strings.ToLower(action) {
		return fmt.Errorf("%w: resource and action must be lower-case", shared.ErrInvalidInput)
	}
	return nil
}
