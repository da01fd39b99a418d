package validation

import (
	"net/url"
	"strconv"
	"strings"

	apperrors "github.com/Shocam7/WhichisViz/internal/errors"
)

// EndpointValidator checks URLs configured for remote collaborators
// (detection, planning, 3D rendering).
type EndpointValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewEndpointValidator creates a validator with default settings
func NewEndpointValidator() *EndpointValidator {
	return &EndpointValidator{
		allowedSchemes: []string{"http", "https"},
		allowedHosts:   []string{}, // empty means all hosts allowed
	}
}

// NewEndpointValidatorWithOptions creates a validator with custom options
func NewEndpointValidatorWithOptions(schemes []string, hosts []string) *EndpointValidator {
	return &EndpointValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// ValidateEndpoint validates a collaborator endpoint URL
func (v *EndpointValidator) ValidateEndpoint(endpoint string) error {
	if strings.TrimSpace(endpoint) == "" {
		return apperrors.NewValidationError("Endpoint cannot be empty", nil)
	}

	parsed, err := url.Parse(endpoint)
	if err != nil {
		return apperrors.NewValidationError("Invalid URL format", err)
	}

	if !v.isSchemeAllowed(parsed.Scheme) {
		return apperrors.NewValidationError("Endpoint scheme not allowed", nil)
	}

	if parsed.Host == "" {
		return apperrors.NewValidationError("Endpoint must have a valid host", nil)
	}

	if len(v.allowedHosts) > 0 && !v.isHostAllowed(parsed.Host) {
		return apperrors.NewValidationError("Endpoint host not allowed", nil)
	}

	// Collaborator endpoints are stored in config and logged; credentials do
	// not belong in them. API keys travel in headers.
	if parsed.User != nil {
		return apperrors.NewValidationError("Endpoint must not embed credentials", nil)
	}

	if err := validatePort(parsed.Port()); err != nil {
		return err
	}

	// A fragment is meaningless in a server-to-server POST target and almost
	// always a paste error.
	if parsed.Fragment != "" {
		return apperrors.NewValidationError("Endpoint must not have a fragment", nil)
	}

	return nil
}

// validatePort accepts an absent port (scheme default) or an explicit one in
// the valid TCP range.
func validatePort(port string) error {
	if port == "" {
		return nil
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return apperrors.NewValidationError("Endpoint port must be in 1-65535", err)
	}
	return nil
}

// isSchemeAllowed checks if the URL scheme is in the allowed list
func (v *EndpointValidator) isSchemeAllowed(scheme string) bool {
	for _, allowed := range v.allowedSchemes {
		if scheme == allowed {
			return true
		}
	}
	return false
}

// isHostAllowed checks if the URL host is in the allowed list.
// Returns true if no host restrictions are set (empty allowedHosts)
func (v *EndpointValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	for _, allowed := range v.allowedHosts {
		if host == allowed {
			return true
		}
	}
	return false
}
