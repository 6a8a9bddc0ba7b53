package validators

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/dgtt-autoecole/api-backend/internal/crypto"
)

// UUID validation regex (RFC 4122 v4)
var uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// Cookie names are RFC 6265 tokens
var cookieNameRegex = regexp.MustCompile(`^[!#$%&'*+\-.^_` + "`" + `|~0-9A-Za-z]+$`)

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsValidUUID checks if the string is a valid RFC 4122 v4 UUID
// Format: xxxxxxxx-xxxx-4xxx-yxxx-xxxxxxxxxxxx
// where x is any hex digit and y is one of 8, 9, A, or B
func IsValidUUID(uuid string) bool {
	if uuid == "" {
		return false
	}
	return uuidRegex.MatchString(strings.ToLower(uuid))
}

// ValidateUUID validates and returns an error if invalid
func ValidateUUID(uuid string, fieldName string) error {
	if uuid == "" {
		return NewValidationError(fieldName, "UUID is required")
	}
	if !IsValidUUID(uuid) {
		return NewValidationError(fieldName, "invalid UUID format (expected: xxxxxxxx-xxxx-4xxx-yxxx-xxxxxxxxxxxx)")
	}
	return nil
}

// ValidateStringLength validates string length constraints
func ValidateStringLength(value string, fieldName string, minLength, maxLength int) error {
	length := len(value)
	if minLength > 0 && length < minLength {
		return NewValidationError(fieldName, fmt.Sprintf("must be at least %d characters (got: %d)", minLength, length))
	}
	if maxLength > 0 && length > maxLength {
		return NewValidationError(fieldName, fmt.Sprintf("must be at most %d characters (got: %d)", maxLength, length))
	}
	return nil
}

// ValidateAppKey checks that the key decodes to a usable signing key
func ValidateAppKey(key string, fieldName string) error {
	if key == "" {
		return NewValidationError(fieldName, "application key is required")
	}
	if _, err := crypto.DecodeAppKey(key); err != nil {
		return NewValidationError(fieldName, err.Error())
	}
	return nil
}

// ValidatePort validates a TCP port given as a string
func ValidatePort(port string, fieldName string) error {
	if port == "" {
		return NewValidationError(fieldName, "port is required")
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return NewValidationError(fieldName, fmt.Sprintf("port must be a number between 1 and 65535 (got: %s)", port))
	}
	return nil
}

// IsValidAppEnv checks if the environment name is one we know how to run in
func IsValidAppEnv(env string) bool {
	switch env {
	case "development", "testing", "staging", "production":
		return true
	default:
		return false
	}
}

// ValidateAppEnv validates APP_ENV
func ValidateAppEnv(env string, fieldName string) error {
	if env == "" {
		return NewValidationError(fieldName, "environment is required")
	}
	if !IsValidAppEnv(env) {
		return NewValidationError(fieldName, "invalid environment (allowed: development, testing, staging, production)")
	}
	return nil
}

// ValidateDBDriver validates the database driver name
func ValidateDBDriver(driver string, fieldName string) error {
	switch driver {
	case "sqlite", "postgres":
		return nil
	case "":
		return NewValidationError(fieldName, "database driver is required")
	default:
		return NewValidationError(fieldName, "invalid database driver (allowed: sqlite, postgres)")
	}
}

// ValidateCookieName validates a cookie name
func ValidateCookieName(name string, fieldName string) error {
	if name == "" {
		return NewValidationError(fieldName, "cookie name is required")
	}
	if !cookieNameRegex.MatchString(name) {
		return NewValidationError(fieldName, "cookie name contains invalid characters")
	}
	return nil
}

// ValidateOrigin validates a CORS origin (scheme://host[:port], or "*")
func ValidateOrigin(origin string, fieldName string) error {
	if origin == "*" {
		return nil
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return NewValidationError(fieldName, fmt.Sprintf("invalid origin %q (expected: http(s)://host[:port])", origin))
	}
	if u.Path != "" && u.Path != "/" {
		return NewValidationError(fieldName, fmt.Sprintf("origin %q must not contain a path", origin))
	}
	return nil
}
