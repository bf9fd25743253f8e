package activationkey

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"keyregistry/internal/models"
)

// ReactivationPrefix marks keys bound to an already registered server.
const ReactivationPrefix = "re-"

var badChars = []string{",", `"`}

// GenerateKey returns a random key: a version 4 UUID without dashes.
// Collisions are not checked here; ValidateKeyName is the uniqueness gate.
func GenerateKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// hasInvalidChars reports whether key contains a disallowed character.
func hasInvalidChars(key string) bool {
	for _, c := range badChars {
		if strings.Contains(key, c) {
			return true
		}
	}
	return false
}

// normalizeKey trims a caller supplied key and drops embedded spaces.
func normalizeKey(key string) string {
	return strings.ReplaceAll(strings.TrimSpace(key), " ", "")
}

// KeySanitizer applies organization specific formatting to a key name.
type KeySanitizer interface {
	Sanitize(org *models.Organization, key string) string
}

// OrgPrefixSanitizer prefixes keys with "<org id>-" so key names from
// different organizations cannot collide.
type OrgPrefixSanitizer struct{}

func (OrgPrefixSanitizer) Sanitize(org *models.Organization, key string) string {
	if org == nil {
		return key
	}
	prefix := strconv.FormatInt(org.ID, 10) + "-"
	if strings.HasPrefix(key, prefix) {
		return key
	}
	return prefix + key
}

// SanitizerFunc adapts a plain function to KeySanitizer.
type SanitizerFunc func(org *models.Organization, key string) string

func (f SanitizerFunc) Sanitize(org *models.Organization, key string) string {
	return f(org, key)
}
