package activationkey

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"keyregistry/internal/models"
)

func TestGenerateKey(t *testing.T) {
	hex32 := regexp.MustCompile(`^[0-9a-f]{32}$`)

	a := GenerateKey()
	b := GenerateKey()

	assert.Regexp(t, hex32, a)
	assert.Regexp(t, hex32, b)
	assert.NotContains(t, a, "-")
	assert.NotEqual(t, a, b)
}

func TestHasInvalidChars(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"1-abcdef", false},
		{"re-1-web_servers.prod", false},
		{"a,b", true},
		{`a"b`, true},
		{",", true},
		{`"quoted"`, true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, hasInvalidChars(tt.key))
		})
	}
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "webservers", normalizeKey("  web servers "))
	assert.Equal(t, "", normalizeKey("   "))
	assert.Equal(t, "abc", normalizeKey("abc"))
}

func TestOrgPrefixSanitizer(t *testing.T) {
	org := &models.Organization{ID: 7}
	s := OrgPrefixSanitizer{}

	assert.Equal(t, "7-web", s.Sanitize(org, "web"))
	assert.Equal(t, "7-web", s.Sanitize(org, "7-web"), "existing prefix is kept")
	assert.Equal(t, "7-70-web", s.Sanitize(org, "70-web"))
	assert.Equal(t, "web", s.Sanitize(nil, "web"))
}

func TestScrubNote(t *testing.T) {
	assert.Equal(t, DefaultNote, ScrubNote(""))
	assert.Equal(t, DefaultNote, ScrubNote("   "))
	assert.Equal(t, DefaultNote, ScrubNote("<script></script>"))
	assert.Equal(t, "web tier", ScrubNote("  <b>web tier</b> "))
}

func TestValidationError(t *testing.T) {
	chars := &ValidationError{Key: "a,b", Reason: ReasonInvalidChars, Chars: badChars}
	exists := &ValidationError{Key: "1-web", Reason: ReasonExists}

	assert.ErrorIs(t, chars, ErrInvalidKeyName)
	assert.ErrorIs(t, exists, ErrInvalidKeyName)
	assert.Contains(t, chars.Error(), "invalid characters")
	assert.Contains(t, exists.Error(), "already exists")
}
