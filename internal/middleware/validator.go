package middleware

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
)

// Input validation and sanitization utilities

// ErrInvalidInput marks request values rejected before reaching a service.
var ErrInvalidInput = errors.New("invalid input")

var (
	idPattern       = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	languagePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9 #+.-]{0,31}$`)
)

// ValidateURL validates a scan target and refuses loopback, private and
// link-local hosts (SSRF protection).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("%w: URL cannot be empty", ErrInvalidInput)
	}
	if len(rawURL) > 2048 {
		return fmt.Errorf("%w: URL too long", ErrInvalidInput)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: invalid URL format: %w", ErrInvalidInput, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: invalid URL scheme %q (allowed: http, https)", ErrInvalidInput, u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("%w: URL has no host", ErrInvalidInput)
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".internal") {
		return fmt.Errorf("%w: localhost/internal hosts are not allowed", ErrInvalidInput)
	}

	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
			ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
			return fmt.Errorf("%w: private or internal IP %s is not allowed", ErrInvalidInput, ip)
		}
	}

	return nil
}

// ValidateID checks a vulnerability or target identifier.
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%w: invalid id %q (alphanumeric, dash, underscore only, max 64 chars)", ErrInvalidInput, id)
	}
	return nil
}

// ValidateLanguage checks the optional target language of a remediation
// request. Empty is allowed.
func ValidateLanguage(lang string) error {
	if lang == "" {
		return nil
	}
	if !languagePattern.MatchString(lang) {
		return fmt.Errorf("%w: invalid target language %q", ErrInvalidInput, lang)
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}
