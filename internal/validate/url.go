package validate

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// URL validation errors
var (
	ErrInvalidURL       = errors.New("invalid URL format")
	ErrDisallowedScheme = errors.New("URL scheme not allowed")
)

// maxListingURLLength bounds stored listing URLs.
const maxListingURLLength = 2048

// ListingURL validates a rental listing URL: http or https, a hostname, and a
// sane length. The scraper that fetches listing pages runs elsewhere and
// applies its own SSRF checks; here we only keep obviously broken values out
// of storage.
func ListingURL(urlStr string) (string, error) {
	urlStr = strings.TrimSpace(urlStr)
	if urlStr == "" {
		return "", ErrEmpty
	}
	if len(urlStr) > maxListingURLLength {
		return "", fmt.Errorf("%w: URL exceeds %d characters", ErrStringTooLong, maxListingURLLength)
	}

	parsed, err := url.Parse(urlStr)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("%w: got %q", ErrDisallowedScheme, parsed.Scheme)
	}
	if parsed.Hostname() == "" {
		return "", fmt.Errorf("%w: missing hostname", ErrInvalidURL)
	}

	return urlStr, nil
}
