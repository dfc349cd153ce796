package menu

import (
	"errors"
	"fmt"
	"net/url"
)

// openURL validates the provided URL before deferring to the platform-specific
// launcher.
func openURL(raw string) error {
	if raw == "" {
		return errors.New("empty url")
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}

	return launchURL(raw)
}
