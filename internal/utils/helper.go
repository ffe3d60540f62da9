package utils

import (
	"log/slog"
	"os"
	"regexp"
)

var (
	// ?token=xxx, &access_token=xxx, &accessToken=xxx, &key=xxx
	tokenParamPattern = regexp.MustCompile(`([?&])(access[_\-]?[tT]oken|token|key)=([^&\s"]+)`)
	// token: xxx request headers
	tokenHeaderPattern = regexp.MustCompile(`(?i)\b(token|access-token):\s*([^\s"]+)`)
	bearerPattern      = regexp.MustCompile(`Bearer\s+([A-Za-z0-9_\-\.]+)`)
)

// MaskSensitiveData masks access tokens in URLs, headers and error messages
func MaskSensitiveData(s string) string {
	if s == "" {
		return s
	}

	s = tokenParamPattern.ReplaceAllString(s, `${1}${2}=***MASKED***`)
	s = tokenHeaderPattern.ReplaceAllString(s, `${1}: ***MASKED***`)
	s = bearerPattern.ReplaceAllString(s, `Bearer ***MASKED***`)

	if token := os.Getenv("VJMAP_ACCESS_TOKEN"); len(token) >= 8 {
		s = regexp.MustCompile(regexp.QuoteMeta(token)).ReplaceAllString(s, "***MASKED***")
	}

	return s
}

// MaskSensitiveError wraps an error and masks sensitive data when the error is converted to string
func MaskSensitiveError(err error) error {
	if err == nil {
		return nil
	}
	return &maskedError{err: err}
}

type maskedError struct {
	err error
}

func (e *maskedError) Error() string {
	return MaskSensitiveData(e.err.Error())
}

func (e *maskedError) Unwrap() error {
	return e.err
}

func ExitOnError(msg string, err error) {
	slog.Error(msg, "err", MaskSensitiveError(err))
	os.Exit(1)
}
