package service

import (
	"errors"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"construction-marketplace-api/internal/entity"
	"construction-marketplace-api/internal/repo/repo_errors"
)

const maxFreeTextLen = 2000

// translate maps repo sentinels to caller-facing kinds; anything else is an
// unexpected persistence failure.
func translate(err error, notFoundMsg string) error {
	if errors.Is(err, repo_errors.ErrNotFound) {
		return NotFound(notFoundMsg)
	}

	return Internal(err)
}

// sanitizeText trims, strips control characters and caps caller-supplied
// free text before it is persisted.
func sanitizeText(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}

		return r
	}, s)
	if len(s) > maxFreeTextLen {
		// cut on a rune boundary so a multi-byte character is never split
		cut := maxFreeTextLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}

	return s
}

func appendStatus(history []entity.StatusChange, status string, at time.Time, reason string) []entity.StatusChange {
	return append(history, entity.StatusChange{
		Status:    status,
		Timestamp: at,
		Reason:    reason,
	})
}
