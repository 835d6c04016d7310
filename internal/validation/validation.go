// Package validation provides input validation for user-supplied fields.
package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 30
	minPasswordLen = 8
	maxPasswordLen = 128
	maxBioLen      = 140
	maxPostLen     = 280
	maxMessageLen  = 140
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_.]+$`)
var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
var languageRe = regexp.MustCompile(`^[a-zA-Z]{2}(-[a-zA-Z]{2})?$`)

// ValidateUsername checks length and the allowed character set.
func ValidateUsername(username string) error {
	if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return errors.New("username must be between 3 and 30 characters")
	}
	if !usernameRe.MatchString(username) {
		return errors.New("username may only contain letters, digits, underscores and dots")
	}
	return nil
}

// ValidateEmail checks the general shape of an email address.
func ValidateEmail(email string) error {
	if len(email) > 120 || !emailRe.MatchString(email) {
		return errors.New("invalid email address")
	}
	return nil
}

// ValidatePassword enforces minimum password strength: length plus at least
// one letter and one digit.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLen {
		return errors.New("password must be at least 8 characters")
	}
	if len(password) > maxPasswordLen {
		return errors.New("password must be at most 128 characters")
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return errors.New("password must contain at least one letter and one digit")
	}
	return nil
}

// ValidateBio checks the profile bio length.
func ValidateBio(bio string) error {
	if len(bio) > maxBioLen {
		return errors.New("bio too long (max 140 characters)")
	}
	return nil
}

// ValidatePostBody checks a post body for emptiness and length.
func ValidatePostBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return errors.New("post body must not be empty")
	}
	if len(body) > maxPostLen {
		return errors.New("post body too long (max 280 characters)")
	}
	return nil
}

// ValidateLanguage checks an optional post language tag such as "en" or
// "pt-BR". Empty means unknown and is accepted.
func ValidateLanguage(language string) error {
	if language == "" {
		return nil
	}
	if !languageRe.MatchString(language) {
		return errors.New("invalid language tag")
	}
	return nil
}

// ValidateMessageBody checks a private message body for emptiness and length.
func ValidateMessageBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return errors.New("message body must not be empty")
	}
	if len(body) > maxMessageLen {
		return errors.New("message body too long (max 140 characters)")
	}
	return nil
}
