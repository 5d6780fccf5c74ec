package services

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/appli/internal/common"
	"github.com/google/uuid"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 128
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrInvalidInput, fmt.Sprintf(format, args...))
}

// normalizeEmail trims and lower-cases email.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid("name is required")
	}
	return name, nil
}

func validateEmail(email string) (string, error) {
	email = normalizeEmail(email)
	if !emailRe.MatchString(email) {
		return "", invalid("email is not valid")
	}
	return email, nil
}

// validatePassword enforces the account password policy: 8 to 128
// characters with at least one letter and one digit.
func validatePassword(password string) error {
	if !utf8.ValidString(password) {
		return invalid("password must be valid text")
	}

	n := utf8.RuneCountInString(password)
	if n < minPasswordLen || n > maxPasswordLen {
		return invalid("password must be %d to %d characters", minPasswordLen, maxPasswordLen)
	}

	var letter, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !letter || !digit {
		return invalid("password must contain a letter and a digit")
	}
	return nil
}

// validResumeURL accepts an absolute http(s) URL, or an upload key issued to
// userID by ResumeService.
func validResumeURL(raw, userID string) bool {
	if strings.HasPrefix(raw, resumeKeyPrefix+userID+"/") {
		return !strings.Contains(raw, "..")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func isUUID(id string) bool {
	return uuid.Validate(id) == nil
}
