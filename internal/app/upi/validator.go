// Package upi valida UPI ids (username@provider).
package upi

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	MaxUsernameLength = 100
	minUsernameLength = 3

	// MaxIDLength es el tope del input en Discord: username máximo + '@' + provider.
	MaxIDLength = MaxUsernameLength + 50
)

// handles conocidos de PSPs / bancos
var knownProviders = map[string]struct{}{
	"okhdfcbank": {}, "okaxis": {}, "oksbi": {}, "okicici": {}, "paytm": {}, "ybl": {},
	"ibl": {}, "axl": {}, "barodampay": {}, "kaypay": {}, "cnrb": {}, "idfcbank": {},
	"waicici": {}, "waaxis": {}, "wahdfcbank": {}, "wasbi": {}, "myicici": {},
	"rbl": {}, "hdfcbank": {}, "axisbank": {}, "icici": {}, "sbi": {}, "yesbank": {},
	"upi": {}, "myhdfc": {}, "mysbi": {}, "myaxis": {}, "mykotak": {}, "apl": {},
}

var (
	reUsername = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

	providerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^(ok|wa|my)?[a-z]{3,}bank$`),
		regexp.MustCompile(`^(paytm|ybl|ibl|axl|apl)$`),
		regexp.MustCompile(`^upi$`),
	}

	reProviderSyntax = regexp.MustCompile(`^[a-z0-9.-]+$`)
)

const (
	ErrMissingAt     = "UPI ID must contain '@' symbol"
	ErrInvalidFormat = "Invalid UPI format"
)

type Result struct {
	Valid    bool
	Error    string
	Warnings []string
}

func invalid(msg string) Result { return Result{Valid: false, Error: msg} }

// Validate aplica las reglas en orden; la primera que falla gana.
// Los warnings no invalidan: el caller tiene que mostrar ambos.
func Validate(id string) Result {
	if id == "" || !strings.Contains(id, "@") {
		return invalid(ErrMissingAt)
	}
	if strings.Count(id, "@") != 1 {
		return invalid(ErrInvalidFormat)
	}
	username, provider, _ := strings.Cut(id, "@")

	if msg := ValidateUsername(username); msg != "" {
		return invalid(msg)
	}

	warning, msg := validateProvider(strings.ToLower(provider))
	if msg != "" {
		return invalid(msg)
	}

	res := Result{Valid: true}
	if warning != "" {
		res.Warnings = append(res.Warnings, warning)
	}
	return res
}

// ValidateUsername devuelve "" si la parte antes de '@' es válida.
func ValidateUsername(username string) string {
	switch {
	case username == "":
		return "Username cannot be empty"
	case len(username) < minUsernameLength:
		return "Username must be at least 3 characters"
	case len(username) > MaxUsernameLength:
		return fmt.Sprintf("Username too long (max %d characters)", MaxUsernameLength)
	case strings.HasPrefix(username, ".") || strings.HasSuffix(username, "."):
		return "Username cannot start or end with dot"
	case strings.Contains(username, ".."):
		return "Username cannot contain consecutive dots"
	case !reUsername.MatchString(username):
		return "Username can only contain letters, numbers, dots, underscores, hyphens"
	}
	return ""
}

func validateProvider(provider string) (warning, errMsg string) {
	if provider == "" {
		return "", "Provider cannot be empty"
	}
	if len(provider) < 2 {
		return "", "Provider name too short"
	}
	if _, ok := knownProviders[provider]; ok {
		return "", ""
	}
	for _, re := range providerPatterns {
		if re.MatchString(provider) {
			return "", ""
		}
	}
	if !reProviderSyntax.MatchString(provider) {
		return "", "Invalid provider"
	}
	return fmt.Sprintf("Unknown provider '%s'. Please verify it's correct.", provider), ""
}
