package auth

import (
	"fmt"

	"github.com/pquerna/otp/totp"
)

type TOTPKey struct {
	Secret string
	URL    string
}

// GenerateTOTP creates a new shared secret for an authenticator app.
func GenerateTOTP(issuer, account string) (*TOTPKey, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
	})
	if err != nil {
		return nil, fmt.Errorf("generating totp key: %w", err)
	}
	return &TOTPKey{Secret: key.Secret(), URL: key.URL()}, nil
}

func ValidateTOTP(code, secret string) bool {
	if code == "" || secret == "" {
		return false
	}
	return totp.Validate(code, secret)
}
