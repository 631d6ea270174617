package auth

import (
	"errors"
	"strings"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const MFAIssuer = "HR Access"

var (
	ErrMFARequired = errors.New("mfa code required")
	ErrMFAInvalid  = errors.New("invalid mfa code")
)

type MFAEnrollment struct {
	Secret string `json:"secret"`
	URL    string `json:"otpauthUrl"`
}

func GenerateMFASecret(accountName string) (MFAEnrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      MFAIssuer,
		AccountName: accountName,
		Period:      30,
		Digits:      otp.DigitsSix,
	})
	if err != nil {
		return MFAEnrollment{}, err
	}
	return MFAEnrollment{Secret: key.Secret(), URL: key.URL()}, nil
}

func ValidateMFACode(code, secret string) bool {
	code = strings.TrimSpace(code)
	if code == "" || secret == "" {
		return false
	}
	return totp.Validate(code, secret)
}

// CheckMFA is a no-op for accounts without MFA. Enabled accounts must present a
// code valid for secret.
func CheckMFA(enabled bool, secret, code string) error {
	if !enabled {
		return nil
	}
	if strings.TrimSpace(code) == "" {
		return ErrMFARequired
	}
	if !ValidateMFACode(code, secret) {
		return ErrMFAInvalid
	}
	return nil
}
