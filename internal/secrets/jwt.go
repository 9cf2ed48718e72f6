package secrets

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups the app's secrets in the OS keychain.
const KeyringService = "sfcars"

// EnvJWTSecret overrides the keychain for headless deployments.
const EnvJWTSecret = "SFCARS_JWT_SECRET"

// JWTSecret returns the token signing key: env first, then keychain.
// When neither exists a key is generated and stored under the given account
// so tokens survive restarts.
func JWTSecret(keyringAccount string) ([]byte, error) {
	if v := strings.TrimSpace(os.Getenv(EnvJWTSecret)); v != "" {
		return []byte(v), nil
	}

	if strings.TrimSpace(keyringAccount) == "" {
		return nil, errors.New("keyring account name is empty")
	}

	if pw, err := keyring.Get(KeyringService, keyringAccount); err == nil && strings.TrimSpace(pw) != "" {
		return []byte(pw), nil
	}

	generated, err := newSecret()
	if err != nil {
		return nil, err
	}
	if err := keyring.Set(KeyringService, keyringAccount, generated); err != nil {
		return nil, err
	}
	return []byte(generated), nil
}

// SetJWTSecret replaces the stored signing key. Existing tokens stop
// verifying; callers own that rollover.
func SetJWTSecret(keyringAccount, secret string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(secret) == "" {
		return errors.New("secret is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, secret)
}

func DeleteJWTSecret(keyringAccount string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, keyringAccount)
}

func newSecret() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
