// Package auth stores secrets in the system credential store: the remote
// store API token and the local database encryption key.
package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	defaultSecretService = "paydown"
	tokenSecretUser      = "remote_token"
	dbKeySecretUser      = "db_key"
)

var (
	keyringGet = keyring.Get
	keyringSet = keyring.Set
)

// LoadToken loads the remote store API token.
//
// Order of precedence:
// 1) PAYDOWN_TOKEN environment variable.
// 2) System credential store item referenced by service/account.
func LoadToken() (string, error) {
	if token := strings.TrimSpace(os.Getenv("PAYDOWN_TOKEN")); token != "" {
		return token, nil
	}

	token, err := loadFromKeyring(tokenSecretUser)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", errors.New("remote token is empty")
	}
	return token, nil
}

// SaveToken stores the remote store API token in the system credential store.
func SaveToken(token string) error {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return errors.New("remote token cannot be empty")
	}
	return saveToKeyring(tokenSecretUser, trimmed)
}

// LoadDBKey loads the local database encryption key.
func LoadDBKey() (string, error) {
	return loadFromKeyring(dbKeySecretUser)
}

// SaveDBKey stores the local database encryption key.
func SaveDBKey(key string) error {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return errors.New("db key cannot be empty")
	}
	return saveToKeyring(dbKeySecretUser, trimmed)
}

func loadFromKeyring(account string) (string, error) {
	service := envOrDefault("PAYDOWN_KEYCHAIN_SERVICE", defaultSecretService)

	secret, err := keyringGet(service, account)
	if err != nil {
		return "", fmt.Errorf(
			"failed to read keyring item service=%q account=%q: %w",
			service,
			account,
			err,
		)
	}
	return strings.TrimSpace(secret), nil
}

func saveToKeyring(account, secret string) error {
	service := envOrDefault("PAYDOWN_KEYCHAIN_SERVICE", defaultSecretService)

	if err := keyringSet(service, account, secret); err != nil {
		return fmt.Errorf(
			"failed to store keyring item service=%q account=%q: %w",
			service,
			account,
			err,
		)
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
