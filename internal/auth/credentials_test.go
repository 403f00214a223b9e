package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestLoadTokenUsesEnvVarFirst(t *testing.T) {
	t.Setenv("PAYDOWN_TOKEN", "  env-token  ")

	origGet := keyringGet
	defer func() { keyringGet = origGet }()

	keyringCalled := false
	keyringGet = func(service, user string) (string, error) {
		keyringCalled = true
		return "keyring-token", nil
	}

	got, err := LoadToken()
	if err != nil {
		t.Fatalf("LoadToken() unexpected error: %v", err)
	}
	if got != "env-token" {
		t.Fatalf("LoadToken() = %q, want %q", got, "env-token")
	}
	if keyringCalled {
		t.Fatal("LoadToken() called keyringGet even though PAYDOWN_TOKEN was set")
	}
}

func TestLoadTokenFallsBackToKeyring(t *testing.T) {
	t.Setenv("PAYDOWN_TOKEN", "")
	t.Setenv("PAYDOWN_KEYCHAIN_SERVICE", "svc")

	origGet := keyringGet
	defer func() { keyringGet = origGet }()

	var gotService, gotUser string
	keyringGet = func(service, user string) (string, error) {
		gotService = service
		gotUser = user
		return "  keyring-token  ", nil
	}

	got, err := LoadToken()
	if err != nil {
		t.Fatalf("LoadToken() unexpected error: %v", err)
	}
	if got != "keyring-token" {
		t.Fatalf("LoadToken() = %q, want %q", got, "keyring-token")
	}
	if gotService != "svc" || gotUser != "remote_token" {
		t.Fatalf("keyringGet called with (%q, %q), want (%q, %q)", gotService, gotUser, "svc", "remote_token")
	}
}

func TestLoadTokenReturnsErrorWhenKeyringFails(t *testing.T) {
	t.Setenv("PAYDOWN_TOKEN", "")

	origGet := keyringGet
	defer func() { keyringGet = origGet }()

	keyringGet = func(service, user string) (string, error) {
		return "", errors.New("boom")
	}

	_, err := LoadToken()
	if err == nil {
		t.Fatal("LoadToken() error = nil, want non-nil")
	}
	if !strings.Contains(err.Error(), "failed to read keyring item") {
		t.Fatalf("LoadToken() error = %q, expected keyring read context", err.Error())
	}
}

func TestLoadTokenReturnsErrorWhenTokenEmpty(t *testing.T) {
	t.Setenv("PAYDOWN_TOKEN", "")

	origGet := keyringGet
	defer func() { keyringGet = origGet }()

	keyringGet = func(service, user string) (string, error) {
		return "   ", nil
	}

	_, err := LoadToken()
	if err == nil {
		t.Fatal("LoadToken() error = nil, want non-nil")
	}
	if err.Error() != "remote token is empty" {
		t.Fatalf("LoadToken() error = %q, want %q", err.Error(), "remote token is empty")
	}
}

func TestSaveTokenSavesTrimmed(t *testing.T) {
	t.Setenv("PAYDOWN_KEYCHAIN_SERVICE", "svc")

	origSet := keyringSet
	defer func() { keyringSet = origSet }()

	var gotService, gotUser, gotSecret string
	keyringSet = func(service, user, secret string) error {
		gotService = service
		gotUser = user
		gotSecret = secret
		return nil
	}

	if err := SaveToken("  my-token  "); err != nil {
		t.Fatalf("SaveToken() unexpected error: %v", err)
	}
	if gotService != "svc" || gotUser != "remote_token" || gotSecret != "my-token" {
		t.Fatalf(
			"SaveToken() called keyringSet with (%q, %q, %q), want (%q, %q, %q)",
			gotService, gotUser, gotSecret, "svc", "remote_token", "my-token",
		)
	}
}

func TestSaveTokenRejectsEmpty(t *testing.T) {
	origSet := keyringSet
	defer func() { keyringSet = origSet }()

	called := false
	keyringSet = func(service, user, secret string) error {
		called = true
		return nil
	}

	if err := SaveToken("   "); err == nil {
		t.Fatal("SaveToken() error = nil, want non-nil")
	}
	if called {
		t.Fatal("SaveToken() called keyringSet for empty token")
	}
}

func TestSaveDBKeyUsesDBKeyAccount(t *testing.T) {
	origSet := keyringSet
	defer func() { keyringSet = origSet }()

	var gotUser string
	keyringSet = func(service, user, secret string) error {
		gotUser = user
		return nil
	}

	if err := SaveDBKey("key-material"); err != nil {
		t.Fatalf("SaveDBKey() unexpected error: %v", err)
	}
	if gotUser != "db_key" {
		t.Fatalf("keyringSet account = %q, want %q", gotUser, "db_key")
	}
}

func TestSaveDBKeyRejectsEmpty(t *testing.T) {
	origSet := keyringSet
	defer func() { keyringSet = origSet }()

	keyringSet = func(service, user, secret string) error { return nil }

	if err := SaveDBKey(""); err == nil {
		t.Fatal("SaveDBKey() error = nil, want non-nil")
	}
}
