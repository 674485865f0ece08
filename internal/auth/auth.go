// Package auth stores backend API keys in the OS keychain and falls back to
// environment variables.
package auth

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/zalando/go-keyring"
	"golang.org/x/term"
)

const serviceName = "pagetrans"

// Key sources reported by GetKey.
const (
	SourceKeychain = "Keychain"
	SourceEnv      = "Environment Variable"
)

type backendKey struct {
	account string
	envVar  string
}

var backends = map[string]backendKey{
	"libretranslate": {account: "libretranslate-api-key", envVar: "LIBRETRANSLATE_API_KEY"},
	"gemini":         {account: "gemini-api-key", envVar: "GEMINI_API_KEY"},
	"openai":         {account: "openai-api-key", envVar: "OPENAI_API_KEY"},
}

// Backends returns the backend names that can hold a key.
func Backends() []string {
	return []string{"gemini", "openai", "libretranslate"}
}

// EnvVar returns the environment variable consulted for backend.
func EnvVar(backend string) string {
	return backends[backend].envVar
}

func lookup(backend string) (backendKey, error) {
	k, ok := backends[backend]
	if !ok {
		return backendKey{}, fmt.Errorf("unknown backend %q", backend)
	}
	return k, nil
}

// GetKey returns the API key for backend and where it came from. The
// keychain wins over the environment; with allowEnv false the environment
// is not consulted.
func GetKey(backend string, allowEnv bool) (string, string) {
	k, err := lookup(backend)
	if err != nil {
		return "", ""
	}
	if key, err := keyring.Get(serviceName, k.account); err == nil && strings.TrimSpace(key) != "" {
		return strings.TrimSpace(key), SourceKeychain
	}
	if allowEnv {
		if key := strings.TrimSpace(os.Getenv(k.envVar)); key != "" {
			return key, SourceEnv
		}
	}
	return "", ""
}

// SaveKey stores key for backend in the OS keychain.
func SaveKey(backend, key string) error {
	k, err := lookup(backend)
	if err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("API key is empty")
	}
	return keyring.Set(serviceName, k.account, key)
}

// DeleteKey removes the key for backend from the OS keychain.
func DeleteKey(backend string) error {
	k, err := lookup(backend)
	if err != nil {
		return err
	}
	return keyring.Delete(serviceName, k.account)
}

// GetStatus reports whether the keychain holds a key for backend.
func GetStatus(backend string) bool {
	k, err := lookup(backend)
	if err != nil {
		return false
	}
	key, err := keyring.Get(serviceName, k.account)
	return err == nil && key != ""
}

// GetEnvKey retrieves the key from environment variables only.
func GetEnvKey(backend string) (string, bool) {
	k, err := lookup(backend)
	if err != nil {
		return "", false
	}
	key := strings.TrimSpace(os.Getenv(k.envVar))
	return key, key != ""
}

// PromptForAPIKey reads a key from the terminal without echoing it.
func PromptForAPIKey(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
