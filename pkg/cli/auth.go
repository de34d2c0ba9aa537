package cli

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/urfave/cli/v2"
	"github.com/zalando/go-keyring"
)

const (
	apiKeyEnvVar   = "ANTHROPIC_API_KEY"
	apiKeyFileName = "anthropic_api_key"
	keyringService = "leadctl"
	keyringUser    = "anthropic_api_key"

	apiKeyPrefix = "sk-ant-"
)

var (
	authCmd = &cli.Command{
		Name:            "auth",
		HideHelpCommand: true,
		Usage:           "Store the Anthropic API key in the OS keychain",
		Action:          cmdAuth,
	}
)

func cmdAuth(c *cli.Context) error {
	fmt.Println("Paste your Anthropic API key (input is not hidden):")
	fmt.Print("> ")

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading user input: %w", err)
	}

	key := strings.TrimSpace(line)
	if key == "" {
		return fmt.Errorf("no key provided")
	}
	if !strings.HasPrefix(key, apiKeyPrefix) {
		slog.Warn("key does not look like an Anthropic API key", "expected_prefix", apiKeyPrefix)
	}

	if err = saveAPIKey(key); err != nil {
		return fmt.Errorf("saving key: %w", err)
	}

	fmt.Println("Key saved to OS keychain")
	return nil
}

func saveAPIKey(key string) error {
	if err := keyring.Set(keyringService, keyringUser, key); err != nil {
		slog.Warn("keychain unavailable, falling back to file", "error", err)
		return saveAPIKeyFile(key)
	}

	// Clean up legacy file if it exists
	legacyPath := path.Join(getHomeDir(), apiKeyFileName)
	os.Remove(legacyPath)

	return nil
}

// getAPIKey resolves the Anthropic API key: env var first, then the OS
// keychain, then the legacy key file (migrated to the keychain when found).
// Returns an empty string when no key is configured anywhere.
func getAPIKey() string {
	if key := strings.TrimSpace(os.Getenv(apiKeyEnvVar)); key != "" {
		return key
	}

	key, err := keyring.Get(keyringService, keyringUser)
	if err == nil && key != "" {
		return key
	}

	key, err = getAPIKeyFile()
	if err != nil {
		return ""
	}

	// Migrate to keychain
	if migrateErr := keyring.Set(keyringService, keyringUser, key); migrateErr == nil {
		slog.Info("migrated API key from file to OS keychain")
		legacyPath := path.Join(getHomeDir(), apiKeyFileName)
		os.Remove(legacyPath)
	}

	return key
}

func saveAPIKeyFile(key string) error {
	keyPath := path.Join(getHomeDir(), apiKeyFileName)
	return os.WriteFile(keyPath, []byte(key), fileMode)
}

func getAPIKeyFile() (string, error) {
	keyPath := path.Join(getHomeDir(), apiKeyFileName)
	b, err := os.ReadFile(keyPath)
	if err != nil {
		return "", fmt.Errorf("reading key file %s: %w", keyPath, err)
	}
	return strings.TrimSpace(string(b)), nil
}
