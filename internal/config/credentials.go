package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Credentials is the three-field tuple needed to talk to the
// test-management API.
type Credentials struct {
	URL    string `toml:"url"`
	Email  string `toml:"email"`
	APIKey string `toml:"api_key"`
}

// secretsFile is the TOML shape of the secrets store.
type secretsFile struct {
	TestRail Credentials `toml:"testrail"`
}

// DefaultSecretsPath is where Credentials are looked for first.
const DefaultSecretsPath = "secrets.toml"

// LoadCredentials resolves API credentials from the TOML secrets file at
// path, falling back to the TESTRAIL_URL, TESTRAIL_EMAIL and
// TESTRAIL_API_KEY environment variables when the file is absent or
// incomplete.
func LoadCredentials(path string) (Credentials, error) {
	if path == "" {
		path = DefaultSecretsPath
	}

	if creds, err := readSecretsFile(path); err == nil {
		return creds, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return Credentials{}, err
	}

	creds := Credentials{
		URL:    os.Getenv("TESTRAIL_URL"),
		Email:  os.Getenv("TESTRAIL_EMAIL"),
		APIKey: os.Getenv("TESTRAIL_API_KEY"),
	}
	if creds.URL == "" || creds.Email == "" || creds.APIKey == "" {
		return Credentials{}, fmt.Errorf(
			"credentials not found: provide %s or set TESTRAIL_URL, TESTRAIL_EMAIL and TESTRAIL_API_KEY", path)
	}
	return creds, nil
}

func readSecretsFile(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, err
	}

	var sf secretsFile
	if err := toml.Unmarshal(data, &sf); err != nil {
		return Credentials{}, fmt.Errorf("parse secrets file %s: %w", path, err)
	}

	c := sf.TestRail
	if c.URL == "" || c.Email == "" || c.APIKey == "" {
		return Credentials{}, fmt.Errorf("secrets file %s: [testrail] needs url, email and api_key", path)
	}
	return c, nil
}
