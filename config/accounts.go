package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PayPalAccount is a gateway account that collects payments for some properties
type PayPalAccount struct {
	Name         string   `yaml:"name"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	WebhookID    string   `yaml:"webhook_id"`
	PropertyIDs  []string `yaml:"properties"`
}

// AccountsFile is the on-disk shape of PAYPAL_ACCOUNTS_FILE
type AccountsFile struct {
	Accounts []PayPalAccount `yaml:"accounts"`
}

// LoadAccounts reads per-property PayPal accounts from a YAML file
func LoadAccounts(path string) ([]PayPalAccount, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read accounts file: %w", err)
	}
	return ParseAccounts(data)
}

// ParseAccounts decodes and validates an accounts document
func ParseAccounts(data []byte) ([]PayPalAccount, error) {
	var file AccountsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse accounts file: %w", err)
	}

	seen := make(map[string]string)
	for i, acct := range file.Accounts {
		if acct.Name == "" {
			return nil, fmt.Errorf("account %d: name is required", i+1)
		}
		if acct.ClientID == "" || acct.ClientSecret == "" {
			return nil, fmt.Errorf("account %s: client_id and client_secret are required", acct.Name)
		}
		for _, propertyID := range acct.PropertyIDs {
			if owner, ok := seen[propertyID]; ok {
				return nil, fmt.Errorf("property %s is assigned to both %s and %s", propertyID, owner, acct.Name)
			}
			seen[propertyID] = acct.Name
		}
	}
	return file.Accounts, nil
}
