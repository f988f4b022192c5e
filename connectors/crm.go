package connectors

import (
	"context"
	"net/url"
)

// Account is the CRM record for a caller.
type Account struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name,omitempty"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
}

// CRM looks up caller accounts.
type CRM struct {
	client *client
}

// NewCRM creates the CRM connector. Without a configured base URL it stays
// in mock mode.
func NewCRM(cfg *Config) *CRM {
	if cfg.CRM.BaseURL == "" {
		return &CRM{}
	}
	return &CRM{client: newClient(cfg.CRM)}
}

// LookupAccount fetches the account record for an account ID or phone number.
func (c *CRM) LookupAccount(ctx context.Context, accountID string) (*Account, error) {
	if c.client == nil {
		return &Account{
			AccountID: accountID,
			Status:    "active",
			Message:   "Account is in good standing.",
		}, nil
	}

	var acct Account
	query := url.Values{"identifier": {accountID}}
	if err := c.client.getJSON(ctx, "crm.lookup_account", "/customers/lookup", query, &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}
