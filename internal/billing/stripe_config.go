package billing

import (
	"errors"
	"strings"
)

// StripeConfig contains configuration for the Stripe provider.
type StripeConfig struct {
	// APIKey is the Stripe secret key (sk_test_... or sk_live_...)
	APIKey string

	// WebhookSecret is the webhook signing secret (whsec_...)
	// Used to verify webhook signatures from Stripe.
	WebhookSecret string

	// TimeoutSeconds is the HTTP timeout for Stripe API calls in seconds.
	// Default: 30
	TimeoutSeconds int
}

// Validate checks that required configuration is present and well-formed.
func (c *StripeConfig) Validate() error {
	if c.APIKey == "" {
		return errors.New("stripe: API key is required")
	}
	if !strings.HasPrefix(c.APIKey, "sk_test_") && !strings.HasPrefix(c.APIKey, "sk_live_") {
		return errors.New("stripe: API key must be a secret key (sk_test_... or sk_live_...)")
	}
	if c.WebhookSecret == "" {
		return errors.New("stripe: webhook secret is required")
	}
	if !strings.HasPrefix(c.WebhookSecret, "whsec_") {
		return errors.New("stripe: webhook secret must start with whsec_")
	}
	return nil
}

// IsTestMode returns true if using test mode API keys.
func (c *StripeConfig) IsTestMode() bool {
	return strings.HasPrefix(c.APIKey, "sk_test_")
}
