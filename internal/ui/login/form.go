package login

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/nhle/seminar-digest/internal/credential"
)

// Credentials are the secrets collected by the login form. Empty fields
// are left untouched in the keyring.
type Credentials struct {
	MailPassword string
	APIKey       string
}

// NewForm builds the login form bound to c.
func NewForm(c *Credentials, mailAddress string) *huh.Form {
	mailDesc := "IMAP password or app password"
	if mailAddress != "" {
		mailDesc = fmt.Sprintf("Password for %s", mailAddress)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Mail Password").
				Description(mailDesc).
				EchoMode(huh.EchoModePassword).
				Value(&c.MailPassword),
			huh.NewInput().
				Title("API Key").
				Description("Key for the chat-completion endpoint").
				Placeholder("sk-...").
				EchoMode(huh.EchoModePassword).
				Value(&c.APIKey),
		).Title("Store credentials in the system keyring"),
	).WithShowHelp(true)
}

// Prompt runs the form on the terminal and returns what was entered.
func Prompt(ctx context.Context, mailAddress string) (Credentials, error) {
	var c Credentials
	if err := NewForm(&c, mailAddress).RunWithContext(ctx); err != nil {
		return Credentials{}, fmt.Errorf("running login form: %w", err)
	}
	return c, nil
}

// Setter stores one secret.
type Setter func(key, value string) error

// Save writes the non-empty credentials with set, which defaults to the
// system keyring. It returns the keys written.
func Save(c Credentials, set Setter) ([]string, error) {
	if set == nil {
		set = credential.Set
	}

	pairs := []struct{ key, value string }{
		{credential.KeyMailPassword, c.MailPassword},
		{credential.KeyAPIKey, c.APIKey},
	}

	var saved []string
	for _, p := range pairs {
		v := strings.TrimSpace(p.value)
		if v == "" {
			continue
		}
		if err := set(p.key, v); err != nil {
			return saved, err
		}
		saved = append(saved, p.key)
	}
	return saved, nil
}
