package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wolfeidau/sessionkit/token"
)

// DecodeCmd decodes a token without verifying its signature and prints the
// claims, useful when debugging what the service issued.
type DecodeCmd struct {
	Token  string `arg:"" help:"Raw JWT string"`
	Tenant string `help:"Only show authorization for this tenant"`
}

func (c *DecodeCmd) Run(ctx context.Context, globals *Globals) error {
	tok, err := token.Decode(c.Token)
	if err != nil {
		return fmt.Errorf("failed to decode token: %w", err)
	}

	fmt.Printf("Entity:       %s\n", tok.EntityID())
	if tok.Issuer() != "" {
		fmt.Printf("Issuer:       %s\n", tok.Issuer())
	}
	fmt.Printf("Fingerprint:  %s\n", tok.Fingerprint())
	if !tok.IssuedAt().IsZero() {
		fmt.Printf("Issued:       %s\n", tok.IssuedAt().Format("2006-01-02 15:04:05"))
	}
	if tok.ExpiresAt().IsZero() {
		fmt.Println("Expires:      never")
	} else {
		fmt.Printf("Expires:      %s", tok.ExpiresAt().Format("2006-01-02 15:04:05"))
		if tok.Expired(time.Now()) {
			fmt.Print("  (expired)")
		}
		fmt.Println()
	}

	if c.Tenant != "" {
		printGrant(c.Tenant, tok.Permissions(c.Tenant), tok.Roles(c.Tenant))
		return nil
	}

	printGrant("", tok.Permissions(""), tok.Roles(""))
	for _, tenant := range tok.Tenants() {
		printGrant(tenant, tok.Permissions(tenant), tok.Roles(tenant))
	}

	return nil
}

func printGrant(tenant string, permissions, roles []string) {
	if len(permissions) == 0 && len(roles) == 0 {
		return
	}

	scope := "project"
	if tenant != "" {
		scope = fmt.Sprintf("tenant %s", tenant)
	}

	fmt.Println()
	fmt.Printf("Scope:        %s\n", scope)
	if len(permissions) > 0 {
		fmt.Printf("Permissions:  %s\n", strings.Join(permissions, ", "))
	}
	if len(roles) > 0 {
		fmt.Printf("Roles:        %s\n", strings.Join(roles, ", "))
	}
}
