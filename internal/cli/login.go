// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// login.go - Login/logout command implementations.
//
// Command: login [email] [--token <token>]
// Short:   Request a sign-in link or store a session token
//
// Examples:
//   tradeline login you@example.com   Email a sign-in link
//   tradeline login --token <token>   Store the token from the link
//   tradeline logout                  Remove stored credentials
//
// Sign-in is a two-step flow: request a magic link for an email
// address, then store the session token carried by that link.
package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tradeline/tradeline-tui/internal/api"
	"github.com/tradeline/tradeline-tui/internal/credstore"
	"github.com/tradeline/tradeline-tui/internal/form"
)

// HandleLogin requests a sign-in link or stores a session token.
func HandleLogin(args Args) error {
	if args.Token != "" {
		return storeToken(args)
	}
	if args.Email != "" {
		return requestLink(args)
	}
	return errors.New("usage: tradeline login <email> | tradeline login --token <token>")
}

// requestLink asks the backend to email a magic link.
func requestLink(args Args) error {
	if msg := form.ValidateEmail(args.Email); msg != "" {
		return errors.New(msg)
	}

	cfg := loadConfig(args)
	client := api.NewClient(cfg.API.BaseURL, api.Anonymous()).
		WithTimeout(time.Duration(cfg.API.TimeoutSecs) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := client.RequestMagicLink(ctx, args.Email)
	if err != nil {
		return fmt.Errorf("requesting sign-in link: %w", err)
	}

	fmt.Println(resp.Message)
	fmt.Println("Then run: tradeline login --token <token>")
	return nil
}

// storeToken encrypts and persists a session token.
func storeToken(args Args) error {
	store, err := credstore.Default()
	if err != nil {
		return fmt.Errorf("opening credential store: %w", err)
	}

	creds := api.Credentials{Token: args.Token}
	if err := store.Save(creds); err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}

	if !args.Quiet {
		fmt.Printf("Signed in (token %s)\n", creds.Fingerprint())
	}
	return nil
}

// HandleLogout removes stored credentials.
func HandleLogout(args Args) error {
	store, err := credstore.Default()
	if err != nil {
		return fmt.Errorf("opening credential store: %w", err)
	}

	if !store.Exists() {
		if !args.Quiet {
			fmt.Println("Not signed in")
		}
		return nil
	}

	if err := store.Clear(); err != nil {
		return fmt.Errorf("clearing credentials: %w", err)
	}

	if !args.Quiet {
		fmt.Println("Signed out")
	}
	return nil
}
