// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve.go - Local gateway command implementation.
//
// Command: serve
// Short:   Run the local request gateway
// Aliases: gateway
//
// Examples:
//   tradeline serve                 Run on the configured port (default 8787)
//   tradeline serve --port 9000     Run on port 9000
//
// The gateway relays browser requests to the external backend,
// forwarding only the Authorization and Content-Type headers and
// normalizing upstream failures into a flat error envelope.
package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tradeline/tradeline-tui/internal/config"
	"github.com/tradeline/tradeline-tui/internal/gateway"
)

// HandleServe runs the local gateway until interrupted.
func HandleServe(args Args) error {
	cfg := loadConfig(args)

	srv := gateway.FromConfig(cfg)

	// Hot-reload: config file edits re-apply the upstream origin and rate
	// limit without a restart. A broken watcher degrades to static config.
	watcher, err := config.NewWatcher(srv.ApplyConfig)
	if err != nil {
		log.Printf("CONFIG_WATCH_UNAVAILABLE | error=%v", err)
	} else if err := watcher.Watch(); err != nil {
		log.Printf("CONFIG_WATCH_UNAVAILABLE | error=%v", err)
		watcher.Close()
	} else {
		defer watcher.Close()
	}

	if !args.Quiet {
		fmt.Printf("tradeline gateway listening on :%d\n", srv.Port())
		fmt.Printf("  Upstream: %s\n", srv.Upstream())
		fmt.Println("  Press Ctrl+C to stop")
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return fmt.Errorf("gateway: %w", err)
	case <-ctx.Done():
	}

	log.Printf("GATEWAY_SHUTDOWN | port=%d", srv.Port())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("gateway shutdown: %w", err)
	}
	return nil
}
