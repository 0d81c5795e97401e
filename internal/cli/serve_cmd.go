// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jeranaias/rigrun-ide/internal/server"
)

// shutdownTimeout bounds graceful shutdown of "serve".
const shutdownTimeout = 10 * time.Second

// HandleServe handles "serve [--host H] [--port N]". It blocks until
// env.Interrupt fires or the listener fails.
//
// Edits to the config file rebuild the provider and router without a
// restart. The [server] section is read once at startup.
func HandleServe(env *Env, args Args) error {
	a, err := openApp(env, args)
	if err != nil {
		return err
	}
	defer a.close()

	sc := a.cfg.Server
	port, err := args.Parser.FlagInt("port", sc.Port)
	if err != nil {
		return err
	}
	if port < 1 || port > 65535 {
		return NewValidationError("port", fmt.Sprint(port), "must be between 1 and 65535")
	}

	srv := server.New(a.router, server.Options{
		Host:           args.Parser.FlagOrDefault("host", sc.Host),
		Port:           port,
		BearerToken:    sc.BearerToken,
		AllowedOrigins: sc.AllowedOrigins,
		RateLimitRPS:   sc.RateLimitRPS,
		RateLimitBurst: sc.RateLimitBurst,
		Health:         a.provider.Health(),
		Version:        Version,
	})

	if sc.BearerToken == "" && !isLoopbackHost(args.Parser.FlagOrDefault("host", sc.Host)) {
		fmt.Fprintf(env.Stderr, "%s serving on a non-loopback address without a bearer token\n",
			WarningStyle.Render("Warning:"))
	}
	fmt.Fprintf(env.Stderr, "Listening on http://%s\n", srv.Addr())

	watcher, err := watchConfig(a.store.Path(), configReloadDebounce, func() {
		reloadServer(a, srv)
	})
	if err != nil {
		fmt.Fprintf(env.Stderr, "%s config reload disabled: %v\n", WarningStyle.Render("Warning:"), err)
	} else {
		defer watcher.Close()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return NewCommandError("serve", "listen", srv.Addr(), err)
		}
		return nil
	case sig := <-env.Interrupt:
		log.Printf("SERVER_SIGNAL | signal=%v", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return NewCommandError("serve", "shutdown", "graceful shutdown failed", err)
	}
	return <-errCh
}

// reloadServer rebuilds the routing stack from the config file and swaps it
// into srv. A config that fails to load leaves the running stack in place.
func reloadServer(a *app, srv *server.Server) {
	r, health, err := a.reload()
	if err != nil {
		log.Printf("CONFIG_RELOAD_FAILED | path=%s error=%v", a.store.Path(), err)
		return
	}
	srv.Swap(r, health)
	log.Printf("CONFIG_RELOAD | path=%s", a.store.Path())
}

func isLoopbackHost(host string) bool {
	switch host {
	case "127.0.0.1", "::1", "localhost":
		return true
	}
	return false
}
