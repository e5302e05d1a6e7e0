// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/clawdhub/registry/pkg/bootstrap"
	"github.com/clawdhub/registry/pkg/log"
)

func main() {
	server, err := bootstrap.NewServer()
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Warnf("Received signal %v, shutting down...", sig)
		server.Stop()
	}()

	if err := server.Start(); err != nil {
		log.Fatalf("Server exited: %v", err)
	}
}
