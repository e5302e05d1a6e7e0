// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/clawdhub/registry/pkg/cli"
)

func main() {
	if err := cli.New().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
