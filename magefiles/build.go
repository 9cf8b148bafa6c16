//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "prelude"
	binaryDir  = "bin"
	cmdDir     = "./cmd/prelude"
	versionVar = "github.com/mesh-intelligence/prelude/internal/cli.Version"
)

// Build compiles the prelude binary to bin/. PRELUDE_VERSION, when set, is
// stamped into the binary.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	args := []string{"build", "-v"}
	if v := strings.TrimPrefix(os.Getenv("PRELUDE_VERSION"), "v"); v != "" {
		args = append(args, "-ldflags", "-X "+versionVar+"="+v)
	}
	args = append(args, "-o", filepath.Join(binaryDir, binaryName), cmdDir)
	return sh.RunV(binGo, args...)
}
