//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binLint = "golangci-lint"

// lintTargets are the package trees that ship in the prelude binary.
var lintTargets = []string{"./pkg/...", "./internal/...", "./cmd/..."}

// Vet runs go vet over the shipped packages.
func Vet() error {
	return sh.RunV(binGo, append([]string{"vet"}, lintTargets...)...)
}

// Lint runs go vet, then golangci-lint over the shipped packages.
func Lint() error {
	mg.Deps(Vet)
	return sh.RunV(binLint, append([]string{"run"}, lintTargets...)...)
}
