// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build mage

// Package main provides build targets for the apothecary project using Mage.
//
// Usage:
//
//	mage build          Compile apothecary binary to bin/
//	mage test:all       Run all tests
//	mage test:race      Run all tests with the race detector
//	mage test:cover     Run all tests and write coverage.out
//	mage lint           Run golangci-lint
//	mage clean          Remove build artifacts
//	mage install        Install apothecary to GOPATH/bin
//	mage stats          Print Go LOC counts
package main

const (
	binGo      = "go"
	binLint    = "golangci-lint"
	binaryName = "apothecary"
	binaryDir  = "bin"
	cmdDir     = "./cmd/apothecary"
	modulePath = "github.com/mesh-intelligence/apothecary"
	coverFile  = "coverage.out"
)
