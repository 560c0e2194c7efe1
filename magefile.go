//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binary = "posttranslate"

// Default target to run when none is specified
var Default = Build

// Build compiles the posttranslate binary
func Build() error {
	fmt.Println("Building", binary)
	return sh.RunV("go", "build", "-o", binary, "./cmd/posttranslate")
}

// Test runs all tests
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Integration runs the tests that call real providers
func Integration() error {
	return sh.RunV("go", "test", "-count=1", "-run", "Integration", "./internal/translator/...", "./internal/models/...")
}

// Lint runs go vet
func Lint() error {
	return sh.RunV("go", "vet", "./...")
}

// Install builds and installs the binary into GOPATH/bin
func Install() error {
	mg.Deps(Test)
	return sh.RunV("go", "install", "./cmd/posttranslate")
}

// Clean removes build artifacts
func Clean() error {
	return os.RemoveAll(binary)
}
