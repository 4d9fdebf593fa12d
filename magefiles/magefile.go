//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

type Test mg.Namespace

// Runs the unit tests of every package.
func (Test) Unit() error {
	return sh.RunV("go", "test", "./...")
}

// Runs the unit tests with the debug_lifetime tag, which validates allocator state after every
// mutation.
func (Test) Validated() error {
	return sh.RunV("go", "test", "-tags", "debug_lifetime", "./...")
}

// Runs the unit tests under the race detector.
func (Test) Race() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Regenerates the gomock mocks.
func Mocks() error {
	fmt.Println("Generating mocks...")
	return sh.RunV("go", "generate", "./...")
}

type Run mg.Namespace

// Runs the SDL2 demo. Set LIFETIME_CONFIG to a TOML file to override the defaults.
func (Run) Demo() error {
	args := []string{"run", "./cmd/lifetime-demo"}
	if path := os.Getenv("LIFETIME_CONFIG"); path != "" {
		args = append(args, "-config", path)
	}

	return sh.RunV("go", args...)
}

// Runs the SDL2 demo with the Khronos validation layer enabled.
func (Run) Validated() error {
	return sh.RunV("go", "run", "./cmd/lifetime-demo", "-validation")
}
