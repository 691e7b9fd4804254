//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

// Default target to run when none is specified
// If not set, running mage will list available targets
var Default = Build

// Build compiles every executable into ./bin
func Build() error {
	mg.Deps(BuildHepmcio)
	fmt.Println("Compilation finished")
	return nil
}

// BuildHepmcio needs cgo for the HDF5 bindings; CGO_CFLAGS and CGO_LDFLAGS are
// passed through to find the HDF5 headers and libraries.
func BuildHepmcio() error {
	fmt.Println("Building hepmcio executable...")
	return goCmd("build", "-o", "./bin/hepmcio", "./hepmcio")
}

// Test runs the unit tests of every package.
func Test() error {
	fmt.Println("Running tests...")
	return goCmd("test", "./...")
}

func goCmd(args ...string) error {
	ldflags := os.Getenv("CGO_LDFLAGS")
	cflags := os.Getenv("CGO_CFLAGS")
	cmd := exec.Command("go", args...)
	cmd.Env = append(os.Environ(),
		"CGO_ENABLED=1",
		fmt.Sprintf("CGO_LDFLAGS=%s", ldflags),
		fmt.Sprintf("CGO_CFLAGS=%s", cflags))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
