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
	mg.Deps(BuildStripReadout, BuildGenSubEvents, BuildPileupScan)
	fmt.Println("Compilation finished")
	return nil
}

func BuildStripReadout() error {
	return goBuild("stripreadout", ".")
}

func BuildGenSubEvents() error {
	return goBuild("gensubevents", "./gensubevents")
}

func BuildPileupScan() error {
	return goBuild("pileupScan", "./pileupScan")
}

// Test runs the unit tests
func Test() error {
	return goCommand("test", "./...")
}

func goBuild(name string, path string) error {
	fmt.Printf("Building %s executable...\n", name)
	return goCommand("build", "-o", "./bin/"+name, path)
}

// goCommand runs the go tool with cgo enabled, hdf5 needs it
func goCommand(args ...string) error {
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
