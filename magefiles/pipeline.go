//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

// run executes the built CLI with the given subcommand and arguments.
func run(args ...string) error {
	bin := filepath.Join(binDir, binName)
	cmd := exec.Command(bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %v: %w", bin, args, err)
	}
	return nil
}

// Harvest builds the CLI and pulls recent papers into the corpus.
func Harvest() error {
	mg.Deps(Build)
	return run("harvest")
}

// Embed builds the CLI and generates embeddings for new abstracts.
func Embed() error {
	mg.Deps(Build)
	return run("embed")
}

// Serve builds the CLI and runs the HTTP API.
func Serve() error {
	mg.Deps(Build)
	return run("serve")
}
