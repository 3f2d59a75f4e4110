//go:build mage

package main

import (
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Search builds the CLI and runs one search. QUERY and MAX override the
// defaults, e.g. QUERY="crispr off-target" MAX=10 mage search.
func Search() error {
	mg.Deps(Init, Build)

	args := []string{"search"}
	if q := os.Getenv("QUERY"); q != "" {
		args = append(args, "--search", q)
	}
	if m := os.Getenv("MAX"); m != "" {
		args = append(args, "--max", m)
	}
	return sh.RunV("./"+binDir+"/"+binName, args...)
}

// History lists recent searches from the local history database.
func History() error {
	mg.Deps(Build)
	return sh.RunV("./"+binDir+"/"+binName, "history")
}
