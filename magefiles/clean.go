//go:build mage

package main

import "github.com/magefile/mage/mg"

// Clean normalizes raw wikitext records into plain prose.
// See prd002-cleanup for full requirements.
func Clean() error {
	mg.Deps(Build)
	return runBin("clean")
}
