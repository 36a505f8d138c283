//go:build mage

package main

import "github.com/magefile/mage/mg"

// Scrape fetches every article's wikitext into the local cache.
// See prd001-scrape for full requirements.
func Scrape() error {
	mg.Deps(Build)
	return runBin("scrape")
}
