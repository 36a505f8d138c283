//go:build mage

package main

import "github.com/magefile/mage/mg"

// Titles enumerates every article title from the wiki into titles.yaml.
// See prd001-scrape for full requirements.
func Titles() error {
	mg.Deps(Build)
	return runBin("titles")
}
