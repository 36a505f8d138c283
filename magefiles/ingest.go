//go:build mage

package main

import "github.com/magefile/mage/mg"

// Ingest segments cached articles and builds the SQLite index.
// See prd004-ingest for full requirements.
func Ingest() error {
	mg.Deps(Build)
	return runBin("ingest")
}

// Resume continues an interrupted ingestion from the last checkpoint.
func Resume() error {
	mg.Deps(Build)
	return runBin("ingest", "--resume")
}
