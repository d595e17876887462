// Package main is the entry point for the padelmetrics CLI tool, which loads
// a padel match log and computes per-teammate, per-location, per-hour and
// per-opponent performance with a win probability score.
package main

import "github.com/pable/go-padel-metrics/cmd"

func main() {
	cmd.Execute()
}
