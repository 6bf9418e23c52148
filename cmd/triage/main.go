// Package main is the entry point for the PawSense triage service.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	triage "github.com/pawsense/triage/internal/triage"
)

func main() {
	triage.NewApp().Run()
}
