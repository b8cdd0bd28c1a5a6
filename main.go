// Package main is the entry point for the pitchevents CLI tool, which
// derives soccer game events from per-frame tracking data.
package main

import "github.com/pitchside/go-pitch-events/cmd"

func main() {
	cmd.Execute()
}
