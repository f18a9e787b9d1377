package main

import (
	"os"

	"github.com/gaborage/go-remotecurl/internal/commands"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	os.Exit(commands.Execute(version, buildTime))
}
