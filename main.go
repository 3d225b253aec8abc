package main

import (
	"os"

	"github.com/brevdev/fleet/pkg/cmd"
)

func main() {
	command := cmd.NewDefaultFleetCommand()

	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}
