package main

import (
	"github.com/sectornet/routing/src/cmd/sectornet/command"
)

func main() {
	command.Execute()
}
