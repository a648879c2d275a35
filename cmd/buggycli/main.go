package main

import (
	"github.com/robotalks/buggy.go/pkg/cli/sh"
	"github.com/robotalks/buggy.go/pkg/config"

	_ "github.com/robotalks/buggy.go/pkg/cli/cmds/drive"
)

//go-build: CGO_ENABLED=0

func init() {
	config.SetupFlags()
}

func main() {
	sh.Main()
}
