package main

import (
	"fmt"
	"os"

	"github.com/achilleasa/spindle/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "spindle"
	app.Usage = "render scenes using wavefront path tracing"
	app.Version = "0.1.0"
	app.Flags = cmd.GlobalFlags()
	app.Commands = cmd.Commands()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		os.Exit(1)
	}
}
