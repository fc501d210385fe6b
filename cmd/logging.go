package cmd

import (
	"fmt"

	"github.com/achilleasa/spindle/log"
	"github.com/urfave/cli"
)

var logger = log.New("spindle")

// Flags shared by all commands.
func GlobalFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "log-level",
			Value: "notice",
			Usage: "log verbosity (debug, info, notice, warning, error)",
		},
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
}

// Apply the log level selected by the global flags. The -v and -vv flags
// raise verbosity to at least info and debug respectively.
func setupLogging(ctx *cli.Context) error {
	level, err := log.ParseLevel(ctx.GlobalString("log-level"))
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}

	if ctx.GlobalBool("v") && level > log.Info {
		level = log.Info
	}
	if ctx.GlobalBool("vv") {
		level = log.Debug
	}

	log.SetLevel(level)
	return nil
}
