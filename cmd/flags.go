package cmd

import "github.com/urfave/cli"

// Flags shared by all render commands.
func renderFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "load render options from a TOML file; flags override its values",
		},
		cli.IntFlag{
			Name:  "width",
			Value: 512,
			Usage: "frame width",
		},
		cli.IntFlag{
			Name:  "height",
			Value: 512,
			Usage: "frame height",
		},
		cli.IntFlag{
			Name:  "spp",
			Value: 16,
			Usage: "samples per pixel",
		},
		cli.IntFlag{
			Name:  "num-bounces",
			Value: 5,
			Usage: "max number of bounces per path",
		},
		cli.IntFlag{
			Name:  "rr-bounces",
			Value: 3,
			Usage: "min bounces before applying russian roulette; 0 disables it",
		},
		cli.Float64Flag{
			Name:  "exposure",
			Value: 1.0,
			Usage: "camera exposure for tone-mapping",
		},
		cli.IntFlag{
			Name:  "tracers",
			Value: 1,
			Usage: "number of tracers sharing the frame",
		},
		cli.IntFlag{
			Name:  "workers",
			Value: 4,
			Usage: "number of workers per tracer",
		},
		cli.IntFlag{
			Name:  "batch-size",
			Usage: "paths processed by each worker in one go; 0 splits dispatches evenly",
		},
		cli.Int64Flag{
			Name:  "seed",
			Value: 1,
			Usage: "random number generator seed",
		},
		cli.BoolFlag{
			Name:  "no-jitter",
			Usage: "trace primary rays through pixel centers",
		},
		cli.StringFlag{
			Name:  "scheduler",
			Value: "perfect",
			Usage: "block scheduler (naive, perfect)",
		},
		cli.StringFlag{
			Name:  "out, o",
			Value: "frame.png",
			Usage: "image filename for the rendered frame",
		},
	}
}

// Flags for the sequence render command.
func sequenceFlags() []cli.Flag {
	return append(renderFlags(),
		cli.IntFlag{
			Name:  "frames",
			Value: 36,
			Usage: "number of frames to render",
		},
		cli.Float64Flag{
			Name:  "degrees",
			Value: 360,
			Usage: "total camera orbit angle in degrees",
		},
	)
}

// The render and scene commands.
func Commands() []cli.Command {
	return []cli.Command{
		{
			Name:  "render",
			Usage: "render scene",
			Subcommands: []cli.Command{
				{
					Name:        "frame",
					Usage:       "render single frame",
					Description: `Render a single frame and save it as a PNG image.`,
					ArgsUsage:   "scene_file",
					Flags:       renderFlags(),
					Action:      RenderFrame,
				},
				{
					Name:  "sequence",
					Usage: "render a camera orbit sequence",
					Description: `
Render a sequence of frames while orbiting the camera around its look-at point.
Frames are saved as numbered PNG images derived from the --out flag.`,
					ArgsUsage: "scene_file",
					Flags:     sequenceFlags(),
					Action:    RenderSequence,
				},
				{
					Name:  "watch",
					Usage: "re-render the scene whenever its file changes",
					Description: `
Render a single frame and keep re-rendering it each time the scene file is
modified. Runs until interrupted.`,
					ArgsUsage: "scene_file",
					Flags:     renderFlags(),
					Action:    RenderWatch,
				},
			},
		},
		{
			Name:  "scene",
			Usage: "scene tools",
			Subcommands: []cli.Command{
				{
					Name:  "compile",
					Usage: "compile text scene representation into a binary compressed format",
					Description: `
Parse scene definitions from wavefront obj or yaml files and write them to zip
archives which can be supplied as an argument to the render commands.`,
					ArgsUsage: "scene_file1.obj scene_file2.yaml ...",
					Action:    CompileScene,
				},
				{
					Name:      "info",
					Usage:     "print scene statistics",
					ArgsUsage: "scene_file",
					Action:    ShowSceneInfo,
				},
			},
		},
	}
}
