package cmd

import (
	"fmt"
	"os"

	"github.com/achilleasa/spindle/renderer"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli"
)

// The layout of render config files. Unset keys keep their default values.
type renderConfig struct {
	Width           *uint32  `toml:"width"`
	Height          *uint32  `toml:"height"`
	Spp             *uint32  `toml:"spp"`
	NumBounces      *uint32  `toml:"num_bounces"`
	RRBounces       *uint32  `toml:"rr_bounces"`
	Exposure        *float32 `toml:"exposure"`
	Tracers         *uint32  `toml:"tracers"`
	Workers         *uint32  `toml:"workers"`
	BatchSize       *uint32  `toml:"batch_size"`
	Seed            *uint64  `toml:"seed"`
	Jitter          *bool    `toml:"jitter"`
	Output          *string  `toml:"out"`
	SequenceFrames  *uint32  `toml:"frames"`
	SequenceDegrees *float32 `toml:"degrees"`
}

// Load a render config file.
func loadRenderConfig(filename string) (*renderConfig, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := &renderConfig{}
	if err = toml.NewDecoder(f).DisallowUnknownFields().Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", filename, err)
	}
	return cfg, nil
}

// Apply config values on top of a set of render options.
func (cfg *renderConfig) apply(opts *renderer.Options) {
	setUint32(&opts.FrameW, cfg.Width)
	setUint32(&opts.FrameH, cfg.Height)
	setUint32(&opts.SamplesPerFrame, cfg.Spp)
	setUint32(&opts.NumBounces, cfg.NumBounces)
	setUint32(&opts.MinBouncesForRR, cfg.RRBounces)
	setUint32(&opts.NumTracers, cfg.Tracers)
	setUint32(&opts.WorkersPerTracer, cfg.Workers)
	setUint32(&opts.BatchSize, cfg.BatchSize)
	if cfg.Exposure != nil {
		opts.Exposure = *cfg.Exposure
	}
	if cfg.Seed != nil {
		opts.Seed = *cfg.Seed
	}
	if cfg.Jitter != nil {
		opts.Jitter = *cfg.Jitter
	}
}

func setUint32(dst *uint32, src *uint32) {
	if src != nil {
		*dst = *src
	}
}

// Build render options from the defaults, an optional config file and the
// command line flags, in that order of precedence.
func renderOptions(ctx *cli.Context) (renderer.Options, *renderConfig, error) {
	opts := renderer.DefaultOptions()
	cfg := &renderConfig{}

	if cfgFile := ctx.String("config"); cfgFile != "" {
		var err error
		if cfg, err = loadRenderConfig(cfgFile); err != nil {
			return opts, nil, err
		}
		cfg.apply(&opts)
	}

	if ctx.IsSet("width") {
		opts.FrameW = uint32(ctx.Int("width"))
	}
	if ctx.IsSet("height") {
		opts.FrameH = uint32(ctx.Int("height"))
	}
	if ctx.IsSet("spp") {
		opts.SamplesPerFrame = uint32(ctx.Int("spp"))
	}
	if ctx.IsSet("num-bounces") {
		opts.NumBounces = uint32(ctx.Int("num-bounces"))
	}
	if ctx.IsSet("rr-bounces") {
		opts.MinBouncesForRR = uint32(ctx.Int("rr-bounces"))
	}
	if ctx.IsSet("exposure") {
		opts.Exposure = float32(ctx.Float64("exposure"))
	}
	if ctx.IsSet("tracers") {
		opts.NumTracers = uint32(ctx.Int("tracers"))
	}
	if ctx.IsSet("workers") {
		opts.WorkersPerTracer = uint32(ctx.Int("workers"))
	}
	if ctx.IsSet("batch-size") {
		opts.BatchSize = uint32(ctx.Int("batch-size"))
	}
	if ctx.IsSet("seed") {
		opts.Seed = uint64(ctx.Int64("seed"))
	}
	if ctx.IsSet("no-jitter") {
		opts.Jitter = !ctx.Bool("no-jitter")
	}
	if ctx.IsSet("out") || cfg.Output == nil {
		out := ctx.String("out")
		cfg.Output = &out
	}

	if opts.MinBouncesForRR == 0 || opts.MinBouncesForRR >= opts.NumBounces {
		logger.Notice("disabling RR for path elimination")
		opts.MinBouncesForRR = opts.NumBounces + 1
	}

	return opts, cfg, opts.Validate()
}
