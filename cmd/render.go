package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/achilleasa/spindle/renderer"
	"github.com/achilleasa/spindle/scene"
	"github.com/achilleasa/spindle/scene/reader"
	"github.com/achilleasa/spindle/tracer"
	"github.com/achilleasa/spindle/tracer/wavefront"
	"github.com/chewxy/math32"
	"github.com/fsnotify/fsnotify"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Scene file changes are coalesced over this interval before re-rendering.
const watchSettleTime = 250 * time.Millisecond

// Render a still frame.
func RenderFrame(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	opts, cfg, err := renderOptions(ctx)
	if err != nil {
		return err
	}

	sc, err := loadScene(ctx)
	if err != nil {
		return err
	}

	r, err := setupRenderer(ctx, sc, opts)
	if err != nil {
		return err
	}
	defer r.Close()

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err = r.Render(runCtx); err != nil {
		return err
	}

	// Display stats
	displayFrameStats(r.Stats())

	return r.SaveImage(*cfg.Output)
}

// Render a sequence of frames while orbiting the camera around its look-at
// point. Each frame is written to a numbered image file.
func RenderSequence(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	opts, cfg, err := renderOptions(ctx)
	if err != nil {
		return err
	}

	numFrames := uint32(ctx.Int("frames"))
	if cfg.SequenceFrames != nil && !ctx.IsSet("frames") {
		numFrames = *cfg.SequenceFrames
	}
	degrees := float32(ctx.Float64("degrees"))
	if cfg.SequenceDegrees != nil && !ctx.IsSet("degrees") {
		degrees = *cfg.SequenceDegrees
	}
	if numFrames == 0 {
		return errors.New("number of frames must be positive")
	}

	sc, err := loadScene(ctx)
	if err != nil {
		return err
	}

	r, err := setupRenderer(ctx, sc, opts)
	if err != nil {
		return err
	}
	defer r.Close()

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	camera := sc.Camera.Clone()
	yawStep := degrees * math32.Pi / 180.0 / float32(numFrames)
	start := time.Now()
	for frame := uint32(0); frame < numFrames; frame++ {
		if frame > 0 {
			camera.Orbit(yawStep, 0)
			if err = r.UpdateCamera(camera); err != nil {
				return err
			}
		}

		if err = r.Render(runCtx); err != nil {
			return err
		}

		if err = r.SaveImage(sequenceFilename(*cfg.Output, frame)); err != nil {
			return err
		}
		logger.Infof("rendered frame %d/%d", frame+1, numFrames)
	}

	logger.Noticef("rendered %d frames in %d ms", numFrames, time.Since(start).Nanoseconds()/1000000)
	return nil
}

// Render a frame and re-render it every time the scene file changes. The
// command runs until interrupted.
func RenderWatch(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	opts, cfg, err := renderOptions(ctx)
	if err != nil {
		return err
	}

	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}
	sceneFile, err := filepath.Abs(ctx.Args().First())
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Editors often replace files instead of writing them in place so we
	// watch the parent folder and filter events by name.
	if err = watcher.Add(filepath.Dir(sceneFile)); err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	render := func() {
		if err := renderSceneFile(runCtx, ctx, sceneFile, opts, *cfg.Output); err != nil {
			logger.Errorf("could not render %s: %v", sceneFile, err)
		}
	}
	render()
	logger.Noticef("watching %s for changes", sceneFile)

	settle := time.NewTimer(watchSettleTime)
	settle.Stop()
	for {
		select {
		case <-runCtx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != sceneFile {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				settle.Reset(watchSettleTime)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warningf("watcher error: %v", err)
		case <-settle.C:
			logger.Noticef("scene file changed; re-rendering")
			render()
		}
	}
}

// Load the scene, render a single frame and save it.
func renderSceneFile(runCtx context.Context, ctx *cli.Context, sceneFile string, opts renderer.Options, imgFile string) error {
	sc, err := reader.ReadScene(sceneFile)
	if err != nil {
		return err
	}

	r, err := setupRenderer(ctx, sc, opts)
	if err != nil {
		return err
	}
	defer r.Close()

	if err = r.Render(runCtx); err != nil {
		return err
	}
	displayFrameStats(r.Stats())
	return r.SaveImage(imgFile)
}

// Load the scene passed as the command argument.
func loadScene(ctx *cli.Context) (*scene.Scene, error) {
	if ctx.NArg() != 1 {
		return nil, errors.New("missing scene file argument")
	}

	return reader.ReadScene(ctx.Args().First())
}

// Create a renderer for the scene using the scheduler selected by the
// command flags.
func setupRenderer(ctx *cli.Context, sc *scene.Scene, opts renderer.Options) (renderer.Renderer, error) {
	var scheduler tracer.BlockScheduler
	switch ctx.String("scheduler") {
	case "naive":
		scheduler = tracer.NaiveScheduler()
	case "perfect", "":
		scheduler = tracer.PerfectScheduler()
	default:
		return nil, fmt.Errorf("unknown block scheduler %q", ctx.String("scheduler"))
	}

	pipeline := wavefront.DefaultPipeline(opts.NumBounces, opts.MinBouncesForRR, opts.Jitter)
	return renderer.NewDefault(sc, scheduler, pipeline, opts)
}

// Generate the image filename for a sequence frame by appending the frame
// number to the base name.
func sequenceFilename(imgFile string, frame uint32) string {
	ext := filepath.Ext(imgFile)
	if ext == "" {
		ext = ".png"
	}
	return fmt.Sprintf("%s-%04d%s", strings.TrimSuffix(imgFile, filepath.Ext(imgFile)), frame, ext)
}

func displayFrameStats(stats renderer.FrameStats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Tracer", "Primary", "Block height", "% of frame", "Rounds", "Samples", "Dropped", "Render time"})
	for _, stat := range stats.Tracers {
		table.Append([]string{
			stat.Id,
			fmt.Sprintf("%t", stat.IsPrimary),
			fmt.Sprintf("%d", stat.BlockH),
			fmt.Sprintf("%02.1f %%", stat.FramePercent),
			fmt.Sprintf("%d", stat.Rounds),
			fmt.Sprintf("%d", stat.Samples),
			fmt.Sprintf("%d", stat.DroppedSamples),
			stat.RenderTime.String(),
		})
	}
	table.SetFooter([]string{"", "", "", "", "", "", "TOTAL", stats.RenderTime.String()})

	table.Render()
	logger.Noticef("frame %d statistics\n%s", stats.FrameCount, buf.String())
	logger.Infof("stage statistics\n%s", stageStatsTable(stats))
}

// Render per-stage dispatch statistics for all tracers.
func stageStatsTable(stats renderer.FrameStats) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Tracer", "Stage", "Dispatches", "Paths", "Time"})
	for _, stat := range stats.Tracers {
		for _, stage := range stat.Stages {
			table.Append([]string{
				stat.Id,
				stage.Name,
				fmt.Sprintf("%d", stage.Dispatches),
				fmt.Sprintf("%d", stage.Paths),
				stage.Time.String(),
			})
		}
	}
	table.Render()
	return buf.String()
}
