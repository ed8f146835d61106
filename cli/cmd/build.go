package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/firmwarenator/firmwarenator/build"
	"github.com/firmwarenator/firmwarenator/cli/config"
	"github.com/firmwarenator/firmwarenator/cli/render"
	"github.com/firmwarenator/firmwarenator/log"
	"github.com/firmwarenator/firmwarenator/store"
	"github.com/firmwarenator/firmwarenator/types"
)

// Exit codes: success and help/version are 0, every error class is 1.
const (
	exitSuccess = 0
	exitFailure = 1
)

// s3RegionEnv optionally pins the region for s3:// outputs.
const s3RegionEnv = "FIRMWARENATOR_S3_REGION"

// BuildAction is the app action: resolve options, then run the
// discovery → staging → packaging pipeline.
func BuildAction(c *cli.Context) error {
	logger := log.New(c.Bool("verbose"))

	cfg, err := resolve(c)
	if err != nil {
		return exitWith(c, err)
	}
	logger.Debugf("resolved settings: %s", cfg)

	runner := build.NewRunner(cfg, logger)

	// Signal handling: OS-level termination is the only cancellation.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if c.Bool("dry-run") {
		return dryRun(ctx, c, runner)
	}

	result, err := runner.Execute(ctx)
	if err != nil {
		return exitWith(c, err)
	}

	logger.Infof("wrote %s (%d firmware file(s), %s)",
		result.Artifact, result.Files, result.Duration.Round(time.Millisecond))
	return nil
}

// resolve builds the immutable run configuration from the layered config
// sources and CLI flags. Flags override config files, which override the
// built-in defaults.
func resolve(c *cli.Context) (*build.RunConfig, error) {
	if c.NArg() != 1 {
		return nil, types.UsageErrorf("IMGNAME required")
	}

	output, err := resolveOutput(c.Args().First())
	if err != nil {
		return nil, err
	}

	fileCfg, err := config.Load(config.DefaultPaths())
	if err != nil {
		return nil, types.NewRunError(types.ErrConfig, "resolve", "", err)
	}

	format := build.FormatArchive
	if c.Bool("sqsh") {
		format = build.FormatImage
	}

	// format=image uses the builder's own fixed compression; the
	// compressor profile is only resolved (and validated) for archives.
	var compressor *config.Resolved
	if format == build.FormatArchive {
		name := fileCfg.DefaultCompressor
		if c.IsSet("compressor") {
			name = c.String("compressor")
		}
		compressor, err = fileCfg.ResolveCompressor(name, c.StringSlice("compressor-args"))
		if err != nil {
			return nil, err
		}
	}

	return &build.RunConfig{
		Output:     output,
		Force:      c.Bool("force"),
		Verbose:    c.Bool("verbose"),
		Format:     format,
		Compressor: compressor,
		Verify:     c.Bool("verify"),
		LogFile:    c.String("log-file"),
		S3Region:   os.Getenv(s3RegionEnv),
	}, nil
}

// resolveOutput canonicalizes IMGNAME to an absolute path, passing
// s3:// URLs through untouched.
func resolveOutput(arg string) (string, error) {
	if arg == "" {
		return "", types.UsageErrorf("IMGNAME required")
	}
	if store.IsS3URL(arg) {
		if _, err := store.ParseS3URL(arg); err != nil {
			return "", err
		}
		return arg, nil
	}
	abs, err := filepath.Abs(arg)
	if err != nil || abs == "" {
		return "", types.UsageErrorf("IMGNAME required")
	}
	return abs, nil
}

// DiscoveryReport is the --dry-run payload.
type DiscoveryReport struct {
	Count    int      `json:"count" yaml:"count"`
	Firmware []string `json:"firmware" yaml:"firmware"`
}

// TableHeader implements render.Tabler.
func (r DiscoveryReport) TableHeader() []string {
	return []string{"FIRMWARE"}
}

// TableRows implements render.Tabler.
func (r DiscoveryReport) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Firmware))
	for _, f := range r.Firmware {
		rows = append(rows, []string{f})
	}
	return rows
}

// dryRun discovers the firmware set and renders it without staging or
// packaging anything.
func dryRun(ctx context.Context, c *cli.Context, runner *build.Runner) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return exitWith(c, err)
	}

	set, err := runner.Discover(ctx)
	if err != nil {
		return exitWith(c, err)
	}

	report := DiscoveryReport{
		Count:    set.Len(),
		Firmware: set.Sorted(),
	}
	if err := r.Render(report); err != nil {
		return exitWith(c, err)
	}
	return nil
}

// exitWith maps a run failure onto the CLI exit contract. Usage and
// configuration errors additionally print the usage text.
func exitWith(c *cli.Context, err error) error {
	if errors.Is(err, types.ErrUsage) || errors.Is(err, types.ErrConfig) {
		_ = cli.ShowAppHelp(c)
		fmt.Fprintln(c.App.ErrWriter)
	}
	return cli.Exit(fmt.Sprintf("Error: %v", err), exitFailure)
}
