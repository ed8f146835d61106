// Package build orchestrates a single firmwarenator run: preflight,
// firmware discovery, staging, packaging, and optional remote commit.
// The pipeline is strictly forward and fully sequential; no stage reads
// back from a later one.
package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/firmwarenator/firmwarenator/cli/config"
	"github.com/firmwarenator/firmwarenator/discover"
	"github.com/firmwarenator/firmwarenator/log"
	"github.com/firmwarenator/firmwarenator/pack"
	"github.com/firmwarenator/firmwarenator/staging"
	"github.com/firmwarenator/firmwarenator/store"
	"github.com/firmwarenator/firmwarenator/types"
)

// Format selects the output artifact format.
type Format string

const (
	// FormatArchive produces a compressed cpio archive stream.
	FormatArchive Format = "archive"
	// FormatImage produces a squashfs filesystem image.
	FormatImage Format = "image"
)

// RunConfig is the fully resolved configuration for one run. The CLI
// resolver builds it once; downstream stages never consult flags,
// environment, or config files again.
type RunConfig struct {
	// Output is the absolute artifact path, or an s3://bucket/key URL.
	Output string
	// Force permits overwriting an existing output artifact.
	Force bool
	// Verbose enables diagnostic echo and verbose sub-command output.
	Verbose bool
	// Format selects archive or image output.
	Format Format
	// Compressor is the resolved profile. Irrelevant (nil allowed) for
	// FormatImage, which uses the image builder's own fixed compression.
	Compressor *config.Resolved
	// Verify re-reads archive artifacts after packaging.
	Verify bool
	// LogFile, when set, replaces the live ring buffer as the kernel
	// log source.
	LogFile string
	// FirmwareDir is the source firmware tree. Empty means the fixed
	// live directory.
	FirmwareDir string
	// S3Region optionally pins the region for s3:// outputs.
	S3Region string
}

// RunResult summarizes a completed run.
type RunResult struct {
	// Artifact is the final output location.
	Artifact string
	// Files is the number of distinct firmware files included.
	Files int
	// Duration is the total run duration.
	Duration time.Duration
}

// remoteTarget is the remote artifact destination surface the runner
// needs. Satisfied by *store.S3Target.
type remoteTarget interface {
	Exists(ctx context.Context) (bool, error)
	Put(ctx context.Context, localPath string) error
}

// Runner executes the pipeline.
type Runner struct {
	config *RunConfig
	log    *log.Logger

	// source overrides kernel log acquisition. Nil selects FileSource
	// or KlogSource from the config.
	source discover.Source
	// packager overrides artifact packaging. Nil selects the packager
	// matching the configured format. Used by tests.
	packager pack.Packager
	// remote overrides S3 target construction. Used by tests.
	remote remoteTarget
}

// NewRunner creates a runner for the given resolved configuration.
func NewRunner(cfg *RunConfig, logger *log.Logger) *Runner {
	return &Runner{config: cfg, log: logger}
}

// Discover scans the kernel log and returns the firmware path set without
// staging or packaging anything. Backs the --dry-run flag.
func (r *Runner) Discover(ctx context.Context) (*discover.PathSet, error) {
	raw, err := r.logSource().ReadLog(ctx)
	if err != nil {
		return nil, types.NewRunError(types.ErrDiscovery, "discover", "", err)
	}
	set, err := discover.ScanBytes(raw)
	if err != nil {
		return nil, types.NewRunError(types.ErrDiscovery, "discover", "", err)
	}
	r.log.Debugf("discovered %d firmware file(s)", set.Len())
	return set, nil
}

// Execute runs the full pipeline and returns the result.
// The staging root is removed on every path out of this function.
func (r *Runner) Execute(ctx context.Context) (*RunResult, error) {
	start := time.Now()

	target, err := r.preflight(ctx)
	if err != nil {
		return nil, err
	}

	set, err := r.Discover(ctx)
	if err != nil {
		return nil, err
	}
	if set.Len() == 0 {
		r.log.Warnf("no firmware-load records found; was kernel debug logging enabled?")
	}

	root, err := staging.Create()
	if err != nil {
		return nil, err
	}
	defer removeStaging(root, r.log)

	sourceDir := r.config.FirmwareDir
	if sourceDir == "" {
		sourceDir = staging.DefaultSourceDir
	}
	if err := root.Populate(sourceDir, set.Sorted()); err != nil {
		return nil, err
	}

	// Package to a local scratch path when the output is remote. The
	// scratch directory lives outside the staging tree; verification
	// walks the staging tree as ground truth and must not see the
	// artifact there.
	localOut := r.config.Output
	if target != nil {
		scratch, err := os.MkdirTemp("", "firmwarenator-out-")
		if err != nil {
			return nil, types.NewRunError(types.ErrPackaging, "mkdir", "", err)
		}
		defer func() { _ = os.RemoveAll(scratch) }()
		localOut = filepath.Join(scratch, "artifact.out")
	} else if r.config.Force {
		// Prior artifact goes away before packaging begins so neither
		// variant ever appends to or partially overwrites an old file.
		if err := removeExisting(localOut); err != nil {
			return nil, err
		}
	}

	if err := r.selectPackager(localOut).Pack(ctx, root.Dir()); err != nil {
		return nil, err
	}

	if r.config.Verify && r.config.Format == FormatArchive {
		err := pack.VerifyArchive(localOut, r.compressorName(), root.Dir())
		switch {
		case errors.Is(err, pack.ErrNoCodec):
			r.log.Warnf("skipping verification: %v", err)
		case err != nil:
			return nil, err
		default:
			r.log.Debugf("artifact verified against staging tree")
		}
	}

	if target != nil {
		if err := target.Put(ctx, localOut); err != nil {
			return nil, err
		}
	}

	return &RunResult{
		Artifact: r.config.Output,
		Files:    set.Len(),
		Duration: time.Since(start),
	}, nil
}

// preflight checks the output destination before any staging side effect.
// Returns the S3 target when the output is remote, nil for local paths.
func (r *Runner) preflight(ctx context.Context) (remoteTarget, error) {
	if store.IsS3URL(r.config.Output) {
		url, err := store.ParseS3URL(r.config.Output)
		if err != nil {
			return nil, err
		}
		target := r.remote
		if target == nil {
			s3Target, err := store.NewS3Target(ctx, url, r.config.S3Region)
			if err != nil {
				return nil, types.NewRunError(types.ErrPreflight, "preflight", r.config.Output, err)
			}
			target = s3Target
		}
		if !r.config.Force {
			exists, err := target.Exists(ctx)
			if err != nil {
				return nil, types.NewRunError(types.ErrPreflight, "preflight", r.config.Output, err)
			}
			if exists {
				return nil, types.NewRunError(types.ErrPreflight, "preflight", r.config.Output,
					errors.New("object exists (use --force to overwrite)"))
			}
		}
		return target, nil
	}

	if _, err := os.Stat(r.config.Output); err == nil {
		if !r.config.Force {
			return nil, types.NewRunError(types.ErrPreflight, "preflight", r.config.Output,
				errors.New("file exists (use --force to overwrite)"))
		}
	} else if !os.IsNotExist(err) {
		return nil, types.NewRunError(types.ErrPreflight, "preflight", r.config.Output, err)
	}
	return nil, nil
}

// logSource returns the configured kernel log source.
func (r *Runner) logSource() discover.Source {
	if r.source != nil {
		return r.source
	}
	if r.config.LogFile != "" {
		return &discover.FileSource{Path: r.config.LogFile}
	}
	return &discover.KlogSource{}
}

// selectPackager returns the packager for the configured format.
func (r *Runner) selectPackager(output string) pack.Packager {
	if r.packager != nil {
		return r.packager
	}
	if r.config.Format == FormatImage {
		return &pack.ImagePackager{
			Output:  output,
			Verbose: r.config.Verbose,
			Log:     r.log,
		}
	}
	return &pack.ArchivePackager{
		Output:     output,
		Compressor: r.config.Compressor,
		Verbose:    r.config.Verbose,
		Log:        r.log,
	}
}

// compressorName returns the resolved compressor identifier, defaulting
// to "none" when no profile was resolved.
func (r *Runner) compressorName() config.Compressor {
	if r.config.Compressor == nil {
		return config.None
	}
	return r.config.Compressor.Name
}

// removeExisting deletes a prior local artifact, tolerating absence.
func removeExisting(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return types.NewRunError(types.ErrPreflight, "remove", path, err)
	}
	return nil
}

// removeStaging removes the staging root, logging (not failing) on error.
func removeStaging(root *staging.Root, logger *log.Logger) {
	if err := root.Remove(); err != nil {
		logger.Warnf("failed to remove staging directory %s: %v", root.Dir(), err)
	}
}

// String implements fmt.Stringer for diagnostic echo of resolved settings.
func (c *RunConfig) String() string {
	comp := "none"
	if c.Compressor != nil {
		comp = fmt.Sprintf("%s (%s %v / %s)",
			c.Compressor.Name, c.Compressor.Comp, c.Compressor.Args, c.Compressor.Decomp)
	}
	return fmt.Sprintf("output=%s format=%s compressor=%s force=%t verify=%t",
		c.Output, c.Format, comp, c.Force, c.Verify)
}
