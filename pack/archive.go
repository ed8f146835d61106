package pack

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/firmwarenator/firmwarenator/cli/config"
	"github.com/firmwarenator/firmwarenator/log"
	"github.com/firmwarenator/firmwarenator/types"
)

// cpioCommand is the external archive writer. The "newc" header format is
// the portable interchange variant the kernel's initramfs loader reads.
const cpioCommand = "cpio"

// ArchivePackager writes the entire staging tree, lib/firmware prefix
// included, as a cpio archive piped through the resolved compressor.
type ArchivePackager struct {
	// Output is the artifact path. Must not pre-exist; the resolver has
	// already confirmed overwrite and removed any prior file.
	Output string
	// Compressor is the resolved profile. Name "none" skips the
	// compression stage and streams cpio output straight to the file.
	Compressor *config.Resolved
	// Verbose makes cpio emit per-file diagnostic lines on stderr,
	// to the side of the artifact stream.
	Verbose bool
	// Log receives diagnostics.
	Log *log.Logger
}

// Pack builds the member listing, feeds it to cpio, and streams the
// (optionally compressed) archive into the output file. On any failure the
// partial output file is removed so no corrupt artifact is left in place.
func (p *ArchivePackager) Pack(ctx context.Context, stagingDir string) error {
	listing, err := memberListing(stagingDir)
	if err != nil {
		return types.NewRunError(types.ErrPackaging, "walk", stagingDir, err)
	}
	p.Log.Debugf("archiving %d members from %s", len(listing), stagingDir)

	out, err := os.OpenFile(p.Output, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return types.NewRunError(types.ErrPackaging, "create", p.Output, err)
	}

	err = p.runPipeline(ctx, stagingDir, listing, out)
	if closeErr := out.Close(); err == nil && closeErr != nil {
		err = types.NewRunError(types.ErrPackaging, "close", p.Output, closeErr)
	}
	if err != nil {
		_ = os.Remove(p.Output)
		return err
	}
	return nil
}

// runPipeline wires cpio (and the compressor, unless "none") into out.
func (p *ArchivePackager) runPipeline(ctx context.Context, stagingDir string, listing []string, out io.Writer) error {
	cpioArgs := []string{"-o", "-H", "newc"}
	if p.Verbose {
		cpioArgs = append(cpioArgs, "-v")
	}

	cpio := exec.CommandContext(ctx, cpioCommand, cpioArgs...)
	cpio.Dir = stagingDir
	cpio.Stdin = strings.NewReader(strings.Join(listing, "\n") + "\n")

	var cpioStderr bytes.Buffer
	if p.Verbose {
		// Per-file diagnostics go to the user, never into the artifact.
		cpio.Stderr = os.Stderr
	} else {
		cpio.Stderr = &cpioStderr
	}

	if p.Compressor.Name == config.None {
		cpio.Stdout = out
		if err := cpio.Run(); err != nil {
			return commandError(cpioCommand, &cpioStderr, err)
		}
		return nil
	}

	comp := exec.CommandContext(ctx, p.Compressor.Comp, p.Compressor.Args...)
	var compStderr bytes.Buffer
	comp.Stderr = &compStderr
	comp.Stdout = out

	pipe, err := cpio.StdoutPipe()
	if err != nil {
		return types.NewRunError(types.ErrPackaging, cpioCommand, "", err)
	}
	comp.Stdin = pipe

	if err := cpio.Start(); err != nil {
		return commandError(cpioCommand, &cpioStderr, err)
	}
	if err := comp.Start(); err != nil {
		_ = cpio.Process.Kill()
		_ = cpio.Wait()
		return commandError(p.Compressor.Comp, &compStderr, err)
	}

	cpioErr := cpio.Wait()
	compErr := comp.Wait()
	if cpioErr != nil {
		return commandError(cpioCommand, &cpioStderr, cpioErr)
	}
	if compErr != nil {
		return commandError(p.Compressor.Comp, &compStderr, compErr)
	}
	return nil
}

// memberListing walks the staging root and returns every entry as a path
// relative to the root, parents before children, directories included.
func memberListing(stagingDir string) ([]string, error) {
	var listing []string
	err := filepath.WalkDir(stagingDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(stagingDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		listing = append(listing, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return listing, nil
}
