package pack

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/firmwarenator/firmwarenator/log"
	"github.com/firmwarenator/firmwarenator/staging"
)

// mksquashfsCommand is the external filesystem-image builder. Its internal
// compression is its own fixed default; the resolved compressor profile
// plays no part in this variant.
const mksquashfsCommand = "mksquashfs"

// ImagePackager builds a squashfs image from the staging root.
//
// The image root holds the *contents* of lib/firmware directly, while the
// archive variant keeps the lib/firmware path prefix. The asymmetry is
// long-standing and deliberate; consumers mount the image at the firmware
// root, but extract the archive at /.
type ImagePackager struct {
	// Output is the artifact path. mksquashfs refuses to append to a
	// pre-existing malformed image, so the resolver has already removed
	// any prior file; -noappend guards the rest.
	Output string
	// Verbose passes the builder's progress output through to the user.
	Verbose bool
	// Log receives diagnostics.
	Log *log.Logger
}

// Pack invokes the image builder against the lib/firmware subtree.
// A non-zero exit aborts the run immediately, with no retry.
func (p *ImagePackager) Pack(ctx context.Context, stagingDir string) error {
	src := filepath.Join(stagingDir, staging.FirmwareSubdir)

	args := []string{src, p.Output, "-noappend"}
	if !p.Verbose {
		args = append(args, "-quiet")
	}
	p.Log.Debugf("building squashfs image: %s %v", mksquashfsCommand, args)

	cmd := exec.CommandContext(ctx, mksquashfsCommand, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if p.Verbose {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Run(); err != nil {
		_ = os.Remove(p.Output)
		return commandError(mksquashfsCommand, &stderr, err)
	}
	return nil
}
