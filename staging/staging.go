// Package staging assembles the ephemeral firmware tree that packaging
// consumes. A staging root is exclusively owned by one run and is removed
// on every exit path, success or failure.
package staging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/firmwarenator/firmwarenator/iox"
	"github.com/firmwarenator/firmwarenator/types"
)

// FirmwareSubdir is the relative directory substructure recreated inside
// every staging root. It exists even when no firmware was discovered, so
// packaging always has a valid root.
const FirmwareSubdir = "lib/firmware"

// DefaultSourceDir is the live firmware tree files are copied from.
const DefaultSourceDir = "/lib/firmware"

// Root is a freshly created, uniquely named temporary staging directory.
type Root struct {
	dir     string
	removed bool
}

// Create makes a new staging root containing an empty lib/firmware tree.
func Create() (*Root, error) {
	dir, err := os.MkdirTemp("", "firmwarenator-")
	if err != nil {
		return nil, types.NewRunError(types.ErrStaging, "mkdir", "", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, FirmwareSubdir), 0o755); err != nil {
		_ = os.RemoveAll(dir)
		return nil, types.NewRunError(types.ErrStaging, "mkdir", FirmwareSubdir, err)
	}
	return &Root{dir: dir}, nil
}

// Dir returns the staging root path.
func (r *Root) Dir() string {
	return r.dir
}

// FirmwareDir returns the lib/firmware path inside the staging root.
func (r *Root) FirmwareDir() string {
	return filepath.Join(r.dir, FirmwareSubdir)
}

// Populate copies each relative path in paths from sourceDir into the
// corresponding location under lib/firmware, creating intermediate
// directories. A missing source file is a hard failure naming the path;
// packaging must never silently produce an incomplete artifact.
func (r *Root) Populate(sourceDir string, paths []string) error {
	for _, rel := range paths {
		if !filepath.IsLocal(rel) {
			return types.NewRunError(types.ErrStaging, "stage", rel,
				fmt.Errorf("path escapes the firmware root"))
		}

		src := filepath.Join(sourceDir, rel)
		dst := filepath.Join(r.dir, FirmwareSubdir, rel)

		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return types.NewRunError(types.ErrStaging, "mkdir", filepath.Dir(dst), err)
		}
		if err := copyFile(src, dst); err != nil {
			return types.NewRunError(types.ErrStaging, "stage", rel, err)
		}
	}
	return nil
}

// Remove deletes the staging root. Safe to call more than once, so it can
// sit in a defer alongside explicit cleanup on failure paths.
func (r *Root) Remove() error {
	if r.removed {
		return nil
	}
	r.removed = true
	return os.RemoveAll(r.dir)
}

// copyFile copies src to dst, preserving the source file mode.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer iox.DiscardClose(in)

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
