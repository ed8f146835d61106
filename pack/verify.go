package pack

import (
	"bytes"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cavaliergopher/cpio"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/firmwarenator/firmwarenator/cli/config"
	"github.com/firmwarenator/firmwarenator/iox"
	"github.com/firmwarenator/firmwarenator/types"
)

// ErrNoCodec reports that the selected compressor has no in-process
// decoder, so the artifact cannot be verified. Callers treat it as a
// warning, not a run failure.
var ErrNoCodec = errors.New("no in-process codec for compressor")

// VerifyArchive re-reads an archive artifact, decompresses it in process,
// walks the cpio members, and compares the regular-file set and byte
// content against the staged tree the artifact was built from.
func VerifyArchive(artifact string, compressor config.Compressor, stagingDir string) error {
	f, err := os.Open(artifact)
	if err != nil {
		return types.NewRunError(types.ErrPackaging, "verify", artifact, err)
	}
	defer iox.DiscardClose(f)

	stream, cleanup, err := decoder(f, compressor)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	archived, err := archivedFiles(stream)
	if err != nil {
		return types.NewRunError(types.ErrPackaging, "verify", artifact, err)
	}

	staged, err := stagedFiles(stagingDir)
	if err != nil {
		return types.NewRunError(types.ErrPackaging, "verify", stagingDir, err)
	}

	for rel, want := range staged {
		got, ok := archived[rel]
		if !ok {
			return types.NewRunError(types.ErrPackaging, "verify", rel,
				errors.New("staged file missing from archive"))
		}
		if !bytes.Equal(got, want) {
			return types.NewRunError(types.ErrPackaging, "verify", rel,
				fmt.Errorf("content mismatch: archived %d bytes, staged %d bytes",
					len(got), len(want)))
		}
	}
	for rel := range archived {
		if _, ok := staged[rel]; !ok {
			return types.NewRunError(types.ErrPackaging, "verify", rel,
				errors.New("archive member not present in staging tree"))
		}
	}
	return nil
}

// decoder wraps r with the in-process decompressor for the given profile.
// The second return value, when non-nil, must be called after reading.
func decoder(r io.Reader, compressor config.Compressor) (io.Reader, func(), error) {
	switch compressor {
	case config.None:
		return r, nil, nil
	case config.Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, types.NewRunError(types.ErrPackaging, "verify", "", err)
		}
		return zr, iox.CloseFunc(zr), nil
	case config.Zstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, types.NewRunError(types.ErrPackaging, "verify", "", err)
		}
		return zr, zr.Close, nil
	case config.Xz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, types.NewRunError(types.ErrPackaging, "verify", "", err)
		}
		return xr, nil, nil
	case config.Bzip2:
		return bzip2.NewReader(r), nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrNoCodec, compressor)
	}
}

// archivedFiles walks the cpio "newc" members in stream and returns the
// regular files keyed by cleaned member path, with content.
func archivedFiles(stream io.Reader) (map[string][]byte, error) {
	files := make(map[string][]byte)
	rdr := cpio.NewReader(stream)
	for {
		hdr, err := rdr.Next()
		if errors.Is(err, io.EOF) {
			return files, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read archive member: %w", err)
		}
		if !hdr.Mode.IsRegular() {
			continue
		}
		data, err := io.ReadAll(rdr)
		if err != nil {
			return nil, fmt.Errorf("read archive member %s: %w", hdr.Name, err)
		}
		files[filepath.Clean(hdr.Name)] = data
	}
}

// stagedFiles returns every regular file under stagingDir keyed by its
// path relative to the root, with content.
func stagedFiles(stagingDir string) (map[string][]byte, error) {
	files := make(map[string][]byte)
	err := filepath.WalkDir(stagingDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(stagingDir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[rel] = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
