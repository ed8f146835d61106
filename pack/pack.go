// Package pack materializes a staging root as the final output artifact.
//
// The archive and filesystem formats are intentionally not reimplemented:
// both variants shell out to the standard external builders (cpio, the
// configured compressor, mksquashfs) as blocking child processes and treat
// any non-zero exit as fatal, with no retry.
package pack

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/firmwarenator/firmwarenator/types"
)

// Packager materializes a staging root as the output artifact.
// Implementations are one-shot and non-resumable: they either fully write
// the artifact or leave no new file behind.
type Packager interface {
	Pack(ctx context.Context, stagingDir string) error
}

// stderrTailLimit bounds how much captured child stderr lands in errors.
const stderrTailLimit = 2048

// commandError classifies a failed child process as a packaging error,
// folding in the tail of its captured stderr when available.
func commandError(name string, stderr *bytes.Buffer, err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		detail := strings.TrimSpace(tail(stderr))
		if detail != "" {
			return types.NewRunError(types.ErrPackaging, name, "",
				fmt.Errorf("%w: %s", err, detail))
		}
	}
	return types.NewRunError(types.ErrPackaging, name, "", err)
}

// tail returns the last stderrTailLimit bytes of buf.
func tail(buf *bytes.Buffer) string {
	if buf == nil {
		return ""
	}
	b := buf.Bytes()
	if len(b) > stderrTailLimit {
		b = b[len(b)-stderrTailLimit:]
	}
	return string(b)
}
