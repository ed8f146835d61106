package pack

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/firmwarenator/firmwarenator/log"
	"github.com/firmwarenator/firmwarenator/staging"
	"github.com/firmwarenator/firmwarenator/types"
)

// stubBuilder installs a fake mksquashfs on PATH that records its argv
// and runs the given body.
func stubBuilder(t *testing.T, body string) string {
	t.Helper()
	bin := t.TempDir()
	argsFile := filepath.Join(bin, "argv")

	script := "#!/bin/sh\nprintf '%s\\n' \"$@\" > \"" + argsFile + "\"\n" + body + "\n"
	if err := os.WriteFile(filepath.Join(bin, mksquashfsCommand), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))
	return argsFile
}

func TestImagePackager_CommandLine(t *testing.T) {
	argsFile := stubBuilder(t, `touch "$2"`)

	stagingDir := stageTree(t, map[string][]byte{
		"lib/firmware/iwlwifi-1.ucode": []byte("ucode-bytes"),
	})
	output := filepath.Join(t.TempDir(), "fw.sqsh")

	p := &ImagePackager{Output: output, Log: log.Nop()}
	if err := p.Pack(context.Background(), stagingDir); err != nil {
		t.Fatalf("Pack failed: %v", err)
	}

	raw, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("stub argv not recorded: %v", err)
	}
	args := strings.Split(strings.TrimSpace(string(raw)), "\n")

	// Source is the firmware subtree itself, so the image root holds the
	// firmware files directly with no lib/firmware prefix.
	want := []string{filepath.Join(stagingDir, staging.FirmwareSubdir), output, "-noappend", "-quiet"}
	if len(args) != len(want) {
		t.Fatalf("argv = %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("argv = %v, want %v", args, want)
		}
	}

	if _, err := os.Stat(output); err != nil {
		t.Errorf("image not written: %v", err)
	}
}

func TestImagePackager_FailureRemovesOutput(t *testing.T) {
	stubBuilder(t, `touch "$2"; echo "FATAL ERROR: no space" >&2; exit 1`)

	stagingDir := stageTree(t, nil)
	output := filepath.Join(t.TempDir(), "fw.sqsh")

	p := &ImagePackager{Output: output, Log: log.Nop()}
	err := p.Pack(context.Background(), stagingDir)
	if !errors.Is(err, types.ErrPackaging) {
		t.Fatalf("got %v, want ErrPackaging", err)
	}
	if !strings.Contains(err.Error(), "no space") {
		t.Errorf("builder stderr missing from error: %v", err)
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Errorf("partial image left behind at %s", output)
	}
}
