package staging

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/firmwarenator/firmwarenator/types"
)

func TestCreate_EmptyFirmwareTree(t *testing.T) {
	root, err := Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	t.Cleanup(func() { _ = root.Remove() })

	info, err := os.Stat(root.FirmwareDir())
	if err != nil {
		t.Fatalf("lib/firmware missing: %v", err)
	}
	if !info.IsDir() {
		t.Fatal("lib/firmware is not a directory")
	}

	// An empty set still leaves a valid (empty) firmware directory
	entries, err := os.ReadDir(root.FirmwareDir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty firmware dir, got %d entries", len(entries))
	}
}

func TestPopulate_CopiesNestedPaths(t *testing.T) {
	source := t.TempDir()
	mustWrite(t, filepath.Join(source, "iwlwifi-1.ucode"), "ucode-bytes")
	mustWrite(t, filepath.Join(source, "ath10k/cal-pci.bin"), "cal-bytes")

	root, err := Create()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = root.Remove() })

	paths := []string{"iwlwifi-1.ucode", "ath10k/cal-pci.bin"}
	if err := root.Populate(source, paths); err != nil {
		t.Fatalf("Populate failed: %v", err)
	}

	for path, want := range map[string]string{
		"iwlwifi-1.ucode":    "ucode-bytes",
		"ath10k/cal-pci.bin": "cal-bytes",
	} {
		got, err := os.ReadFile(filepath.Join(root.FirmwareDir(), path))
		if err != nil {
			t.Errorf("staged file %s: %v", path, err)
			continue
		}
		if string(got) != want {
			t.Errorf("staged %s = %q, want %q", path, got, want)
		}
	}
}

func TestPopulate_MissingSourceFileNamesPath(t *testing.T) {
	root, err := Create()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = root.Remove() })

	err = root.Populate(t.TempDir(), []string{"absent/firmware.bin"})
	if !errors.Is(err, types.ErrStaging) {
		t.Fatalf("got %v, want ErrStaging", err)
	}
	if !strings.Contains(err.Error(), "absent/firmware.bin") {
		t.Errorf("error does not name the missing path: %v", err)
	}
}

func TestPopulate_RejectsEscapingPath(t *testing.T) {
	root, err := Create()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = root.Remove() })

	err = root.Populate(t.TempDir(), []string{"../outside.bin"})
	if !errors.Is(err, types.ErrStaging) {
		t.Fatalf("got %v, want ErrStaging", err)
	}
}

func TestRemove_Idempotent(t *testing.T) {
	root, err := Create()
	if err != nil {
		t.Fatal(err)
	}

	if err := root.Remove(); err != nil {
		t.Fatalf("first Remove failed: %v", err)
	}
	if _, err := os.Stat(root.Dir()); !os.IsNotExist(err) {
		t.Errorf("staging root still exists after Remove")
	}
	if err := root.Remove(); err != nil {
		t.Fatalf("second Remove failed: %v", err)
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
