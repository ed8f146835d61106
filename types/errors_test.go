package types

import (
	"errors"
	"os"
	"testing"
)

func TestRunError_Is(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{name: "usage", err: UsageErrorf("IMGNAME required"), kind: ErrUsage},
		{name: "config", err: ConfigErrorf("unknown compressor %q", "zip"), kind: ErrConfig},
		{name: "preflight", err: NewRunError(ErrPreflight, "preflight", "/tmp/out", nil), kind: ErrPreflight},
		{name: "discovery", err: NewRunError(ErrDiscovery, "discover", "", errors.New("dmesg failed")), kind: ErrDiscovery},
		{name: "staging", err: NewRunError(ErrStaging, "stage", "a/b.bin", os.ErrNotExist), kind: ErrStaging},
		{name: "packaging", err: NewRunError(ErrPackaging, "cpio", "", errors.New("exit status 2")), kind: ErrPackaging},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.kind) {
				t.Errorf("errors.Is(%v, kind) = false", tt.err)
			}
			for _, other := range []error{ErrUsage, ErrConfig, ErrPreflight, ErrDiscovery, ErrStaging, ErrPackaging} {
				if other != tt.kind && errors.Is(tt.err, other) {
					t.Errorf("%v unexpectedly matches %v", tt.err, other)
				}
			}
		})
	}
}

func TestRunError_UnwrapPreservesCause(t *testing.T) {
	err := NewRunError(ErrStaging, "stage", "iwlwifi.ucode", os.ErrNotExist)

	if !errors.Is(err, os.ErrNotExist) {
		t.Error("underlying cause lost from chain")
	}

	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Fatal("errors.As failed to recover *RunError")
	}
	if runErr.Op != "stage" || runErr.Path != "iwlwifi.ucode" {
		t.Errorf("recovered fields Op=%q Path=%q", runErr.Op, runErr.Path)
	}
}

func TestRunError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *RunError
		want string
	}{
		{
			name: "path and cause",
			err:  &RunError{Kind: ErrStaging, Op: "stage", Path: "a.bin", Err: os.ErrNotExist},
			want: "stage a.bin: staging failed: file does not exist",
		},
		{
			name: "path only",
			err:  &RunError{Kind: ErrPreflight, Op: "preflight", Path: "/tmp/out"},
			want: "preflight /tmp/out: preflight check failed",
		},
		{
			name: "cause only",
			err:  &RunError{Kind: ErrConfig, Op: "resolve", Err: errors.New("empty command")},
			want: "resolve: configuration error: empty command",
		},
		{
			name: "bare",
			err:  &RunError{Kind: ErrPackaging, Op: "mksquashfs"},
			want: "mksquashfs: packaging failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}
