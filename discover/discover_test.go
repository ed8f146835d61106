package discover

import (
	"strings"
	"testing"
)

func TestScan_DeduplicatesPaths(t *testing.T) {
	input := strings.Join([]string{
		`[1.234] usb 1-1: Loading firmware from "iwlwifi-1.ucode"`,
		`[1.250] usb 1-1: Loading firmware from "iwlwifi-1.ucode"`,
		`[2.001] ath10k_pci 0000:02:00.0: Loading firmware from "ath10k/cal-pci.bin"`,
	}, "\n")

	set, err := Scan(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if set.Len() != 2 {
		t.Fatalf("got %d paths, want 2: %v", set.Len(), set.Sorted())
	}
	for _, want := range []string{"iwlwifi-1.ucode", "ath10k/cal-pci.bin"} {
		if !set.Contains(want) {
			t.Errorf("set missing %q", want)
		}
	}
}

func TestScan_IgnoresUnrelatedLines(t *testing.T) {
	input := strings.Join([]string{
		"[0.001] Linux version 6.8.0",
		"[0.500] usb 1-1: new high-speed USB device",
		`[1.000] usb 1-1: Loading firmware from "rtl_nic/rtl8153a-4.fw"`,
		"[2.000] EXT4-fs (sda1): mounted filesystem",
	}, "\n")

	set, err := Scan(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if set.Len() != 1 || !set.Contains("rtl_nic/rtl8153a-4.fw") {
		t.Fatalf("got %v, want exactly rtl_nic/rtl8153a-4.fw", set.Sorted())
	}
}

func TestScan_EmptyInput(t *testing.T) {
	set, err := Scan(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if set.Len() != 0 {
		t.Fatalf("got %d paths, want 0", set.Len())
	}
}

func TestScan_CaseInsensitivePattern(t *testing.T) {
	input := "[3.2] ath10k_pci 0000:02:00.0: direct-loading firmware ath10k/QCA6174/board.bin"

	set, err := Scan(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if !set.Contains("ath10k/QCA6174/board.bin") {
		t.Fatalf("got %v, want ath10k/QCA6174/board.bin", set.Sorted())
	}
}

func TestExtractPath(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{
			name: "double quoted token",
			line: `usb 1-1: Loading firmware from "iwlwifi-1.ucode"`,
			want: "iwlwifi-1.ucode",
		},
		{
			name: "single quoted token",
			line: "usb 1-1: Loading firmware from 'iwlwifi-1.ucode'",
			want: "iwlwifi-1.ucode",
		},
		{
			name: "bare token",
			line: "loading firmware iwlwifi-1.ucode",
			want: "iwlwifi-1.ucode",
		},
		{
			name: "absolute firmware root path made relative",
			line: `Loading firmware from "/lib/firmware/ath10k/cal-pci.bin"`,
			want: "ath10k/cal-pci.bin",
		},
		{
			name: "other absolute path stripped of leading slash",
			line: "Loading firmware /firmware/custom.bin",
			want: "firmware/custom.bin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractPath(tt.line); got != tt.want {
				t.Errorf("extractPath(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestPathSet_Sorted(t *testing.T) {
	set := NewPathSet()
	set.Add("zz.bin")
	set.Add("aa.bin")
	set.Add("mm/nested.bin")

	got := set.Sorted()
	want := []string{"aa.bin", "mm/nested.bin", "zz.bin"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
