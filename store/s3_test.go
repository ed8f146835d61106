package store

import (
	"errors"
	"testing"

	"github.com/firmwarenator/firmwarenator/types"
)

func TestIsS3URL(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{input: "s3://bucket/key", want: true},
		{input: "s3://bucket", want: true},
		{input: "/tmp/out.cpio", want: false},
		{input: "out.cpio", want: false},
		{input: "S3://bucket/key", want: false},
		{input: "", want: false},
	}

	for _, tt := range tests {
		if got := IsS3URL(tt.input); got != tt.want {
			t.Errorf("IsS3URL(%q) = %t, want %t", tt.input, got, tt.want)
		}
	}
}

func TestParseS3URL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    S3URL
		wantErr bool
	}{
		{
			name:  "bucket and key",
			input: "s3://firmware-images/host1.cpio.zst",
			want:  S3URL{Bucket: "firmware-images", Key: "host1.cpio.zst"},
		},
		{
			name:  "nested key",
			input: "s3://firmware-images/prod/host1.sqsh",
			want:  S3URL{Bucket: "firmware-images", Key: "prod/host1.sqsh"},
		},
		{name: "bare bucket", input: "s3://firmware-images", wantErr: true},
		{name: "trailing slash", input: "s3://firmware-images/", wantErr: true},
		{name: "empty bucket", input: "s3:///key", wantErr: true},
		{name: "empty", input: "s3://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseS3URL(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				if !errors.Is(err, types.ErrUsage) {
					t.Errorf("got %v, want ErrUsage", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseS3URL(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseS3URL(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestS3URL_String(t *testing.T) {
	u := S3URL{Bucket: "firmware-images", Key: "prod/host1.sqsh"}
	if got := u.String(); got != "s3://firmware-images/prod/host1.sqsh" {
		t.Errorf("String() = %q", got)
	}
}
