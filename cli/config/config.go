// Package config loads the layered firmwarenator configuration.
//
// Precedence, later sources overriding earlier ones:
//
//	built-in defaults < system config < user config < CLI flags
//
// The flag layer is applied by the CLI resolver; this package owns the
// first three and the compressor profile table.
package config

import (
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/firmwarenator/firmwarenator/types"
)

// Compressor identifies one of the fixed compressor profiles.
type Compressor string

// The fixed profile set. "none" disables the compression stage entirely.
const (
	Gzip  Compressor = "gzip"
	Bzip2 Compressor = "bzip2"
	Xz    Compressor = "xz"
	Lzma  Compressor = "lzma"
	Lzo   Compressor = "lzo"
	Lz4   Compressor = "lz4"
	Zstd  Compressor = "zstd"
	None  Compressor = "none"
)

// Compressors lists every valid compressor identifier in declaration order.
var Compressors = []Compressor{Gzip, Bzip2, Xz, Lzma, Lzo, Lz4, Zstd, None}

// ParseCompressor validates a compressor name from a flag or config file.
func ParseCompressor(s string) (Compressor, error) {
	name := Compressor(strings.ToLower(strings.TrimSpace(s)))
	for _, c := range Compressors {
		if name == c {
			return c, nil
		}
	}
	return "", types.ConfigErrorf("unknown compressor %q", s)
}

// Var returns the configuration variable name for one of the profile's
// fields, e.g. Zstd.Var("COMP_ARGS") == "ZSTD_COMP_ARGS".
func (c Compressor) Var(field string) string {
	return strings.ToUpper(string(c)) + "_" + field
}

// Profile is a named compressor profile: compress command, default
// compress arguments, decompress command. Args is kept as a single
// space-separated string, matching the config file contract; it is split
// into an argv at resolve time.
type Profile struct {
	Comp   string
	Args   string
	Decomp string
}

// Config is the merged configuration from built-in defaults and the
// optional system and user config files. CLI flags override it field by
// field in the resolver; nothing here is consulted after resolution.
type Config struct {
	// DefaultCompressor is the compressor used when -c is not given.
	// Stored raw; validated by ResolveCompressor.
	DefaultCompressor string

	// Profiles maps each compressor identifier to its commands.
	// Absence of a key means the profile was never configured.
	Profiles map[Compressor]Profile
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		DefaultCompressor: string(Zstd),
		Profiles: map[Compressor]Profile{
			Gzip:  {Comp: "gzip", Args: "-9", Decomp: "gunzip"},
			Bzip2: {Comp: "bzip2", Args: "-9", Decomp: "bunzip2"},
			Xz:    {Comp: "xz", Args: "-9", Decomp: "unxz"},
			Lzma:  {Comp: "lzma", Decomp: "unlzma"},
			Lzo:   {Comp: "lzop", Decomp: "lzop"},
			Lz4:   {Comp: "lz4", Decomp: "unlz4"},
			Zstd:  {Comp: "zstd", Args: "-19", Decomp: "unzstd"},
		},
	}
}

// Lookup returns the profile for name. ok is false when the profile was
// never configured; an explicit miss, not an empty-string sentinel.
func (c *Config) Lookup(name Compressor) (Profile, bool) {
	p, ok := c.Profiles[name]
	return p, ok
}

// applyVars merges shell-style variables onto c. Unrecognized variables
// are ignored so config files can carry unrelated assignments.
func (c *Config) applyVars(vars map[string]string) {
	if v, ok := vars["COMPRESSOR"]; ok {
		c.DefaultCompressor = v
	}
	for _, name := range Compressors {
		p := c.Profiles[name]
		changed := false
		if v, ok := vars[name.Var("COMP")]; ok {
			p.Comp = v
			changed = true
		}
		if v, ok := vars[name.Var("COMP_ARGS")]; ok {
			p.Args = v
			changed = true
		}
		if v, ok := vars[name.Var("DECOMP")]; ok {
			p.Decomp = v
			changed = true
		}
		if changed {
			c.Profiles[name] = p
		}
	}
}

// VarNames returns the recognized variable names, sorted. Used by tests
// and by the usage text generator.
func VarNames() []string {
	names := []string{"COMPRESSOR"}
	for _, c := range Compressors {
		names = append(names,
			c.Var("COMP"), c.Var("COMP_ARGS"), c.Var("DECOMP"))
	}
	sort.Strings(names)
	return names
}

// Resolved is the fully resolved compressor selection for one run:
// commands looked up, extra arguments merged, executables verified.
type Resolved struct {
	Name   Compressor
	Comp   string
	Args   []string
	Decomp string
}

// ResolveCompressor resolves name against the configuration.
//
// extraArgs carries -C/--compressor-args occurrences: when non-empty, the
// first replaces the profile default and the rest append, space-joined.
// For every name except "none", the compress and decompress commands must
// be configured and present on PATH, or the run fails here, before any I/O.
func (c *Config) ResolveCompressor(name string, extraArgs []string) (*Resolved, error) {
	id, err := ParseCompressor(name)
	if err != nil {
		return nil, err
	}
	if id == None {
		return &Resolved{Name: None}, nil
	}

	profile, ok := c.Lookup(id)
	if !ok {
		return nil, types.ConfigErrorf("compressor %q is not configured", id)
	}
	if profile.Comp == "" {
		return nil, types.ConfigErrorf("compressor %q: %s is empty", id, id.Var("COMP"))
	}
	if profile.Decomp == "" {
		return nil, types.ConfigErrorf("compressor %q: %s is empty", id, id.Var("DECOMP"))
	}

	args := strings.Fields(profile.Args)
	if len(extraArgs) > 0 {
		args = strings.Fields(strings.Join(extraArgs, " "))
	}

	for _, command := range []string{profile.Comp, profile.Decomp} {
		bin := strings.Fields(command)[0]
		if _, err := exec.LookPath(bin); err != nil {
			return nil, types.NewRunError(types.ErrConfig, "resolve", bin,
				fmt.Errorf("compressor executable not found: %w", err))
		}
	}

	return &Resolved{
		Name:   id,
		Comp:   profile.Comp,
		Args:   args,
		Decomp: profile.Decomp,
	}, nil
}
