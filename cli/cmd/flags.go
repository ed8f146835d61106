// Package cmd implements the firmwarenator CLI surface.
package cmd

import "github.com/urfave/cli/v2"

// Flags returns the app-level flags. firmwarenator is a single-command
// tool: everything hangs off the app action, with IMGNAME positional.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Echo resolved settings and enable verbose sub-command output",
		},
		&cli.BoolFlag{
			Name:    "force",
			Aliases: []string{"f"},
			Usage:   "Permit overwriting an existing output file",
		},
		&cli.StringFlag{
			Name:    "compressor",
			Aliases: []string{"c"},
			Usage:   "Compressor profile: gzip, bzip2, xz, lzma, lzo, lz4, zstd, none",
		},
		&cli.StringSliceFlag{
			Name:    "compressor-args",
			Aliases: []string{"C"},
			Usage:   "Compressor arguments; first use replaces the profile default, later uses append",
		},
		&cli.BoolFlag{
			Name:    "sqsh",
			Aliases: []string{"s"},
			Usage:   "Produce a squashfs filesystem image instead of an archive",
		},
		&cli.BoolFlag{
			Name:  "verify",
			Usage: "Re-read the archive artifact and check it against the staged tree",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Only discover and print the firmware set; build nothing",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "Output format for --dry-run: json, table, yaml",
		},
		&cli.BoolFlag{
			Name:  "no-color",
			Usage: "Disable colored output",
		},
		&cli.StringFlag{
			Name:  "log-file",
			Usage: "Read kernel log lines from a saved file instead of the ring buffer",
		},
	}
}

// VersionFlag rebinds the version flag to -V so -v stays verbose.
var VersionFlag = &cli.BoolFlag{
	Name:    "version",
	Aliases: []string{"V"},
	Usage:   "print the version",
}
