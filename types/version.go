package types

// Version is the canonical project version.
// The CLI reports it via -V/--version; release tags must match this constant.
const Version = "0.3.1"
