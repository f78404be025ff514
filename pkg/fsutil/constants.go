// Package fsutil holds the small set of filesystem helpers shared by the
// mirror trees, the package databases and the config file.
package fsutil

// File and directory permission constants.
const (
	FileModeDefault = 0o644 // -rw-r--r--: mirrored files, databases, config
	FileModeSecure  = 0o640 // -rw-r-----

	DirModeDefault = 0o755 // drwxr-xr-x: mirror tree directories
	DirModeSecure  = 0o750 // drwxr-x---
)
