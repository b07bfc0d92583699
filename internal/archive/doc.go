// Package archive reads and writes .draw document archives.
//
// A .draw file is a zip container with a fixed layout:
//
//	manifest.json        format tag, version, canvas metadata, asset index
//	canvas.json          scene tree with asset pointers instead of inline payloads
//	thumbnail.png        200x150 letterboxed preview (optional)
//	assets/<id>.<ext>    one entry per extracted asset
//
// Pack and Unpack are pure over their inputs and safe for concurrent use.
// Unpack never returns a Go error: failures are reported through
// UnpackResult.Reason so callers can show a specific message.
package archive
