// Package buildinfo provides build information for DrawDoc.
//
// Version, Commit and BuildTime are injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/drawdoc/internal/infra/buildinfo.Version=v1.0.0"
//
// Fields left unset are filled from the module build info embedded by the
// Go toolchain where possible.
package buildinfo
