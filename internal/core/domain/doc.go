// Package domain defines the core domain models for DrawDoc.
//
// Domain models are pure values without any IO dependencies or
// framework coupling. This package contains:
//
//   - SceneNode: a loosely-typed scene tree node with a kind discriminator
//     and well-known container fields, plus a depth-first walker
//   - Manifest, AssetRef, CanvasMeta: archive metadata
//   - Snapshot: one serialized scene state, the unit of history and auto-save
//   - Errors: domain-specific error definitions
package domain
