// Package service provides the document coordinator for DrawDoc.
//
// DocumentService wires one live scene to the undo history, the auto-save
// scheduler and the archive serializer. It is the only component that
// knows all of them; each of those packages is usable on its own.
package service
