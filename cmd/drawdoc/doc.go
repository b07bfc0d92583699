// Package main provides the entry point for drawdoc.
//
// drawdoc packs canvas scenes into self-contained .draw archives and edits
// them in an interactive shell with undo history and crash recovery:
//
//	drawdoc pack scene.json --title "Floor plan"
//	drawdoc inspect scene.draw
//	drawdoc unpack scene.draw --assets ./assets > scene.json
//	drawdoc preview scene.draw
//	drawdoc edit scene.draw
//	drawdoc autosave show
package main
