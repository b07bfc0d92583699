// Package scene provides an in-memory scene and a software renderer.
//
// Scene implements history.SceneProvider over a domain.SceneNode tree and
// calls a listener after every mutation, which is how the document service
// learns about edits. Renderer rasterizes the tree with x/image/vector for
// archive thumbnails.
//
// Drawn kinds: rect, ellipse, circle, line, polyline, polygon, image and
// group. Other kinds are kept in the tree but not drawn. Positions come
// from x/y or, for Fabric-style trees, left/top.
package scene
