// Package viz draws scenes in the terminal.
//
// [Preview] is a renderer: it retains the primitives of every patch it is
// sent and rasterises them onto a braille [Canvas] through an orthographic
// [Camera], or writes them out as SVG for snapshots. Labels and the legend
// cannot be drawn in braille and are returned by [Preview.Texts] instead.
//
// The camera's parameters travel through the engine as an opaque vector
// (see [Camera.View]) so saved views and state blobs can restore them.
package viz
