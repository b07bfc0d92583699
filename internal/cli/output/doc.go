// Package output renders command results for the drawdoc CLI.
//
// Results are written as an aligned table (the default), JSON or YAML.
// Table rendering works on Table values, slices of structs, single
// structs and maps; struct fields tagged `table:"-"` are hidden and
// fields tagged `table:"wide"` only appear with --wide.
//
// Spinner and Progress draw transient status lines on a terminal and
// stay silent when the writer is not one.
package output
