// Package confloader loads layered configuration with koanf.
//
// Sources, lowest priority first:
//
//  1. Default values already present in the target struct
//  2. A YAML configuration file
//  3. Environment variables
//  4. Explicit overrides (flags), via LoadMap
//
// Watcher reports writes to the configuration file so long-running
// commands can re-read it.
package confloader
