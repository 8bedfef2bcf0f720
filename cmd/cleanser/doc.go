// Package main hosts the cleanser CLI entrypoint and command graph.
//
// The Cobra command tree loads configuration (a .env file in the working
// directory, then the TOML file, then environment overrides, then flags),
// runs the cleansing pipeline under an output-directory lock, and renders
// run summaries, the run registry, and table counts as tables or JSON.
//
// Keep this package lean: behaviour belongs in the internal packages and is
// only surfaced here through commands and flags.
package main
