// Package main hosts the factorynet CLI.
//
// Commands run dataset adapters through the episode pipeline and inspect
// what the episode store holds: saved episodes, per-dataset statistics, and
// validation reports. Configuration is resolved once per invocation and
// shared by every subcommand.
package main
