// Package scriptrunner runs named administrative batch scripts (metadata
// import and export) on a bounded worker pool and records each run as a
// process with its output and log.
package scriptrunner
