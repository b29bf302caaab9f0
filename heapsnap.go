// ABOUTME: Main heapsnap package providing version information and package documentation
// ABOUTME: This is the root package for the V8/Chromium heap snapshot analysis tool

// Package heapsnap provides a V8/Chromium heap snapshot analysis engine with
// a CLI front end. It includes graph analysis algorithms such as the
// Cooper-Harvey-Kennedy dominator tree, retained size propagation, DOM
// attachedness propagation, duplicate-string detection, and snapshot diffing.
package heapsnap

// Version is the semantic version of the heapsnap tool.
const Version = "0.1.0-dev"
