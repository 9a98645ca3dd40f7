// Package api holds the HTTP surface served next to /metrics: archived
// evaluations, on-demand evaluation and station listings. Sub-packages
// provide the handlers; this package provides the guards wrapped around
// them.
package api
