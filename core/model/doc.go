// Package model contains the immutable entity model of a compressor station:
// drives, compressors, configurations and the station that ties them
// together, plus the error taxonomy and diagnostics shared by the engine.
//
// Values are built once (usually by the GasLib loader) and validated by
// NewStation. After that nothing mutates them, so a *Station can be shared
// by any number of concurrent evaluations.
package model
