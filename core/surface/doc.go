// Package surface holds the numeric leaves of the station engine: the
// biquadratic isoline surfaces and quadratic boundary curves used by GasLib
// compressor and drive descriptions, monotone measurement tables, the
// characteristic-diagram lookup built from iso-efficiency samples, and a
// bracketed bisection used for speed searches.
//
// Everything in this package is pure and safe for concurrent use once
// constructed.
package surface
