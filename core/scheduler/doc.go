// Package scheduler implements day-ahead operating plans for a compressor
// station. A plan splits the day into slots, each carrying the nominated
// flow and head, and picks for every slot the feasible configuration with
// the lowest fuel energy rate. Plans can be exported to JSON or CSV.
package scheduler
