// Package fuelkpi rebuilds daily fuel aggregates from archived evaluations.
package fuelkpi

import (
	"github.com/kilianp07/compstation/core/evallog"
	"github.com/kilianp07/compstation/core/metrics/fuel"
)

// Backfill adds the feasible archived evaluations to the store. Failed
// records and records without a result are skipped. It returns the number
// of records added.
func Backfill(store fuel.Store, history []evallog.Record) (int, error) {
	n := 0
	for _, h := range history {
		if !h.Feasible || h.Result == nil {
			continue
		}
		rec := fuel.Record{
			StationID:  h.StationID,
			Date:       fuel.Day(h.Timestamp),
			ShaftPower: h.Result.ShaftPower,
			EnergyRate: h.Result.EnergyRate,
		}
		if err := store.Add(rec); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
