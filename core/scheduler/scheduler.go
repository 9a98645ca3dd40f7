package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/compstation/core/model"
	"github.com/kilianp07/compstation/core/performance"
	"github.com/kilianp07/compstation/core/station"
)

// StationSource resolves station ids.
type StationSource interface {
	Station(id string) (*model.Station, error)
}

// Evaluator evaluates one station request.
type Evaluator interface {
	Evaluate(st *model.Station, req station.Request) (*station.Result, error)
}

// Scheduler generates day-ahead operating plans.
type Scheduler struct {
	Config   PlanConfig
	Stations StationSource
	Eval     Evaluator
}

// PlanEntry is the operating point chosen for one slot. ConfigurationID is
// empty when no configuration can serve the nomination; Reason then holds
// the failure of the first configuration tried.
type PlanEntry struct {
	TimeSlot        time.Time       `json:"timeslot"`
	Flow            float64         `json:"flow"`
	Head            float64         `json:"head"`
	ConfigurationID string          `json:"configuration_id,omitempty"`
	ShaftPower      float64         `json:"shaft_power_kw"`
	EnergyRate      float64         `json:"energy_rate_kw"`
	EnergyKWh       float64         `json:"energy_kwh"`
	Reason          model.ErrorKind `json:"reason,omitempty"`
}

// Served reports whether a configuration was found for the slot.
func (e PlanEntry) Served() bool { return e.ConfigurationID != "" }

// GeneratePlan builds the plan for the given day, one entry per slot.
// Configurations that cannot serve a nomination are skipped; an unknown
// configuration or a malformed nomination fails the whole plan.
func (s *Scheduler) GeneratePlan(date time.Time) ([]PlanEntry, error) {
	if s.Config.SlotDurationMinutes <= 0 {
		return nil, errors.New("slot_duration_minutes must be positive")
	}
	slotDur := time.Duration(s.Config.SlotDurationMinutes) * time.Minute
	totalSlots := int((24 * time.Hour) / slotDur)
	if totalSlots == 0 {
		return nil, errors.New("slot duration too long")
	}
	if err := s.checkNominations(totalSlots); err != nil {
		return nil, err
	}
	st, err := s.Stations.Station(s.Config.StationID)
	if err != nil {
		return nil, err
	}
	configs := s.Config.Configurations
	if len(configs) == 0 {
		configs = st.ConfigurationIDs()
	}

	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	entries := make([]PlanEntry, 0, totalSlots)
	noms := s.Config.Nominations
	for i, n := range noms {
		best, err := s.choose(st, configs, n)
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", n.Slot, err)
		}
		end := totalSlots
		if i+1 < len(noms) {
			end = noms[i+1].Slot
		}
		for slot := n.Slot; slot < end; slot++ {
			e := best
			e.TimeSlot = startOfDay.Add(time.Duration(slot) * slotDur)
			e.EnergyKWh = e.EnergyRate * slotDur.Hours()
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (s *Scheduler) checkNominations(totalSlots int) error {
	noms := s.Config.Nominations
	if len(noms) == 0 {
		return errors.New("no nominations")
	}
	if noms[0].Slot != 0 {
		return fmt.Errorf("first nomination must start at slot 0, got %d", noms[0].Slot)
	}
	for i, n := range noms {
		if n.Slot >= totalSlots {
			return fmt.Errorf("nomination %d: slot %d beyond the day's %d slots", i, n.Slot, totalSlots)
		}
		if i > 0 && n.Slot <= noms[i-1].Slot {
			return fmt.Errorf("nomination %d: slots must increase (%d after %d)", i, n.Slot, noms[i-1].Slot)
		}
	}
	return nil
}

// choose evaluates every configuration for n and keeps the one with the
// lowest energy rate. Earlier configurations win ties.
func (s *Scheduler) choose(st *model.Station, configs []string, n Nomination) (PlanEntry, error) {
	e := PlanEntry{Flow: n.Flow, Head: n.Head}
	var best *station.Result
	for _, id := range configs {
		res, err := s.Eval.Evaluate(st, station.Request{
			ConfigurationID: id,
			Flow:            n.Flow,
			Head:            n.Head,
			Mode:            performance.Mode(s.Config.Mode),
		})
		if err != nil {
			switch kind := model.Classify(err); kind {
			case model.KindUnknownConfiguration, model.KindInvalidRequest, model.KindInvalidStation:
				return e, fmt.Errorf("configuration %s: %w", id, err)
			default:
				if e.Reason == "" {
					e.Reason = kind
				}
			}
			continue
		}
		if best == nil || res.EnergyRate < best.EnergyRate {
			best = res
		}
	}
	if best != nil {
		e.ConfigurationID = best.ConfigurationID
		e.ShaftPower = best.ShaftPower
		e.EnergyRate = best.EnergyRate
		e.Reason = ""
	}
	return e, nil
}

// TotalEnergy sums the fuel energy of the served slots in kWh.
func TotalEnergy(entries []PlanEntry) float64 {
	total := 0.0
	for _, e := range entries {
		total += e.EnergyKWh
	}
	return total
}
