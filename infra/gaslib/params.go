package gaslib

import (
	"fmt"
	"strconv"

	"github.com/kilianp07/compstation/core/surface"
)

// GasLib unit tags. The engine is unit agnostic and relies on every file
// using these.
const (
	unitSpeed  = "per_min"
	unitHead   = "kJ_per_kg"
	unitFlow   = "m_cube_per_s"
	unitPower  = "kW"
	unitTorque = "kNm"
	unitVolume = "m_cube"
)

type param struct {
	value float64
	unit  string
}

// params resolves scalar child elements by name. The first lookup failure is
// kept in err so builders can read every field and check once.
type params struct {
	subject string
	values  map[string]param
	err     error
}

func newParams(subject string, raw []xmlParam) (*params, error) {
	p := &params{subject: subject, values: make(map[string]param, len(raw))}
	for _, r := range raw {
		name := r.XMLName.Local
		if _, dup := p.values[name]; dup {
			return nil, fmt.Errorf("%s: duplicate element %s", subject, name)
		}
		v, err := strconv.ParseFloat(r.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: element %s value %q: %w", subject, name, r.Value, err)
		}
		p.values[name] = param{value: v, unit: r.Unit}
	}
	return p, nil
}

// get returns the named value. A non-empty unit must match the element's
// unit tag when the element carries one.
func (p *params) get(name, unit string) float64 {
	v, ok := p.values[name]
	if !ok {
		p.fail(fmt.Errorf("%s: missing element %s", p.subject, name))
		return 0
	}
	if unit != "" && v.unit != "" && v.unit != unit {
		p.fail(fmt.Errorf("%s: element %s has unit %s, want %s", p.subject, name, v.unit, unit))
	}
	return v.value
}

func (p *params) surface(prefix string) surface.Surface {
	var s surface.Surface
	for i := range s {
		s[i] = p.get(fmt.Sprintf("%s%d", prefix, i+1), "")
	}
	return s
}

func (p *params) curve(prefix string) surface.Curve {
	var c surface.Curve
	for i := range c {
		c[i] = p.get(fmt.Sprintf("%s%d", prefix, i+1), "")
	}
	return c
}

func (p *params) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}
