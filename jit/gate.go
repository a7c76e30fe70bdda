package jit

import (
	"fmt"
	"strings"

	"github.com/sarchlab/rvjit/ir"
)

// Gate sends whole opcode families to the fallback. It is used to bisect
// miscompilations down to a family. The zero value and a nil *Gate are
// transparent.
type Gate struct {
	disabled map[ir.Family]bool
}

// NewGate returns a gate with the given families disabled.
func NewGate(families ...ir.Family) *Gate {
	g := &Gate{}
	for _, f := range families {
		g.Disable(f)
	}
	return g
}

// ParseGate builds a gate from a comma-separated list of family names. The
// name "all" disables every family; an empty string disables none.
func ParseGate(list string) (*Gate, error) {
	g := &Gate{}
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		switch {
		case name == "":
		case strings.EqualFold(name, "all"):
			g.DisableAll()
		default:
			f, err := ir.ParseFamily(name)
			if err != nil {
				return nil, fmt.Errorf("parse gate: %w", err)
			}
			g.Disable(f)
		}
	}
	return g, nil
}

// Disable sends family f to the fallback.
func (g *Gate) Disable(f ir.Family) {
	if g.disabled == nil {
		g.disabled = make(map[ir.Family]bool)
	}
	g.disabled[f] = true
}

// DisableAll disables every family.
func (g *Gate) DisableAll() {
	for _, f := range ir.AllFamilies() {
		g.Disable(f)
	}
}

// Enable restores native compilation of family f.
func (g *Gate) Enable(f ir.Family) {
	if g == nil {
		return
	}
	delete(g.disabled, f)
}

// Disabled reports whether family f goes to the fallback.
func (g *Gate) Disabled(f ir.Family) bool {
	return g != nil && g.disabled[f]
}

// Families returns the disabled families in declaration order.
func (g *Gate) Families() []ir.Family {
	var fams []ir.Family
	for _, f := range ir.AllFamilies() {
		if g.Disabled(f) {
			fams = append(fams, f)
		}
	}
	return fams
}

// String lists the disabled families, comma-separated.
func (g *Gate) String() string {
	names := make([]string, 0, len(ir.AllFamilies()))
	for _, f := range g.Families() {
		names = append(names, f.String())
	}
	return strings.Join(names, ",")
}
