// Package intent defines the routing-node intent codes and the pure
// base-cost and accessibility derivation described for the device graph.
package intent

import "fmt"

// Code identifies the physical kind of a routing resource. The numeric
// values are arbitrary; only the names carry meaning.
type Code int

// Intent codes recognized by the device graph.
const (
	LOCAL Code = iota
	PINFEED
	VLONG
	HQUAD
	INTENT_DEFAULT
	HLONG
	PINBOUNCE
	SINGLE
	VQUAD
	INT_INTERFACE
	DOUBLE
	CLE_OUTPUT
)

var names = map[Code]string{
	LOCAL:          "NODE_LOCAL",
	PINFEED:        "NODE_PINFEED",
	VLONG:          "NODE_VLONG",
	HQUAD:          "NODE_HQUAD",
	INTENT_DEFAULT: "NODE_INTENT_DEFAULT",
	HLONG:          "NODE_HLONG",
	PINBOUNCE:      "NODE_PINBOUNCE",
	SINGLE:         "NODE_SINGLE",
	VQUAD:          "NODE_VQUAD",
	INT_INTERFACE:  "NODE_INT_INTERFACE",
	DOUBLE:         "NODE_DOUBLE",
	CLE_OUTPUT:     "NODE_CLE_OUTPUT",
}

var byName map[string]Code

func init() {
	byName = make(map[string]Code, len(names))
	for c, n := range names {
		byName[n] = c
	}
}

func (c Code) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return fmt.Sprintf("NODE_UNKNOWN(%d)", int(c))
}

// Parse maps a device-file intent token to a Code. An unrecognized
// token is a load-time usage error, not a routing invariant violation;
// callers are expected to treat the returned error as fatal for the
// file being parsed.
func Parse(token string) (Code, error) {
	c, ok := byName[token]
	if !ok {
		return 0, fmt.Errorf("unknown intent code %q", token)
	}
	return c, nil
}

// Geometry is the subset of a node's static fields that base-cost and
// accessibility derivation depend on.
type Geometry struct {
	Length           int
	BeginX, BeginY   int
	EndX, EndY       int
}

// BaseCost derives the immutable per-node base cost from intent code
// and geometry, per the table in the device-graph design. A non-nil
// error means the SINGLE/DOUBLE length assertion failed; callers are
// expected to treat that as fatal (graph.LoadDevice returns it, and both
// commands stop on it with rtx.Must).
func BaseCost(c Code, g Geometry) (float64, error) {
	switch c {
	case LOCAL, CLE_OUTPUT, INTENT_DEFAULT, PINFEED, PINBOUNCE, INT_INTERFACE:
		return 0.4, nil
	case SINGLE:
		if g.Length < 0 || g.Length > 2 {
			return 0, fmt.Errorf("SINGLE node with out-of-bounds length %d", g.Length)
		}
		if g.Length == 2 {
			return 0.8, nil
		}
		return 0.4, nil
	case DOUBLE:
		if g.EndX == g.BeginX {
			// Vertical DOUBLE.
			if g.Length < 0 || g.Length > 3 {
				return 0, fmt.Errorf("vertical DOUBLE node with out-of-bounds length %d", g.Length)
			}
			return 0.4, nil
		}
		// Horizontal DOUBLE.
		if g.Length < 0 || g.Length > 2 {
			return 0, fmt.Errorf("horizontal DOUBLE node with out-of-bounds length %d", g.Length)
		}
		if g.Length == 2 {
			return 0.8, nil
		}
		return 0.4, nil
	case HQUAD:
		if g.Length > 0 {
			return 0.35 * float64(g.Length), nil
		}
		return 0.4, nil
	case VQUAD:
		if g.Length > 0 {
			return 0.15 * float64(g.Length), nil
		}
		return 0.4, nil
	case HLONG:
		if g.Length > 0 {
			return 0.15 * float64(g.Length), nil
		}
		return 0.4, nil
	case VLONG:
		return 0.7 * float64(g.Length), nil
	default:
		return 0.4, nil
	}
}

// Accessible reports whether a node of this intent/geometry may be
// entered by the router. Only zero-length HQUAD/HLONG nodes are
// inaccessible.
func Accessible(c Code, g Geometry) bool {
	if g.Length == 0 && (c == HQUAD || c == HLONG) {
		return false
	}
	return true
}
