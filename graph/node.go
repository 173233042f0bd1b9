// Package graph holds the immutable device-graph topology plus the
// mutable per-node routing scratch the router negotiates over.
package graph

import "github.com/m-lab/fpga-router/intent"

// NodeType classifies how a node may participate in a search, derived
// at construction and later promoted when a net/connection claims the
// node as a source or sink.
type NodeType int

// Node types.
const (
	WIRE NodeType = iota
	PINBOUNCE
	PINFEED_I
	PINFEED_O
)

// Node is one routing resource. Static fields never change after
// construction; the rest is per-node mutable scratch the router owns
// for the process lifetime (see design note on stamp-based
// invalidation in Device.NewSearchStampBase).
type Node struct {
	ID     int
	Intent intent.Code
	Length int
	BeginX, BeginY int
	EndX, EndY     int

	BaseCost   float64
	Accessible bool
	Type       NodeType

	Children []*Node

	// Mutable routing state.
	Occupancy                uint
	PresentCongestionCost    float64
	HistoricalCongestionCost float64

	// Per-search scratch, stamp-guarded; see Device.SearchStamp.
	Prev             *Node
	TotalPathCost    float64
	UpstreamCost     float64
	LastVisitedStamp int64
	TargetStamp      int64

	UsedByNetID int
}

// newNode derives a node's immutable fields and zeroes its mutable
// state, per the device-graph invariants.
func newNode(id int, ic intent.Code, length, bx, by, ex, ey int) (*Node, error) {
	geom := intent.Geometry{Length: length, BeginX: bx, BeginY: by, EndX: ex, EndY: ey}
	cost, err := intent.BaseCost(ic, geom)
	if err != nil {
		return nil, err
	}
	nodeType := WIRE
	if ic == intent.PINBOUNCE {
		nodeType = PINBOUNCE
	}
	return &Node{
		ID:                       id,
		Intent:                   ic,
		Length:                   length,
		BeginX:                   bx,
		BeginY:                   by,
		EndX:                     ex,
		EndY:                     ey,
		BaseCost:                 cost,
		Accessible:               intent.Accessible(ic, geom),
		Type:                     nodeType,
		PresentCongestionCost:    1,
		HistoricalCongestionCost: 1,
		LastVisitedStamp:         -1,
		TargetStamp:              -1,
		UsedByNetID:              -1,
	}, nil
}

// Visited reports whether this node was touched by the search
// currently tagged with stamp.
func (n *Node) Visited(stamp int64) bool {
	return n.LastVisitedStamp == stamp
}

// IsTarget reports whether this node is the sink of the search
// currently tagged with stamp.
func (n *Node) IsTarget(stamp int64) bool {
	return n.TargetStamp == stamp
}

// Congested reports whether more than one net currently claims this
// node.
func (n *Node) Congested() bool {
	return n.Occupancy > 1
}
