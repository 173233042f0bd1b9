// Package netlist holds the logical Net/Connection/PIP model derived
// from a parsed netlist plus the device graph it references.
package netlist

import (
	"fmt"

	"github.com/m-lab/fpga-router/graph"
)

// PIP is a directed programmable interconnect point asserted by a net:
// parent drives child. Equality is by node id pair, not reference
// identity, so PIPs compare and hash structurally.
type PIP struct {
	Parent, Child int
}

// Connection is a single (source, sink) pair belonging to a net -- the
// unit the router plans one search for.
type Connection struct {
	ID     int
	NetID  int
	Source *graph.Node
	Sink   *graph.Node

	// Bounding box, expanded from the two endpoints by the fixed search
	// pruning margins (marginX, marginY) in NewNetlist at construction time;
	// never changed afterward.
	XMin, XMax, YMin, YMax int

	Routed bool
	// Path is ordered sink-first, source-last.
	Path []*graph.Node
}

// marginX and marginY are the fixed bounding-box expansion margins
// applied once at connection construction.
const (
	marginX = 3
	marginY = 15
)

// HPWL is the half-perimeter wirelength of the connection's bounding
// box, used as the secondary sort key for the connection order.
func (c *Connection) HPWL() int {
	return (c.XMax - c.XMin) + (c.YMax - c.YMin)
}

// Contains reports whether (x, y) lies strictly inside the connection's
// bounding box -- the accessibility test the search applies to the
// *parent* node being expanded from, per the router's design note.
func (c *Connection) Contains(x, y int) bool {
	return x > c.XMin && x < c.XMax && y > c.YMin && y < c.YMax
}

// Net is a logical grouping: one source terminal fanning out to one or
// more sink terminals, each sink owning a Connection.
type Net struct {
	ID            int
	Name          string
	Source        *graph.Node
	Sinks         []*graph.Node
	ConnectionIDs []int

	// userCounts maps node id to the number of (net, node) user records
	// this net currently holds on that node. Invariant: summing
	// userCounts[id] for this node across all nets equals node.Occupancy,
	// and a node is present in userCounts iff its count is >= 1.
	userCounts map[int]int

	pips map[PIP]struct{}

	XMin, XMax, YMin, YMax int
	XCenter, YCenter       float64
}

func newNet(id int, name string, source *graph.Node, sinks []*graph.Node) *Net {
	net := &Net{
		ID:         id,
		Name:       name,
		Source:     source,
		Sinks:      sinks,
		userCounts: make(map[int]int),
		pips:       make(map[PIP]struct{}),
	}
	net.computeBBox()
	return net
}

func (net *Net) computeBBox() {
	xs := make([]int, 0, len(net.Sinks)+1)
	ys := make([]int, 0, len(net.Sinks)+1)
	sumX, sumY := 0.0, 0.0
	add := func(n *graph.Node) {
		xs = append(xs, n.EndX)
		ys = append(ys, n.EndY)
		sumX += float64(n.EndX)
		sumY += float64(n.EndY)
	}
	add(net.Source)
	for _, s := range net.Sinks {
		add(s)
	}
	net.XMin, net.XMax = xs[0], xs[0]
	net.YMin, net.YMax = ys[0], ys[0]
	for _, x := range xs[1:] {
		if x < net.XMin {
			net.XMin = x
		}
		if x > net.XMax {
			net.XMax = x
		}
	}
	for _, y := range ys[1:] {
		if y < net.YMin {
			net.YMin = y
		}
		if y > net.YMax {
			net.YMax = y
		}
	}
	count := float64(len(xs))
	net.XCenter = sumX / count
	net.YCenter = sumY / count
}

// HPWL returns the net's half-perimeter wirelength used in the node
// bias-cost term, with the +1 padding the cost function's denominator
// expects.
func (net *Net) HPWL() float64 {
	return 2 * (float64(net.XMax-net.XMin+1) + float64(net.YMax-net.YMin+1))
}

// NumConnections is the net's fan-out: one per sink.
func (net *Net) NumConnections() int {
	return len(net.ConnectionIDs)
}

// UserCount returns how many (net, node) user records this net holds
// on node -- zero if the net does not currently claim it.
func (net *Net) UserCount(node *graph.Node) int {
	return net.userCounts[node.ID]
}

// AddUser increments this net's user-count on node by one and bumps
// the node's occupancy to match.
func (net *Net) AddUser(node *graph.Node) {
	net.userCounts[node.ID]++
	node.Occupancy++
}

// RemoveUser decrements this net's user-count on node by one, dropping
// the node.Occupancy in step, and removes the zeroed entry so the "node
// present in user map iff count >= 1" invariant holds.
func (net *Net) RemoveUser(node *graph.Node) {
	c, ok := net.userCounts[node.ID]
	if !ok || c == 0 {
		return
	}
	c--
	if c == 0 {
		delete(net.userCounts, node.ID)
	} else {
		net.userCounts[node.ID] = c
	}
	node.Occupancy--
}

// AddPIP records a (parent, child) edge as asserted by this net,
// deduplicated by value.
func (net *Net) AddPIP(parent, child *graph.Node) {
	net.pips[PIP{Parent: parent.ID, Child: child.ID}] = struct{}{}
}

// PIPs returns the net's asserted PIP set.
func (net *Net) PIPs() map[PIP]struct{} {
	return net.pips
}

// ClearPIPs drops all PIPs previously asserted by this net -- used by
// the evaluator before loading a results file.
func (net *Net) ClearPIPs() {
	net.pips = make(map[PIP]struct{})
}

// Netlist is the full collection of nets and connections for one
// routing run, built once from the device graph plus a parsed netlist.
type Netlist struct {
	device      *graph.Device
	Nets        map[int]*Net
	Connections map[int]*Connection
	nextConnID  int
}

// NewNetlist builds nets and connections from parsed net descriptions.
// For each net it marks the source node's type PINFEED_O, allocates one
// connection per sink with a monotonically increasing id, marks each
// sink's type PINFEED_I, and records the connection id on the net.
func NewNetlist(device *graph.Device, descs []NetDescription) (*Netlist, error) {
	nl := &Netlist{
		device:      device,
		Nets:        make(map[int]*Net),
		Connections: make(map[int]*Connection),
	}
	for _, d := range descs {
		source, err := nl.node(d.SourceNodeID)
		if err != nil {
			return nil, fmt.Errorf("net %d %q: %w", d.ID, d.Name, err)
		}
		source.Type = graph.PINFEED_O

		sinks := make([]*graph.Node, 0, len(d.SinkNodeIDs))
		for _, sid := range d.SinkNodeIDs {
			sink, err := nl.node(sid)
			if err != nil {
				return nil, fmt.Errorf("net %d %q: %w", d.ID, d.Name, err)
			}
			sink.Type = graph.PINFEED_I
			sinks = append(sinks, sink)
		}

		net := newNet(d.ID, d.Name, source, sinks)
		for _, sink := range sinks {
			conn := &Connection{
				ID:     nl.nextConnID,
				NetID:  net.ID,
				Source: source,
				Sink:   sink,
			}
			conn.XMin = min(source.EndX, sink.EndX) - marginX
			conn.XMax = max(source.EndX, sink.EndX) + marginX
			conn.YMin = min(source.EndY, sink.EndY) - marginY
			conn.YMax = max(source.EndY, sink.EndY) + marginY

			nl.Connections[conn.ID] = conn
			net.ConnectionIDs = append(net.ConnectionIDs, conn.ID)
			nl.nextConnID++
		}
		nl.Nets[net.ID] = net
	}
	return nl, nil
}

func (nl *Netlist) node(id int) (*graph.Node, error) {
	if id < 0 || id >= len(nl.device.Nodes) {
		return nil, fmt.Errorf("node id %d out of range", id)
	}
	return nl.device.Nodes[id], nil
}

// NetDescription is the parsed, pre-construction shape of one netlist
// line: "id name source_node_id [sink_node_id ...]".
type NetDescription struct {
	ID           int
	Name         string
	SourceNodeID int
	SinkNodeIDs  []int
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
