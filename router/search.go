package router

import (
	"container/heap"
	"fmt"

	"github.com/m-lab/go/rtx"

	"github.com/m-lab/fpga-router/graph"
	"github.com/m-lab/fpga-router/metrics"
	"github.com/m-lab/fpga-router/netlist"
)

// watchdogLimit bounds the save-path walk, guarding against a cycle in
// Prev.
const watchdogLimit = 100000

// searchQueue is a container/heap priority queue of nodes ordered by
// ascending TotalPathCost. Nodes are pushed into it at most once per
// search: the stamp write at push time marks them visited, so the
// expansion step never re-relaxes an already-queued node.
type searchQueue []*graph.Node

func (q searchQueue) Len() int            { return len(q) }
func (q searchQueue) Less(i, j int) bool  { return q[i].TotalPathCost < q[j].TotalPathCost }
func (q searchQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *searchQueue) Push(x interface{}) { *q = append(*q, x.(*graph.Node)) }
func (q *searchQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// routeConnection runs the single-connection best-first search for
// conn and, on success, saves the path and updates occupancy and
// present congestion cost along it.
func (r *Router) routeConnection(conn *netlist.Connection, iter int) bool {
	net := r.netlist.Nets[conn.NetID]
	stamp := r.device.SearchStamp(conn.ID)

	sink := conn.Sink
	sink.TargetStamp = stamp
	sink.Prev = nil
	sink.TotalPathCost = 0
	sink.UpstreamCost = 0

	source := conn.Source
	source.Prev = nil
	source.TotalPathCost = 0
	source.UpstreamCost = 0
	source.LastVisitedStamp = stamp

	q := &searchQueue{source}
	heap.Init(q)

	found := false
	pops := 0
	for q.Len() > 0 && !found {
		u := heap.Pop(q).(*graph.Node)
		pops++

	children:
		for _, c := range u.Children {
			if c.Visited(stamp) {
				continue
			}
			if !c.Accessible {
				// Zero-length HQUAD/HLONG nodes are topologically present
				// but carry no physical routing resource; treat as absent.
				continue
			}
			if c.IsTarget(stamp) {
				c.Prev = u
				found = true
				break children
			}
			if !conn.Contains(u.EndX, u.EndY) {
				continue
			}
			if !r.nodeTypeAllowed(c, u, stamp) {
				continue
			}

			userCnt := net.UserCount(c)
			sharingFactor := 1 + sharingWeight*float64(userCnt)
			costOfC := nodeCost(c, net, userCnt, r.congestion.presentFactor, sharingFactor, false)
			upstreamOfC := u.UpstreamCost + nodeCostWeight*costOfC + nodeWLWeight*float64(u.Length)/sharingFactor

			dx := absInt(c.EndX - sink.BeginX)
			dy := absInt(c.EndY - sink.BeginY)
			total := upstreamOfC + estWLWeight*float64(dx+dy)/sharingFactor

			c.Prev = u
			c.TotalPathCost = total
			c.UpstreamCost = upstreamOfC
			c.LastVisitedStamp = stamp
			c.TargetStamp = -1
			heap.Push(q, c)
		}
	}

	metrics.SearchPopCountHistogram.Observe(float64(pops))

	if !found {
		return false
	}

	r.savePath(conn, net)
	return true
}

// nodeTypeAllowed applies the node-type gate on c, the node being
// considered for expansion from u: WIRE/PINBOUNCE/PINFEED_O are always
// allowed; PINFEED_I is only allowed when u is itself this search's
// target, preventing traversal through an unrelated sink pin.
func (r *Router) nodeTypeAllowed(c, u *graph.Node, stamp int64) bool {
	switch c.Type {
	case graph.PINFEED_I:
		return u.IsTarget(stamp)
	default:
		return true
	}
}

// savePath walks Prev from the target back to the source, appending
// nodes to conn.Path in traversal order (sink-first, source-last).
// Reaching the source is a hard invariant; a watchdog guards against an
// unexpected cycle in Prev.
func (r *Router) savePath(conn *netlist.Connection, net *netlist.Net) {
	path := make([]*graph.Node, 0, 16)
	n := conn.Sink
	steps := 0
	for {
		path = append(path, n)
		if n == conn.Source {
			break
		}
		if n.Prev == nil {
			rtx.Must(fmt.Errorf("save-path for connection %d (net %d) failed to reach source %d, stopped at node %d",
				conn.ID, conn.NetID, conn.Source.ID, n.ID), "invariant violation")
		}
		n = n.Prev
		steps++
		if steps > watchdogLimit {
			rtx.Must(fmt.Errorf("save-path watchdog tripped for connection %d (net %d), exceeded %d steps",
				conn.ID, conn.NetID, watchdogLimit), "invariant violation")
		}
	}

	conn.Path = path
	conn.Routed = true
	for _, pn := range path {
		net.AddUser(pn)
		r.recomputePresentCost(pn)
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
