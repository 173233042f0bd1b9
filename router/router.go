// Package router implements the iterative, ripup-and-reroute PathFinder
// negotiated-congestion engine: connection ordering, ripup, the
// per-connection A* search with dynamic node costs, the congestion
// cost-factor schedule, and PIP emission.
package router

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/m-lab/go/rtx"

	"github.com/m-lab/fpga-router/graph"
	"github.com/m-lab/fpga-router/metrics"
	"github.com/m-lab/fpga-router/netlist"
)

// MaxIterations bounds the ripup-and-reroute loop; it is the sole
// termination bound apart from the early-exit condition of zero
// congested nodes and zero failed connections.
const MaxIterations = 500

// Router drives the iterative routing of every connection in a
// Netlist over a Device.
type Router struct {
	device  *graph.Device
	netlist *netlist.Netlist

	order []int // connection ids, in the fixed sort order

	congestion *congestionState

	isCongestedDesign bool
	congestedDecided  bool

	maxIterations int
	history       []Stats
}

// New builds a Router for device/netlist, computing the fixed
// connection sort order (descending net fan-out, then ascending HPWL)
// once up front.
func New(device *graph.Device, nl *netlist.Netlist) *Router {
	r := &Router{
		device:        device,
		netlist:       nl,
		congestion:    newCongestionState(),
		maxIterations: MaxIterations,
	}
	r.order = sortedConnectionOrder(nl)
	return r
}

// SetMaxIterations overrides the default 500-iteration cap. Intended
// for experimentation from the CLI; callers should not lower it below
// 1.
func (r *Router) SetMaxIterations(n int) {
	r.maxIterations = n
}

func sortedConnectionOrder(nl *netlist.Netlist) []int {
	ids := make([]int, 0, len(nl.Connections))
	for id := range nl.Connections {
		ids = append(ids, id)
	}
	fanout := func(connID int) int {
		conn := nl.Connections[connID]
		return nl.Nets[conn.NetID].NumConnections()
	}
	sort.SliceStable(ids, func(i, j int) bool {
		fi, fj := fanout(ids[i]), fanout(ids[j])
		if fi != fj {
			return fi > fj // descending fan-out
		}
		hi := nl.Connections[ids[i]].HPWL()
		hj := nl.Connections[ids[j]].HPWL()
		return hi < hj // ascending HPWL
	})
	return ids
}

// Stats summarizes one completed iteration, printed the way the
// teacher's collector/saver print periodic pipeline stats.
type Stats struct {
	Iteration       int
	Routed          int
	Failed          int
	CongestedNodes  int
	IsCongested     bool
}

// Print logs a one-line per-iteration summary.
func (s Stats) Print() {
	log.Printf("iteration %d: routed=%d failed=%d congested_nodes=%d congested_design=%v",
		s.Iteration, s.Routed, s.Failed, s.CongestedNodes, s.IsCongested)
}

// Run executes the full ripup-and-reroute loop, seeding sink occupancy
// once, then iterating until convergence or MaxIterations. It returns
// the Stats of the final iteration executed.
func (r *Router) Run() Stats {
	r.seedSinkOccupancy()

	var last Stats
	for iter := 1; iter <= r.maxIterations; iter++ {
		start := time.Now()
		r.device.NewSearchStampBase(len(r.netlist.Connections))

		routedCount, failedCount := 0, 0
		for _, connID := range r.order {
			conn := r.netlist.Connections[connID]
			if !r.shouldRoute(conn) {
				continue
			}
			r.ripup(conn)
			ok := r.routeConnection(conn, iter)
			if ok {
				routedCount++
			} else {
				failedCount++
				log.Printf("iteration %d: connection %d (net %d) failed to route", iter, conn.ID, conn.NetID)
			}
		}

		if !r.congestedDecided {
			ratio := 0.0
			if len(r.netlist.Connections) > 0 {
				ratio = float64(r.countCongestedNodes()) / float64(len(r.netlist.Connections))
			}
			r.isCongestedDesign = ratio > 0.45
			r.congestedDecided = true
		}

		r.congestion.update(iter, r.isCongestedDesign)
		congestedNodes := r.applyCostFactorSweep()

		metrics.IterationDurationHistogram.Observe(time.Since(start).Seconds())
		metrics.CongestedNodeGauge.Set(float64(congestedNodes))
		metrics.FailedConnectionGauge.Set(float64(failedCount))
		metrics.RoutedConnectionCount.Add(float64(routedCount))
		metrics.PresentCongestionFactorGauge.Set(r.congestion.presentFactor)
		metrics.HistoricalCongestionFactorGauge.Set(r.congestion.historicalFactor)

		last = Stats{
			Iteration:      iter,
			Routed:         routedCount,
			Failed:         failedCount,
			CongestedNodes: congestedNodes,
			IsCongested:    r.isCongestedDesign,
		}
		last.Print()
		r.history = append(r.history, last)

		if congestedNodes == 0 && failedCount == 0 {
			break
		}
	}

	r.emitPIPs()
	return last
}

// seedSinkOccupancy gives every connection's sink an initial
// user-count of one, so no search can later claim a sink node fresh.
// It is a hard invariant that no sink is shared across connections at
// this point.
func (r *Router) seedSinkOccupancy() {
	for _, connID := range r.order {
		conn := r.netlist.Connections[connID]
		net := r.netlist.Nets[conn.NetID]
		if conn.Sink.Occupancy > 0 {
			rtx.Must(fmt.Errorf("sink node %d is already claimed before seeding (net %d, connection %d)",
				conn.Sink.ID, net.ID, conn.ID), "invariant violation")
		}
		net.AddUser(conn.Sink)
		r.recomputePresentCost(conn.Sink)
	}
}

// shouldRoute reports whether conn needs a route attempt this
// iteration: either it was never routed, or some node on its current
// path is congested.
func (r *Router) shouldRoute(conn *netlist.Connection) bool {
	if !conn.Routed {
		return true
	}
	for _, n := range conn.Path {
		if n.Congested() {
			return true
		}
	}
	return false
}

// ripup releases conn's current path (or, if unrouted with an empty
// path, its seeded sink) and clears Routed/Path.
func (r *Router) ripup(conn *netlist.Connection) {
	net := r.netlist.Nets[conn.NetID]
	path := conn.Path
	if len(path) == 0 && !conn.Routed {
		path = []*graph.Node{conn.Sink}
	}
	for _, n := range path {
		net.RemoveUser(n)
		r.recomputePresentCost(n)
	}
	conn.Path = nil
	conn.Routed = false
}

// recomputePresentCost refreshes n.PresentCongestionCost from its
// current occupancy and the live present_congestion_factor, the
// incremental counterpart to the per-iteration sweep in
// applyCostFactorSweep. It does not touch historical cost or the
// congested-node count -- those are only updated by the once-per-
// iteration sweep.
func (r *Router) recomputePresentCost(n *graph.Node) {
	overuse := int(n.Occupancy) - 1
	switch {
	case overuse == 0:
		n.PresentCongestionCost = 1 + r.congestion.presentFactor
	case overuse > 0:
		n.PresentCongestionCost = 1 + float64(overuse+1)*r.congestion.presentFactor
	default:
		// occupancy 0: a fully-freed node resets to the baseline cost.
		// This is the incremental routine, distinct from the bulk
		// per-iteration sweep in applyCostFactorSweep, which leaves an
		// unoccupied node's present cost untouched.
		n.PresentCongestionCost = 1
	}
}

func (r *Router) countCongestedNodes() int {
	count := 0
	for _, n := range r.device.Nodes {
		if n.Congested() {
			count++
		}
	}
	return count
}

// Netlist returns the netlist this Router routes, for callers that
// need to serialize or report on it after Run.
func (r *Router) Netlist() *netlist.Netlist {
	return r.netlist
}

// History returns the per-iteration Stats collected across the most
// recent Run call, in iteration order.
func (r *Router) History() []Stats {
	return r.history
}
