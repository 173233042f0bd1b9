// Package evaluator independently verifies a produced routing: it
// detects congestion, checks sink reachability via emitted PIPs, and
// totals wirelength.
package evaluator

import (
	"errors"
	"fmt"
	"log"

	"github.com/m-lab/go/rtx"

	"github.com/m-lab/fpga-router/graph"
	"github.com/m-lab/fpga-router/ioresult"
	"github.com/m-lab/fpga-router/metrics"
	"github.com/m-lab/fpga-router/netlist"
)

// errOutOfRange reports a PIP endpoint that names a node id outside
// the device graph.
var errOutOfRange = errors.New("node id out of range")

// watchdogLimit bounds each sink's child->parent walk during the
// reachability check, mirroring the router's save-path watchdog.
const watchdogLimit = 100000

// Report summarizes the evaluator's three checks.
type Report struct {
	CongestedNodes   int
	SuccessfulNets   int
	TotalNets        int
	Wirelength       int
	FailedNetIDs     []int
}

// Evaluator holds the device graph and netlist a result file is
// checked against.
type Evaluator struct {
	device  *graph.Device
	netlist *netlist.Netlist
	debug   bool
}

// New builds an Evaluator. debug enables per-failure partial-path
// dumps during the reachability check, matching the evaluator CLI's
// default debug-on behavior (§6: the optional "debug" token *disables*
// the dumps).
func New(device *graph.Device, nl *netlist.Netlist, debug bool) *Evaluator {
	return &Evaluator{device: device, netlist: nl, debug: debug}
}

// Load clears any PIPs already present on the evaluator's nets, then
// loads the already-parsed result blocks: a block matches a net only when both
// its id and name agree with the netlist; unknown node ids referenced
// by a PIP are logged and skipped.
func (e *Evaluator) Load(results []ioresult.NetResult) {
	for _, net := range e.netlist.Nets {
		net.ClearPIPs()
	}

	for _, block := range results {
		net, ok := e.netlist.Nets[block.NetID]
		if !ok || net.Name != block.Name {
			log.Printf("evaluator: result block %d %q does not match any net by id+name, ignoring", block.NetID, block.Name)
			continue
		}
		for _, p := range block.PIPs {
			parent, perr := e.node(p.Parent)
			child, cerr := e.node(p.Child)
			if perr != nil || cerr != nil {
				log.Printf("evaluator: net %d: PIP (%d,%d) references an unknown node, skipping", net.ID, p.Parent, p.Child)
				continue
			}
			net.AddPIP(parent, child)
		}
	}
}

func (e *Evaluator) node(id int) (*graph.Node, error) {
	if id < 0 || id >= len(e.device.Nodes) {
		return nil, errOutOfRange
	}
	return e.device.Nodes[id], nil
}

// Evaluate runs the three independent checks and returns a Report.
func (e *Evaluator) Evaluate() Report {
	congested := e.checkCongestion()
	successful, failed := e.checkReachability()
	wirelength := e.checkWirelength()

	metrics.EvalCongestedNodes.Set(float64(congested))
	metrics.EvalSuccessfulNets.Set(float64(successful))
	metrics.EvalWirelength.Set(float64(wirelength))

	return Report{
		CongestedNodes: congested,
		SuccessfulNets: successful,
		TotalNets:      len(e.netlist.Nets),
		Wirelength:     wirelength,
		FailedNetIDs:   failed,
	}
}

// checkCongestion resets used_by_net_id on every node, then marks both
// PIP endpoints for every net; a node marked by two distinct nets is
// congested.
func (e *Evaluator) checkCongestion() int {
	for _, n := range e.device.Nodes {
		n.UsedByNetID = -1
	}

	congested := 0
	mark := func(n *graph.Node, netID int) {
		if n.UsedByNetID == -1 {
			n.UsedByNetID = netID
		} else if n.UsedByNetID != netID && n.UsedByNetID != -2 {
			n.UsedByNetID = -2 // sentinel: congested
			congested++
		}
	}

	for _, net := range e.netlist.Nets {
		for p := range net.PIPs() {
			if p.Parent >= 0 && p.Parent < len(e.device.Nodes) {
				mark(e.device.Nodes[p.Parent], net.ID)
			}
			if p.Child >= 0 && p.Child < len(e.device.Nodes) {
				mark(e.device.Nodes[p.Child], net.ID)
			}
		}
	}
	return congested
}

// checkReachability builds a child->parent map from each net's PIPs --
// keeping only PIPs whose (parent, child) pair is a real adjacency
// edge in the device graph, since a PIP that isn't a real edge cannot
// belong to a valid path -- then walks that map from every sink toward
// the net's source. A net is successfully routed iff every sink
// reaches source.
func (e *Evaluator) checkReachability() (successful int, failedNetIDs []int) {
	for _, net := range e.netlist.Nets {
		childToParent := e.buildChildParentMap(net)

		ok := true
		for _, sink := range net.Sinks {
			if !e.walkToSource(net, sink, net.Source, childToParent) {
				ok = false
			}
		}
		if ok {
			successful++
		} else {
			failedNetIDs = append(failedNetIDs, net.ID)
		}
	}
	return successful, failedNetIDs
}

func (e *Evaluator) buildChildParentMap(net *netlist.Net) map[int]int {
	m := make(map[int]int, len(net.PIPs()))
	for p := range net.PIPs() {
		if p.Parent < 0 || p.Parent >= len(e.device.Nodes) || p.Child < 0 || p.Child >= len(e.device.Nodes) {
			continue
		}
		if !isRealEdge(e.device.Nodes[p.Parent], e.device.Nodes[p.Child]) {
			continue
		}
		m[p.Child] = p.Parent
	}
	return m
}

func isRealEdge(parent, child *graph.Node) bool {
	for _, c := range parent.Children {
		if c.ID == child.ID {
			return true
		}
	}
	return false
}

func (e *Evaluator) walkToSource(net *netlist.Net, sink, source *graph.Node, childToParent map[int]int) bool {
	cur := sink.ID
	chain := []int{cur}
	steps := 0
	for {
		if cur == source.ID {
			return true
		}
		parent, ok := childToParent[cur]
		if !ok {
			if e.debug {
				log.Printf("evaluator: net %d sink %d failed to reach source %d, partial chain: %v",
					net.ID, sink.ID, source.ID, chain)
			}
			return false
		}
		cur = parent
		chain = append(chain, cur)
		steps++
		if steps > watchdogLimit {
			rtx.Must(fmt.Errorf("reachability watchdog tripped for net %d sink %d", net.ID, sink.ID),
				"invariant violation")
		}
	}
}

// checkWirelength sums Length over the set of distinct nodes appearing
// as any PIP endpoint, across all nets.
func (e *Evaluator) checkWirelength() int {
	seen := make(map[int]struct{})
	total := 0
	for _, net := range e.netlist.Nets {
		for p := range net.PIPs() {
			for _, id := range [2]int{p.Parent, p.Child} {
				if _, ok := seen[id]; ok {
					continue
				}
				if id < 0 || id >= len(e.device.Nodes) {
					continue
				}
				seen[id] = struct{}{}
				total += e.device.Nodes[id].Length
			}
		}
	}
	return total
}
