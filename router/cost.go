package router

import (
	"log"
	"math"

	"github.com/m-lab/fpga-router/graph"
	"github.com/m-lab/fpga-router/metrics"
	"github.com/m-lab/fpga-router/netlist"
)

// Tunable weights from the cost model. These are fixed constants, not
// exposed as flags: the spec does not call for quality-of-result tuning
// beyond the schedule below.
const (
	sharingWeight = 1.0
	nodeCostWeight = 1.0
	nodeWLWeight   = 0.2
	estWLWeight    = 0.8
)

// congestionState holds the router's global congestion cost-factor
// schedule (present_congestion_factor, present_congestion_multiplier,
// historical_congestion_factor). The fixed ceiling on the present
// factor is the package constant maxPresentCongestionFactor.
type congestionState struct {
	presentFactor     float64
	presentMultiplier float64
	historicalFactor  float64
}

const maxPresentCongestionFactor = 1_000_000

func newCongestionState() *congestionState {
	return &congestionState{
		presentFactor:     0.5,
		presentMultiplier: 2,
		historicalFactor:  1,
	}
}

// update applies the per-iteration cost-factor schedule: when the
// design has been classified as congested, historical and present
// multiplier follow the logistic schedule keyed on iteration number;
// unconditionally, the present factor grows by the multiplier, clamped
// to maxPresentCongestionFactor.
func (cs *congestionState) update(iter int, isCongestedDesign bool) {
	if isCongestedDesign {
		r := 1 / (1 + math.Exp(0.5*(1-float64(iter))))
		cs.historicalFactor = 2 * r

		r2 := 3 / (1 + math.Exp(float64(iter)-1))
		cs.presentMultiplier = 1.1 * (1 + r2)
	}
	cs.presentFactor = math.Min(cs.presentFactor*cs.presentMultiplier, maxPresentCongestionFactor)
}

// applyCostFactorSweep walks every node in the device, recomputing
// present congestion cost from its live occupancy and, for overused
// nodes, accumulating historical congestion cost and counting the node
// as congested. It returns the congested-node count.
func (r *Router) applyCostFactorSweep() int {
	congested := 0
	for _, n := range r.device.Nodes {
		overuse := int(n.Occupancy) - 1
		switch {
		case overuse == 0:
			n.PresentCongestionCost = 1 + r.congestion.presentFactor
		case overuse > 0:
			n.PresentCongestionCost = 1 + float64(overuse+1)*r.congestion.presentFactor
			n.HistoricalCongestionCost += float64(overuse) * r.congestion.historicalFactor
			congested++
		}
	}
	return congested
}

// nodeCost computes the single-connection search cost of entering node
// n, given the net it is being explored for, the requesting net's
// current user-count on n, the live present_congestion_factor, and
// whether n is this search's target. A negative result is a logged
// anomaly, not a fatal error -- the caller is expected to propagate it
// unchanged.
func nodeCost(n *graph.Node, net *netlist.Net, userCnt int, presentFactor, sharingFactor float64, isTarget bool) float64 {
	var presentCC float64
	if userCnt != 0 {
		presentCC = 1 + float64(int(n.Occupancy)-1)*presentFactor
	} else {
		presentCC = n.PresentCongestionCost
	}

	var biasCost float64
	if !isTarget {
		dx := math.Abs(float64(n.EndX) - net.XCenter)
		dy := math.Abs(float64(n.EndY) - net.YCenter)
		biasCost = n.BaseCost / float64(net.NumConnections()) * (dx + dy) / net.HPWL()
	}

	cost := n.BaseCost*n.HistoricalCongestionCost*presentCC/sharingFactor + biasCost
	if cost < 0 {
		metrics.CostAnomalyCount.Inc()
		log.Printf("node %d cost: %v (base=%v historical=%v present=%v sharing=%v)",
			n.ID, cost, n.BaseCost, n.HistoricalCongestionCost, presentCC, sharingFactor)
	}
	return cost
}
