package graph_test

import (
	"strings"
	"testing"

	"github.com/m-lab/fpga-router/graph"
)

// trivialChainDevice builds the 3-node device graph from the spec's
// "trivial chain" scenario: 0 -> 1 -> 2, all LOCAL/PINFEED intent.
const trivialChainDevice = `3
0 NODE_LOCAL 0 0 0 0 0
1 NODE_LOCAL 1 1 0 1 0
2 NODE_PINFEED 0 2 0 2 0

0 1
1 2
2
`

func TestLoadDeviceTrivialChain(t *testing.T) {
	dev, err := graph.LoadDevice(strings.NewReader(trivialChainDevice), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(dev.Nodes) != 3 {
		t.Fatalf("want 3 nodes, got %d", len(dev.Nodes))
	}
	if len(dev.Nodes[0].Children) != 1 || dev.Nodes[0].Children[0].ID != 1 {
		t.Errorf("node 0 should have one child, node 1")
	}
	if len(dev.Nodes[1].Children) != 1 || dev.Nodes[1].Children[0].ID != 2 {
		t.Errorf("node 1 should have one child, node 2")
	}
	if len(dev.Nodes[2].Children) != 0 {
		t.Errorf("node 2 should have no children")
	}
	for _, n := range dev.Nodes {
		if n.Occupancy != 0 || n.UsedByNetID != -1 || n.LastVisitedStamp != -1 || n.TargetStamp != -1 {
			t.Errorf("node %d: mutable scratch should start zeroed/sentineled, got %+v", n.ID, n)
		}
		if n.PresentCongestionCost != 1 || n.HistoricalCongestionCost != 1 {
			t.Errorf("node %d: congestion costs should start at 1", n.ID)
		}
	}
}

func TestLoadDeviceConcurrencyAgreesAcrossWorkerCounts(t *testing.T) {
	dev1, err := graph.LoadDevice(strings.NewReader(trivialChainDevice), 1)
	if err != nil {
		t.Fatal(err)
	}
	dev8, err := graph.LoadDevice(strings.NewReader(trivialChainDevice), 8)
	if err != nil {
		t.Fatal(err)
	}
	for i := range dev1.Nodes {
		a, b := dev1.Nodes[i], dev8.Nodes[i]
		if a.BaseCost != b.BaseCost || a.Accessible != b.Accessible || len(a.Children) != len(b.Children) {
			t.Errorf("node %d differs across worker counts: %+v vs %+v", i, a, b)
		}
	}
}

func TestLoadDeviceRejectsBadNodeCount(t *testing.T) {
	_, err := graph.LoadDevice(strings.NewReader("2\n0 NODE_LOCAL 0 0 0 0 0\n\n0\n"), 2)
	if err == nil {
		t.Error("expected an error when fewer node lines are present than declared")
	}
}

func TestSearchStampAdvancesByConnectionCount(t *testing.T) {
	dev := &graph.Device{}
	first := dev.SearchStamp(5)
	dev.NewSearchStampBase(10)
	second := dev.SearchStamp(5)
	if second-first != 10 {
		t.Errorf("stamp should advance by the connection count between iterations, got delta %d", second-first)
	}
}

// TestStampIsolationAcrossIterations reproduces scenario 6: a node
// visited by connection 5's search in one iteration must not read as
// visited by connection 5's search in the next iteration, even though
// no per-node state is cleared between iterations.
func TestStampIsolationAcrossIterations(t *testing.T) {
	dev, err := graph.LoadDevice(strings.NewReader(trivialChainDevice), 2)
	if err != nil {
		t.Fatal(err)
	}
	n := dev.Nodes[1]
	const connectionCount = 10
	const connID = 5

	iter1Stamp := dev.SearchStamp(connID)
	n.LastVisitedStamp = iter1Stamp
	if !n.Visited(iter1Stamp) {
		t.Fatal("node should read as visited under its own iteration's stamp")
	}

	dev.NewSearchStampBase(connectionCount)
	iter2Stamp := dev.SearchStamp(connID)
	if iter2Stamp == iter1Stamp {
		t.Fatal("stamp for the same connection id must differ across iterations")
	}
	if n.Visited(iter2Stamp) {
		t.Error("a node visited in a prior iteration must not read as visited under the new iteration's stamp")
	}
}
