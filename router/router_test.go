package router_test

import (
	"strings"
	"testing"

	"github.com/go-test/deep"

	"github.com/m-lab/fpga-router/graph"
	"github.com/m-lab/fpga-router/netlist"
	"github.com/m-lab/fpga-router/router"
)

func build(t *testing.T, deviceText, netlistText string) (*graph.Device, *netlist.Netlist) {
	t.Helper()
	dev, err := graph.LoadDevice(strings.NewReader(deviceText), 2)
	if err != nil {
		t.Fatal(err)
	}
	descs, err := netlist.LoadDescriptions(strings.NewReader(netlistText), false)
	if err != nil {
		t.Fatal(err)
	}
	nl, err := netlist.NewNetlist(dev, descs)
	if err != nil {
		t.Fatal(err)
	}
	return dev, nl
}

// TestTrivialChain reproduces the spec's scenario 1: a 3-node chain
// 0 -> 1 -> 2, one net with source 0 and sink 2.
func TestTrivialChain(t *testing.T) {
	const deviceText = `3
0 NODE_LOCAL 0 0 0 0 0
1 NODE_LOCAL 1 1 0 1 0
2 NODE_PINFEED 0 2 0 2 0

0 1
1 2
2
`
	dev, nl := build(t, deviceText, "0 n0 0 2\n")

	r := router.New(dev, nl)
	final := r.Run()

	if final.Failed != 0 {
		t.Fatalf("expected no failed connections, got %d", final.Failed)
	}
	conn := nl.Connections[0]
	if !conn.Routed {
		t.Fatal("connection should be routed")
	}
	wantPath := []int{2, 1, 0}
	if !pathEquals(conn.Path, wantPath) {
		t.Errorf("path = %v, want %v", ids(conn.Path), wantPath)
	}

	net := nl.Nets[0]
	wantPIPs := map[netlist.PIP]bool{{Parent: 0, Child: 1}: true, {Parent: 1, Child: 2}: true}
	if len(net.PIPs()) != len(wantPIPs) {
		t.Fatalf("PIPs = %v, want %v", net.PIPs(), wantPIPs)
	}
	for p := range net.PIPs() {
		if !wantPIPs[p] {
			t.Errorf("unexpected PIP %v", p)
		}
	}

	if congested := r.CongestedNodes(); len(congested) != 0 {
		t.Errorf("expected 0 congested nodes, got %v", congested)
	}

	wantFinal := router.Stats{Iteration: 1, Routed: 1, Failed: 0, CongestedNodes: 0, IsCongested: false}
	if diff := deep.Equal(final, wantFinal); diff != nil {
		t.Errorf("final iteration stats diff: %v", diff)
	}
}

// TestDirectSourceToSink reproduces scenario 2: adjacency 0 -> 2 only.
func TestDirectSourceToSink(t *testing.T) {
	const deviceText = `3
0 NODE_LOCAL 0 0 0 0 0
1 NODE_LOCAL 1 1 0 1 0
2 NODE_PINFEED 0 2 0 2 0

0 2
1
2
`
	dev, nl := build(t, deviceText, "0 n0 0 2\n")
	r := router.New(dev, nl)
	r.Run()

	conn := nl.Connections[0]
	if !conn.Routed {
		t.Fatal("connection should be routed")
	}
	wantPath := []int{2, 0}
	if !pathEquals(conn.Path, wantPath) {
		t.Errorf("path = %v, want %v", ids(conn.Path), wantPath)
	}
}

// TestUnreachable reproduces scenario 3: sink 2 has no predecessors.
func TestUnreachable(t *testing.T) {
	const deviceText = `3
0 NODE_LOCAL 0 0 0 0 0
1 NODE_LOCAL 1 1 0 1 0
2 NODE_PINFEED 0 2 0 2 0

0 1
1
2
`
	dev, nl := build(t, deviceText, "0 n0 0 2\n")
	r := router.New(dev, nl)
	final := r.Run()

	if final.Failed == 0 {
		t.Error("expected at least one failed connection when the sink is unreachable")
	}
	if nl.Connections[0].Routed {
		t.Error("connection should not be routed")
	}
}

// TestContentionOnSharedIntermediate reproduces scenario 4: two nets
// contend for a shared intermediate node with no alternative path, so
// the design is classified congested and never fully converges.
func TestContentionOnSharedIntermediate(t *testing.T) {
	const deviceText = `5
0 NODE_LOCAL 0 0 0 0 0
1 NODE_LOCAL 1 1 0 1 0
2 NODE_PINFEED 0 2 0 2 0
3 NODE_LOCAL 0 0 1 0 1
4 NODE_PINFEED 0 2 1 2 1

0 1
1 2 4
2
3 1
4
`
	dev, nl := build(t, deviceText, "0 a 0 2\n1 b 3 4\n")
	r := router.New(dev, nl)
	final := r.Run()

	if final.CongestedNodes == 0 {
		t.Error("expected the shared intermediate node to remain congested")
	}
	if !final.IsCongested {
		t.Error("design should be classified congested (1 congested node / 2 connections = 0.5 > 0.45)")
	}
}

// TestInaccessibleNodeTreatedAsAbsent reproduces scenario 5: a
// zero-length HQUAD node sits on the only path from source to sink, so
// a search that correctly skips inaccessible nodes must fail to route.
func TestInaccessibleNodeTreatedAsAbsent(t *testing.T) {
	const deviceText = `3
0 NODE_LOCAL 0 0 0 0 0
1 NODE_HQUAD 0 1 0 1 0
2 NODE_PINFEED 0 2 0 2 0

0 1
1 2
2
`
	dev, nl := build(t, deviceText, "0 n0 0 2\n")
	if dev.Nodes[1].Accessible {
		t.Fatal("zero-length HQUAD node should be inaccessible")
	}

	r := router.New(dev, nl)
	final := r.Run()

	if final.Failed == 0 {
		t.Error("expected the connection to fail: its only path runs through an inaccessible node")
	}
	if nl.Connections[0].Routed {
		t.Error("connection should not be routed through an inaccessible node")
	}
}

func pathEquals(path []*graph.Node, want []int) bool {
	if len(path) != len(want) {
		return false
	}
	for i, n := range path {
		if n.ID != want[i] {
			return false
		}
	}
	return true
}

func ids(path []*graph.Node) []int {
	out := make([]int, len(path))
	for i, n := range path {
		out[i] = n.ID
	}
	return out
}
