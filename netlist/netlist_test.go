package netlist_test

import (
	"strings"
	"testing"

	"github.com/m-lab/fpga-router/graph"
	"github.com/m-lab/fpga-router/netlist"
)

const trivialChainDevice = `3
0 NODE_LOCAL 0 0 0 0 0
1 NODE_LOCAL 1 1 0 1 0
2 NODE_PINFEED 0 2 0 2 0

0 1
1 2
2
`

func buildDevice(t *testing.T) *graph.Device {
	t.Helper()
	dev, err := graph.LoadDevice(strings.NewReader(trivialChainDevice), 2)
	if err != nil {
		t.Fatal(err)
	}
	return dev
}

func TestNewNetlistMarksSourceAndSinkTypes(t *testing.T) {
	dev := buildDevice(t)
	descs, err := netlist.LoadDescriptions(strings.NewReader("0 n0 0 2\n"), false)
	if err != nil {
		t.Fatal(err)
	}
	nl, err := netlist.NewNetlist(dev, descs)
	if err != nil {
		t.Fatal(err)
	}

	if dev.Nodes[0].Type != graph.PINFEED_O {
		t.Error("source node should be promoted to PINFEED_O")
	}
	if dev.Nodes[2].Type != graph.PINFEED_I {
		t.Error("sink node should be promoted to PINFEED_I")
	}
	if len(nl.Connections) != 1 {
		t.Fatalf("want 1 connection, got %d", len(nl.Connections))
	}
	net := nl.Nets[0]
	if len(net.ConnectionIDs) != 1 {
		t.Errorf("net should own 1 connection id, got %d", len(net.ConnectionIDs))
	}
}

func TestConnectionBoundingBoxMargins(t *testing.T) {
	dev := buildDevice(t)
	descs, _ := netlist.LoadDescriptions(strings.NewReader("0 n0 0 2\n"), false)
	nl, err := netlist.NewNetlist(dev, descs)
	if err != nil {
		t.Fatal(err)
	}
	conn := nl.Connections[0]
	// Source at x=0, sink at x=2: xmin=0-3=-3, xmax=2+3=5.
	if conn.XMin != -3 || conn.XMax != 5 {
		t.Errorf("x bounds = [%d, %d], want [-3, 5]", conn.XMin, conn.XMax)
	}
	if conn.YMin != -15 || conn.YMax != 15 {
		t.Errorf("y bounds = [%d, %d], want [-15, 15]", conn.YMin, conn.YMax)
	}
	if !conn.Contains(0, 0) {
		t.Error("origin should be strictly inside the padded bounding box")
	}
	if conn.Contains(-3, 0) || conn.Contains(5, 0) {
		t.Error("bounding box edges should not be contained (strict interior test)")
	}
}

func TestUserCountOccupancyInvariant(t *testing.T) {
	dev := buildDevice(t)
	descs, _ := netlist.LoadDescriptions(strings.NewReader("0 n0 0 2\n"), false)
	nl, err := netlist.NewNetlist(dev, descs)
	if err != nil {
		t.Fatal(err)
	}
	net := nl.Nets[0]
	node := dev.Nodes[1]

	net.AddUser(node)
	if node.Occupancy != 1 || net.UserCount(node) != 1 {
		t.Fatalf("after one AddUser: occupancy=%d usercount=%d, want 1,1", node.Occupancy, net.UserCount(node))
	}
	net.AddUser(node)
	if node.Occupancy != 2 || net.UserCount(node) != 2 {
		t.Fatalf("after two AddUser: occupancy=%d usercount=%d, want 2,2", node.Occupancy, net.UserCount(node))
	}
	net.RemoveUser(node)
	net.RemoveUser(node)
	if node.Occupancy != 0 || net.UserCount(node) != 0 {
		t.Fatalf("after removing both users: occupancy=%d usercount=%d, want 0,0", node.Occupancy, net.UserCount(node))
	}
}

func TestPIPSetDeduplicatesByValue(t *testing.T) {
	dev := buildDevice(t)
	descs, _ := netlist.LoadDescriptions(strings.NewReader("0 n0 0 2\n"), false)
	nl, err := netlist.NewNetlist(dev, descs)
	if err != nil {
		t.Fatal(err)
	}
	net := nl.Nets[0]
	net.AddPIP(dev.Nodes[0], dev.Nodes[1])
	net.AddPIP(dev.Nodes[0], dev.Nodes[1])
	if len(net.PIPs()) != 1 {
		t.Errorf("duplicate PIPs should collapse to one, got %d", len(net.PIPs()))
	}
}
