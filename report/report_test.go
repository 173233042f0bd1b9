package report_test

import (
	"io/ioutil"
	"os"
	"strings"
	"testing"

	"github.com/gocarina/gocsv"

	"github.com/m-lab/fpga-router/graph"
	"github.com/m-lab/fpga-router/netlist"
	"github.com/m-lab/fpga-router/report"
	"github.com/m-lab/fpga-router/router"
)

const trivialChainDevice = `3
0 NODE_LOCAL 0 0 0 0 0
1 NODE_LOCAL 1 1 0 1 0
2 NODE_PINFEED 0 2 0 2 0

0 1
1 2
2
`

func TestWriteConnectionsProducesOneRowPerConnection(t *testing.T) {
	dev, err := graph.LoadDevice(strings.NewReader(trivialChainDevice), 2)
	if err != nil {
		t.Fatal(err)
	}
	descs, err := netlist.LoadDescriptions(strings.NewReader("0 n0 0 2\n"), false)
	if err != nil {
		t.Fatal(err)
	}
	nl, err := netlist.NewNetlist(dev, descs)
	if err != nil {
		t.Fatal(err)
	}
	r := router.New(dev, nl)
	r.Run()

	f, err := ioutil.TempFile("", "connections-*.csv")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(f.Name())
	f.Close()

	if err := report.WriteConnections(f.Name(), nl); err != nil {
		t.Fatal(err)
	}

	data, err := ioutil.ReadFile(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	var rows []*report.ConnectionRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("want 1 row, got %d", len(rows))
	}
	if rows[0].NetID != 0 || rows[0].SourceID != 0 || rows[0].SinkID != 2 || !rows[0].Routed {
		t.Errorf("row = %+v", rows[0])
	}
}

func TestWriteIterationsProducesOneRowPerIteration(t *testing.T) {
	stats := []router.Stats{
		{Iteration: 1, Routed: 0, Failed: 1, CongestedNodes: 0, IsCongested: false},
		{Iteration: 2, Routed: 1, Failed: 0, CongestedNodes: 0, IsCongested: false},
	}

	f, err := ioutil.TempFile("", "iterations-*.csv")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(f.Name())
	f.Close()

	if err := report.WriteIterations(f.Name(), stats); err != nil {
		t.Fatal(err)
	}

	data, err := ioutil.ReadFile(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	var rows []*report.IterationRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[1].Routed != 1 {
		t.Fatalf("rows = %+v", rows)
	}
}
