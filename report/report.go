// Package report writes a human-inspectable CSV summary of a routing
// run, using gocsv the way the teacher's csvtool does.
// It is a supplementary output alongside the required result-file
// format (package ioresult); nothing here is part of that wire format.
package report

import (
	"os"

	"github.com/gocarina/gocsv"

	"github.com/m-lab/fpga-router/netlist"
	"github.com/m-lab/fpga-router/router"
)

// ConnectionRow is one CSV row summarizing a single routed connection.
type ConnectionRow struct {
	NetID     int     `csv:"net_id"`
	NetName   string  `csv:"net_name"`
	ConnID    int     `csv:"connection_id"`
	SourceID  int     `csv:"source_node"`
	SinkID    int     `csv:"sink_node"`
	Routed    bool    `csv:"routed"`
	HPWL      int     `csv:"hpwl"`
	PathNodes int     `csv:"path_nodes"`
	FinalCost float64 `csv:"final_cost"`
}

// WriteConnections marshals one row per connection in nl to path.
func WriteConnections(path string, nl *netlist.Netlist) error {
	rows := make([]*ConnectionRow, 0, len(nl.Connections))
	for _, conn := range nl.Connections {
		net := nl.Nets[conn.NetID]
		row := &ConnectionRow{
			NetID:     net.ID,
			NetName:   net.Name,
			ConnID:    conn.ID,
			SourceID:  conn.Source.ID,
			SinkID:    conn.Sink.ID,
			Routed:    conn.Routed,
			HPWL:      conn.HPWL(),
			PathNodes: len(conn.Path),
		}
		if len(conn.Path) > 0 {
			row.FinalCost = conn.Path[0].TotalPathCost
		}
		rows = append(rows, row)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return gocsv.MarshalFile(&rows, f)
}

// IterationRow is one CSV row summarizing a single router iteration.
type IterationRow struct {
	Iteration      int  `csv:"iteration"`
	Routed         int  `csv:"routed"`
	Failed         int  `csv:"failed"`
	CongestedNodes int  `csv:"congested_nodes"`
	IsCongested    bool `csv:"congested_design"`
}

// WriteIterations marshals one row per collected router.Stats to path.
func WriteIterations(path string, stats []router.Stats) error {
	rows := make([]*IterationRow, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, &IterationRow{
			Iteration:      s.Iteration,
			Routed:         s.Routed,
			Failed:         s.Failed,
			CongestedNodes: s.CongestedNodes,
			IsCongested:    s.IsCongested,
		})
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return gocsv.MarshalFile(&rows, f)
}
