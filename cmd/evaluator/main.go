// Command evaluator independently verifies a router-produced result
// file: it reports congested nodes, per-net routing success via
// emitted PIPs, and total wirelength.
//
// Usage: evaluator <device_file> <netlist_file> <result_file> [debug]
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/m-lab/go/flagx"
	"github.com/m-lab/go/prometheusx"
	"github.com/m-lab/go/rtx"

	"github.com/m-lab/fpga-router/evaluator"
	"github.com/m-lab/fpga-router/graph"
	"github.com/m-lab/fpga-router/ioresult"
	"github.com/m-lab/fpga-router/netlist"
)

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

var (
	promPort    = flag.String("prom", "", "Prometheus metrics export address and port, e.g. ':9090'. Empty disables the metrics server.")
	loadWorkers = flag.Int("load-workers", graph.DefaultLoadWorkers, "Worker pool width for concurrent device-graph parsing.")

	ctx = context.Background()
)

func main() {
	flag.Parse()
	flagx.ArgsFromEnv(flag.CommandLine)

	args := flag.Args()
	if len(args) != 3 && len(args) != 4 {
		log.Println("Usage: evaluator <device_file> <netlist_file> <result_file> [debug]")
		os.Exit(1)
	}
	deviceFile, netlistFile, resultFile := args[0], args[1], args[2]
	// The optional "debug" token *disables* the default-on per-failure
	// partial-path dumps (spec §6).
	debug := true
	if len(args) == 4 && args[3] == "debug" {
		debug = false
	}

	if *promPort != "" {
		promSrv := prometheusx.MustStartPrometheus(*promPort)
		defer promSrv.Shutdown(ctx)
	}

	dev := loadDevice(deviceFile, *loadWorkers)
	nl := loadNetlist(dev, netlistFile, true)

	resultsFile, err := os.Open(resultFile)
	rtx.Must(err, "could not open result file %q", resultFile)
	defer resultsFile.Close()

	results, err := ioresult.Read(resultsFile)
	rtx.Must(err, "could not parse result file %q", resultFile)

	ev := evaluator.New(dev, nl, debug)
	ev.Load(results)
	rep := ev.Evaluate()

	log.Printf("congested nodes: %d", rep.CongestedNodes)
	log.Printf("successfully routed nets: %d / %d", rep.SuccessfulNets, rep.TotalNets)
	if len(rep.FailedNetIDs) > 0 {
		log.Printf("failed net ids: %v", rep.FailedNetIDs)
	}
	log.Printf("wirelength: %d", rep.Wirelength)
}

func loadDevice(path string, workers int) *graph.Device {
	f, err := os.Open(path)
	rtx.Must(err, "could not open device file %q", path)
	defer f.Close()

	dev, err := graph.LoadDevice(f, workers)
	rtx.Must(err, "could not parse device file %q", path)
	return dev
}

func loadNetlist(dev *graph.Device, path string, requireCount bool) *netlist.Netlist {
	f, err := os.Open(path)
	rtx.Must(err, "could not open netlist file %q", path)
	defer f.Close()

	descs, err := netlist.LoadDescriptions(f, requireCount)
	rtx.Must(err, "could not parse netlist file %q", path)

	nl, err := netlist.NewNetlist(dev, descs)
	rtx.Must(err, "could not build netlist from %q", path)
	return nl
}
