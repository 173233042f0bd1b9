// Command router reads a device graph and a netlist, runs the
// negotiated-congestion ripup-and-reroute engine, and writes the
// resulting PIPs to a result file.
//
// Usage: router <device_file> <netlist_file> <output_result_file>
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/m-lab/go/flagx"
	"github.com/m-lab/go/prometheusx"
	"github.com/m-lab/go/rtx"

	"github.com/m-lab/fpga-router/graph"
	"github.com/m-lab/fpga-router/ioresult"
	"github.com/m-lab/fpga-router/netlist"
	"github.com/m-lab/fpga-router/report"
	"github.com/m-lab/fpga-router/router"
)

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

var (
	promPort    = flag.String("prom", "", "Prometheus metrics export address and port, e.g. ':9090'. Empty disables the metrics server.")
	maxIter     = flag.Int("maxiter", router.MaxIterations, "Override the ripup-and-reroute iteration cap.")
	loadWorkers = flag.Int("load-workers", graph.DefaultLoadWorkers, "Worker pool width for concurrent device-graph parsing.")
	reportPath  = flag.String("report", "", "Optional path to write a CSV connection/iteration report.")

	ctx = context.Background()
)

func main() {
	flag.Parse()
	flagx.ArgsFromEnv(flag.CommandLine)

	args := flag.Args()
	if len(args) != 3 {
		log.Println("Usage: router <device_file> <netlist_file> <output_result_file>")
		os.Exit(1)
	}
	deviceFile, netlistFile, outputFile := args[0], args[1], args[2]

	if *promPort != "" {
		promSrv := prometheusx.MustStartPrometheus(*promPort)
		defer promSrv.Shutdown(ctx)
	}

	dev := loadDevice(deviceFile, *loadWorkers)
	nl := loadNetlist(dev, netlistFile, false)

	r := router.New(dev, nl)
	r.SetMaxIterations(*maxIter)
	final := r.Run()
	log.Printf("final: routed=%d failed=%d congested_nodes=%d", final.Routed, final.Failed, final.CongestedNodes)

	out, err := os.Create(outputFile)
	rtx.Must(err, "could not create output result file %q", outputFile)
	defer out.Close()
	rtx.Must(ioresult.Write(out, nl), "could not write result file %q", outputFile)

	if *reportPath != "" {
		rtx.Must(report.WriteConnections(*reportPath+".connections.csv", nl), "could not write connection report")
		rtx.Must(report.WriteIterations(*reportPath+".iterations.csv", r.History()), "could not write iteration report")
	}

	log.Println("Exit.")
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
