// Package ioresult implements the result-file format shared by the
// router (writer) and evaluator (reader): per net, a header line
// "net_id net_name", zero or more "parent_id child_id" PIP lines, and a
// blank separator.
package ioresult

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/m-lab/fpga-router/netlist"
)

// Write emits nl's nets, in ascending net-id order, in the result-file
// format.
func Write(w io.Writer, nl *netlist.Netlist) error {
	bw := bufio.NewWriter(w)

	ids := make([]int, 0, len(nl.Nets))
	for id := range nl.Nets {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		net := nl.Nets[id]
		if _, err := fmt.Fprintf(bw, "%d %s\n", net.ID, net.Name); err != nil {
			return err
		}
		pips := make([]netlist.PIP, 0, len(net.PIPs()))
		for p := range net.PIPs() {
			pips = append(pips, p)
		}
		sort.Slice(pips, func(i, j int) bool {
			if pips[i].Parent != pips[j].Parent {
				return pips[i].Parent < pips[j].Parent
			}
			return pips[i].Child < pips[j].Child
		})
		for _, p := range pips {
			if _, err := fmt.Fprintf(bw, "%d %d\n", p.Parent, p.Child); err != nil {
				return err
			}
		}
		if _, err := bw.WriteString("\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// NetResult is one parsed block from a result file: the header's net id
// and name, plus the PIP lines that followed it.
type NetResult struct {
	NetID int
	Name  string
	PIPs  []netlist.PIP
}

// Read parses the result-file format into a sequence of NetResult
// blocks, without attempting to match them against any particular
// Netlist -- that matching (and the logging of mismatches/unknown node
// ids) is the evaluator's job.
func Read(r io.Reader) ([]NetResult, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var results []NetResult
	var cur *NetResult

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			if cur != nil {
				results = append(results, *cur)
				cur = nil
			}
			continue
		}
		fields := strings.Fields(line)
		if cur == nil {
			if len(fields) != 2 {
				return nil, fmt.Errorf("result file: bad net header %q", line)
			}
			id, err := strconv.Atoi(fields[0])
			if err != nil {
				return nil, fmt.Errorf("result file: bad net id in header %q: %w", line, err)
			}
			cur = &NetResult{NetID: id, Name: fields[1]}
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("result file: bad PIP line %q", line)
		}
		parent, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("result file: bad PIP parent id %q: %w", line, err)
		}
		child, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("result file: bad PIP child id %q: %w", line, err)
		}
		cur.PIPs = append(cur.PIPs, netlist.PIP{Parent: parent, Child: child})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if cur != nil {
		results = append(results, *cur)
	}
	return results, nil
}
