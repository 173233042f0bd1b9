package graph

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/m-lab/fpga-router/intent"
)

// DefaultLoadWorkers is the default width of the strided worker pool
// used to parse node and edge lines, matching the source's fixed
// 8-worker pool.
const DefaultLoadWorkers = 8

// Device is the immutable routing-resource graph: a dense, 0-indexed
// array of nodes plus their fan-out adjacency. Device owns its nodes;
// everything else in this module holds non-owning *Node references.
type Device struct {
	Nodes []*Node

	// connectionStampBase is the running base added to a connection's
	// id to produce the stamp for its search; see SearchStamp.
	connectionStampBase int64
}

// NodeCounts summarizes the device graph for the load-time log line
// kept from the original implementation's device-summary report.
type NodeCounts struct {
	Total        int
	Inaccessible int
	ByIntent     map[intent.Code]int
}

// LoadDevice parses the device-file text format described in the
// router's external interface: a node count, N node lines, a
// separator, then N adjacency lines. Node and edge line parsing run
// across a strided worker pool (see parseNodesConcurrently /
// parseEdgesConcurrently) because each worker only ever touches node
// slots it strides over -- matching the source's "8 workers, strided
// by thread id" parallelism note.
func LoadDevice(r io.Reader, workers int) (*Device, error) {
	if workers <= 0 {
		workers = DefaultLoadWorkers
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	n, err := readCount(sc)
	if err != nil {
		return nil, fmt.Errorf("reading node count: %w", err)
	}

	nodeLines := make([]string, n)
	for i := 0; i < n; i++ {
		line, ok := nextNonEmpty(sc)
		if !ok {
			return nil, fmt.Errorf("device file: expected %d node lines, ran out at %d", n, i)
		}
		nodeLines[i] = line
	}

	// Consume the single blank/separator line.
	if !sc.Scan() {
		return nil, fmt.Errorf("device file: missing separator line after node section")
	}

	edgeLines := make([]string, n)
	for i := 0; i < n; i++ {
		if !sc.Scan() {
			return nil, fmt.Errorf("device file: expected %d adjacency lines, ran out at %d", n, i)
		}
		edgeLines[i] = sc.Text()
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	nodes := make([]*Node, n)
	if err := parseNodesConcurrently(nodeLines, nodes, workers); err != nil {
		return nil, err
	}
	if err := parseEdgesConcurrently(edgeLines, nodes, workers); err != nil {
		return nil, err
	}

	d := &Device{Nodes: nodes}
	log.Printf("device: loaded %d nodes, %s", n, d.summary().String())
	return d, nil
}

func readCount(sc *bufio.Scanner) (int, error) {
	line, ok := nextNonEmpty(sc)
	if !ok {
		return 0, fmt.Errorf("empty device file")
	}
	return strconv.Atoi(strings.TrimSpace(line))
}

func nextNonEmpty(sc *bufio.Scanner) (string, bool) {
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			return line, true
		}
	}
	return "", false
}

// parseNodesConcurrently fills pre-sized slot i of nodes for each node
// line, striding work across a fixed pool of workers. Each worker only
// ever writes indices i where i%workers == workerID, so there is no
// cross-worker write to the same slot and no slice resize race.
func parseNodesConcurrently(lines []string, nodes []*Node, workers int) error {
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := workerID; i < len(lines); i += workers {
				node, err := parseNodeLine(i, lines[i])
				if err != nil {
					errs[workerID] = err
					return
				}
				nodes[i] = node
			}
		}(w)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func parseNodeLine(expectID int, line string) (*Node, error) {
	fields := strings.Fields(line)
	if len(fields) != 7 {
		return nil, fmt.Errorf("node line %q: want 7 fields, got %d", line, len(fields))
	}
	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, fmt.Errorf("node line %q: bad id: %w", line, err)
	}
	if id != expectID {
		return nil, fmt.Errorf("node line %q: id %d does not match position %d (ids must be dense 0..N-1)", line, id, expectID)
	}
	ic, err := intent.Parse(fields[1])
	if err != nil {
		return nil, fmt.Errorf("node line %q: %w", line, err)
	}
	ints := make([]int, 5)
	for k, f := range fields[2:] {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("node line %q: bad integer field %q: %w", line, f, err)
		}
		ints[k] = v
	}
	return newNode(id, ic, ints[0], ints[1], ints[2], ints[3], ints[4])
}

// parseEdgesConcurrently fills the adjacency of node i from edgeLines[i]
// using the same striding discipline as parseNodesConcurrently: each
// worker resolves its own node's children slice, which is allocated by
// that same goroutine, so there is no shared resize.
func parseEdgesConcurrently(lines []string, nodes []*Node, workers int) error {
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := workerID; i < len(lines); i += workers {
				fields := strings.Fields(lines[i])
				if len(fields) == 0 {
					errs[workerID] = fmt.Errorf("adjacency line %d is empty, expected at least a parent id", i)
					return
				}
				parentID, err := strconv.Atoi(fields[0])
				if err != nil {
					errs[workerID] = fmt.Errorf("adjacency line %d: bad parent id: %w", i, err)
					return
				}
				if parentID != i {
					errs[workerID] = fmt.Errorf("adjacency line %d: parent id %d does not match node position", i, parentID)
					return
				}
				children := make([]*Node, 0, len(fields)-1)
				for _, f := range fields[1:] {
					cid, err := strconv.Atoi(f)
					if err != nil {
						errs[workerID] = fmt.Errorf("adjacency line %d: bad child id %q: %w", i, f, err)
						return
					}
					if cid < 0 || cid >= len(nodes) {
						errs[workerID] = fmt.Errorf("adjacency line %d: child id %d out of range", i, cid)
						return
					}
					children = append(children, nodes[cid])
				}
				nodes[i].Children = children
			}
		}(w)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) summary() NodeCounts {
	nc := NodeCounts{Total: len(d.Nodes), ByIntent: make(map[intent.Code]int)}
	for _, n := range d.Nodes {
		nc.ByIntent[n.Intent]++
		if !n.Accessible {
			nc.Inaccessible++
		}
	}
	return nc
}

func (nc NodeCounts) String() string {
	return fmt.Sprintf("%d inaccessible, by-intent=%v", nc.Inaccessible, nc.ByIntent)
}

// NewSearchStampBase advances the connection-stamp base by delta
// (normally the connection count), so every connection's per-iteration
// stamp in the new iteration is disjoint from every stamp used in any
// prior iteration.
func (d *Device) NewSearchStampBase(delta int) {
	d.connectionStampBase += int64(delta)
}

// SearchStamp returns the stamp a search for connectionID should use in
// the current iteration.
func (d *Device) SearchStamp(connectionID int) int64 {
	return d.connectionStampBase + int64(connectionID)
}
