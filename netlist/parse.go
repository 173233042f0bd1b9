package netlist

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// LoadDescriptions parses the netlist text format: an optional leading
// net-count line, then one line per net of "id name source_node_id
// [sink_node_id ...]". requireCount enforces the evaluator's stricter
// mode, where the leading count is mandatory; the router is lenient and
// accepts its absence.
func LoadDescriptions(r io.Reader, requireCount bool) ([]NetDescription, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lines := make([]string, 0, 256)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("empty netlist file")
	}

	start := 0
	if n, err := strconv.Atoi(lines[0]); err == nil {
		// A bare integer on the first line is the net count.
		_ = n
		start = 1
	} else if requireCount {
		return nil, fmt.Errorf("netlist file: evaluator mode requires a leading net-count line, got %q", lines[0])
	}

	descs := make([]NetDescription, 0, len(lines)-start)
	for _, line := range lines[start:] {
		d, err := parseNetLine(line)
		if err != nil {
			return nil, err
		}
		descs = append(descs, d)
	}
	return descs, nil
}

func parseNetLine(line string) (NetDescription, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return NetDescription{}, fmt.Errorf("net line %q: want at least 3 fields, got %d", line, len(fields))
	}
	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return NetDescription{}, fmt.Errorf("net line %q: bad net id: %w", line, err)
	}
	source, err := strconv.Atoi(fields[2])
	if err != nil {
		return NetDescription{}, fmt.Errorf("net line %q: bad source node id: %w", line, err)
	}
	sinks := make([]int, 0, len(fields)-3)
	for _, f := range fields[3:] {
		sid, err := strconv.Atoi(f)
		if err != nil {
			return NetDescription{}, fmt.Errorf("net line %q: bad sink node id %q: %w", line, f, err)
		}
		sinks = append(sinks, sid)
	}
	return NetDescription{ID: id, Name: fields[1], SourceNodeID: source, SinkNodeIDs: sinks}, nil
}
