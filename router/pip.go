package router

import "log"

// emitPIPs walks every routed connection's path pairwise (path is
// sink-first) and records a PIP(parent=path[i+1], child=path[i]) on the
// owning net, deduplicated by the net's PIP set. It also assigns
// used_by_net_id to every node on every routed path; a node claimed by
// two distinct nets is reported.
func (r *Router) emitPIPs() {
	conflicts := make(map[int]struct{})
	for _, n := range r.device.Nodes {
		n.UsedByNetID = -1
	}

	for _, connID := range r.order {
		conn := r.netlist.Connections[connID]
		if !conn.Routed {
			continue
		}
		net := r.netlist.Nets[conn.NetID]

		for i := 0; i+1 < len(conn.Path); i++ {
			child := conn.Path[i]
			parent := conn.Path[i+1]
			net.AddPIP(parent, child)
		}

		for _, n := range conn.Path {
			if n.UsedByNetID == -1 {
				n.UsedByNetID = net.ID
			} else if n.UsedByNetID != net.ID {
				conflicts[n.ID] = struct{}{}
			}
		}
	}

	if len(conflicts) > 0 {
		log.Printf("router: %d node(s) claimed by more than one net after PIP emission", len(conflicts))
	}
}

// CongestedNodes returns the set of node ids claimed by more than one
// distinct net's routed path, as reported by emitPIPs. Exposed for
// tests.
func (r *Router) CongestedNodes() []int {
	claimedBy := make(map[int]int)
	conflicted := make(map[int]struct{})
	for _, connID := range r.order {
		conn := r.netlist.Connections[connID]
		if !conn.Routed {
			continue
		}
		for _, n := range conn.Path {
			if owner, ok := claimedBy[n.ID]; ok {
				if owner != conn.NetID {
					conflicted[n.ID] = struct{}{}
				}
			} else {
				claimedBy[n.ID] = conn.NetID
			}
		}
	}
	ids := make([]int, 0, len(conflicted))
	for id := range conflicted {
		ids = append(ids, id)
	}
	return ids
}
