package engine

import "github.com/talgya/tradesim/internal/economy"

// NodeID identifies a search node. IDs come from a per-run counter starting
// at 1, so they never collide with economy.RootBranch.
type NodeID uint64

// Step is one committed action, as recorded in the journal and in paths.
type Step struct {
	Seq           int            `json:"seq"`   // Position in the run's commit journal
	Depth         int            `json:"depth"` // Depth of the node that committed it
	Action        economy.Action `json:"-"`
	Score         float64        `json:"score"`          // Shadow score when generated
	GlobalUtility float64        `json:"global_utility"` // After the commit
}

// Node is a position in the search tree. Children point at their parents;
// ledgers are not held per node but shared through the walker's World.
type Node struct {
	ID            NodeID
	Depth         int
	Agent         string // Acting country at this depth
	Parent        *Node
	GlobalUtility float64

	// Pending holds the ranked options last generated at this node, per
	// acting country.
	Pending map[string][]ScoredOption

	// Produced is the commit that created this node; nil for the root.
	Produced *Step
}

// Branch is the repeat-guard key for decisions made at this node: the
// parent's identity, or the root sentinel.
func (n *Node) Branch() economy.BranchID {
	if n.Parent == nil {
		return economy.RootBranch
	}
	return economy.BranchID(n.Parent.ID)
}

// Path returns the commits from the root down to n, in order.
func (n *Node) Path() []Step {
	var path []Step
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Produced != nil {
			path = append(path, *cur.Produced)
		}
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// removePending drops the first pending option for the acting country.
func (n *Node) removePending() {
	opts := n.Pending[n.Agent]
	if len(opts) > 0 {
		n.Pending[n.Agent] = opts[1:]
	}
}

// Snapshot is a deep copy of the best node found so far.
type Snapshot struct {
	NodeID        NodeID
	Depth         int
	GlobalUtility float64
	World         *World
	Path          []Step // Ancestor chain, root first
	Journal       []Step // Every commit of the run up to this node
	FoundAtStep   int
}

// Transaction is the flat, log-friendly form of a committed step.
type Transaction struct {
	Seq           int     `json:"seq"`
	Depth         int     `json:"depth"`
	ActionType    string  `json:"action_type"` // "Create" or "Transfer"
	Actor         string  `json:"actor"`
	Target        string  `json:"target"` // The actor itself for Create
	Action        string  `json:"action"` // Template name or transferred resource
	Quantity      float64 `json:"quantity"`
	Score         float64 `json:"score"`
	GlobalUtility float64 `json:"global_utility"`
}

// Transaction flattens s.
func (s Step) Transaction() Transaction {
	return Transaction{
		Seq:           s.Seq,
		Depth:         s.Depth,
		ActionType:    s.Action.Kind().String(),
		Actor:         s.Action.Actor(),
		Target:        s.Action.Target(),
		Action:        s.Action.Subject(),
		Quantity:      s.Action.Quantity(),
		Score:         s.Score,
		GlobalUtility: s.GlobalUtility,
	}
}

// Transactions flattens a path or journal.
func Transactions(steps []Step) []Transaction {
	out := make([]Transaction, len(steps))
	for i, s := range steps {
		out[i] = s.Transaction()
	}
	return out
}
