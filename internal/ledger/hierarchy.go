package ledger

import (
	"cmp"
	"slices"
)

// AccountNode is the presentation view of one account in the chart tree.
type AccountNode struct {
	AccountBalance
	Level    int           `json:"level"`
	Children []AccountNode `json:"children,omitempty"`
}

type forestNode struct {
	bal      AccountBalance
	parent   int
	children []int
}

// Forest arranges accounts by code prefix. Nodes live in one slice and refer
// to each other by index; the code index maps a code to its node.
type Forest struct {
	nodes []forestNode
	index map[string]int
	roots []int
	// Uncoded accounts sit outside the tree but still count towards totals.
	Uncoded []AccountBalance
}

// BuildForest places every coded account under the account whose code is its
// own code minus the last digit. An account whose parent is missing becomes a
// root.
func BuildForest(balances []AccountBalance) *Forest {
	coded := make([]AccountBalance, 0, len(balances))
	f := &Forest{index: make(map[string]int)}
	for _, b := range balances {
		if b.Code == "" {
			f.Uncoded = append(f.Uncoded, b)
			continue
		}
		coded = append(coded, b)
	}
	slices.SortStableFunc(coded, func(a, b AccountBalance) int {
		if c := cmp.Compare(len(a.Code), len(b.Code)); c != 0 {
			return c
		}
		return cmp.Compare(a.Code, b.Code)
	})

	f.nodes = make([]forestNode, len(coded))
	for i, b := range coded {
		f.nodes[i] = forestNode{bal: b, parent: -1}
		if _, dup := f.index[b.Code]; !dup {
			f.index[b.Code] = i
		}
	}
	for i := range f.nodes {
		parentCode := f.nodes[i].bal.ParentCode()
		p, ok := f.index[parentCode]
		if parentCode == "" || !ok || p == i {
			f.roots = append(f.roots, i)
			continue
		}
		f.nodes[i].parent = p
		f.nodes[p].children = append(f.nodes[p].children, i)
	}
	return f
}

// Aggregate builds the forest and rolls read-only balances up.
func Aggregate(balances []AccountBalance) *Forest {
	f := BuildForest(balances)
	f.Rollup()
	return f
}

// Rollup replaces the balance of each read-only account with the sum of its
// direct children. Longer codes go first so nested read-only parents see
// their children's final figures. Their own opening balance is ignored.
func (f *Forest) Rollup() {
	order := make([]int, len(f.nodes))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(len(f.nodes[b].bal.Code), len(f.nodes[a].bal.Code))
	})
	for _, i := range order {
		n := &f.nodes[i]
		if !n.bal.IsReadOnly {
			continue
		}
		var sum int64
		var tot Totals
		for _, c := range n.children {
			sum += f.nodes[c].bal.Balance
			tot.Merge(f.nodes[c].bal.Totals)
		}
		n.bal.Balance = sum
		n.bal.Totals = tot
	}
}

// Total sums the top-level accounts and the uncoded ones, so a child is never
// counted twice alongside its read-only parent.
func (f *Forest) Total() int64 {
	var total int64
	for _, r := range f.roots {
		total += f.nodes[r].bal.Balance
	}
	for _, u := range f.Uncoded {
		total += u.Balance
	}
	return total
}

// Lookup returns the aggregated balance of the account with the given code.
func (f *Forest) Lookup(code string) (AccountBalance, bool) {
	i, ok := f.index[code]
	if !ok {
		return AccountBalance{}, false
	}
	return f.nodes[i].bal, true
}

// Tree returns the nested view, roots ordered by code.
func (f *Forest) Tree() []AccountNode {
	out := make([]AccountNode, 0, len(f.roots))
	for _, r := range f.roots {
		out = append(out, f.node(r))
	}
	return out
}

func (f *Forest) node(i int) AccountNode {
	n := f.nodes[i]
	an := AccountNode{AccountBalance: n.bal, Level: n.bal.Level()}
	for _, c := range n.children {
		an.Children = append(an.Children, f.node(c))
	}
	return an
}

// Flatten walks the tree depth first.
func Flatten(nodes []AccountNode) []AccountNode {
	var out []AccountNode
	for _, n := range nodes {
		children := n.Children
		n.Children = nil
		out = append(out, n)
		out = append(out, Flatten(children)...)
	}
	return out
}
