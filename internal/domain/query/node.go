package query

// op tags a node variant.
type op int

const (
	opLeaf op = iota
	opAnd
	opOr
	opNot
	opBoost
)

func (o op) String() string {
	switch o {
	case opAnd:
		return "AND"
	case opOr:
		return "OR"
	case opNot:
		return "NOT"
	case opBoost:
		return "BOOST"
	default:
		return "LEAF"
	}
}

// node is one vertex of the expression tree. Nodes are never mutated once
// reachable from a Query; every operation builds new nodes.
//
// A leaf holds conjunctive clauses plus subqueries. AND and OR hold children
// in subs. NOT and BOOST hold a single child in subs[0].
type node struct {
	op      op
	terms   []Term
	phrases []Phrase
	ranges  []Range
	subs    []*node
	score   float64
	boosts  []boostDirective
}

// boostDirective is a pending relevancy boost expanded at serialization.
type boostDirective struct {
	match *node
	score float64
}

func newLeaf() *node { return &node{op: opLeaf} }

func newOp(o op, children ...*node) *node {
	subs := make([]*node, len(children))
	copy(subs, children)
	return &node{op: o, subs: subs}
}

func (n *node) hasClauses() bool {
	return len(n.terms) > 0 || len(n.phrases) > 0 || len(n.ranges) > 0
}

func (n *node) clauseCount() int {
	return len(n.terms) + len(n.phrases) + len(n.ranges)
}

// empty reports whether the node contributes nothing to the query.
func (n *node) empty() bool {
	if n == nil {
		return true
	}
	switch n.op {
	case opLeaf, opAnd, opOr:
		if n.hasClauses() {
			return false
		}
		for _, s := range n.subs {
			if !s.empty() {
				return false
			}
		}
		return true
	default:
		return len(n.subs) == 0 || n.subs[0].empty()
	}
}

// shallow copies the node header and its slices, sharing child nodes.
func (n *node) shallow() *node {
	c := &node{op: n.op, score: n.score}
	c.terms = append([]Term(nil), n.terms...)
	c.phrases = append([]Phrase(nil), n.phrases...)
	c.ranges = append([]Range(nil), n.ranges...)
	c.subs = append([]*node(nil), n.subs...)
	c.boosts = append([]boostDirective(nil), n.boosts...)
	return c
}

// deepCopy returns a structurally independent copy of the tree.
func (n *node) deepCopy() *node {
	if n == nil {
		return nil
	}
	c := n.shallow()
	for i, r := range c.ranges {
		c.ranges[i] = r.clone()
	}
	for i, s := range c.subs {
		c.subs[i] = s.deepCopy()
	}
	for i, b := range c.boosts {
		c.boosts[i] = boostDirective{match: b.match.deepCopy(), score: b.score}
	}
	return c
}

// addTerm appends t unless an equal term is already present.
func (n *node) addTerm(t Term) {
	k := t.key()
	for _, e := range n.terms {
		if e.key() == k {
			return
		}
	}
	n.terms = append(n.terms, t)
}

func (n *node) addPhrase(p Phrase) {
	k := p.key()
	for _, e := range n.phrases {
		if e.key() == k {
			return
		}
	}
	n.phrases = append(n.phrases, p)
}

func (n *node) addRange(r Range) {
	k := r.key()
	for _, e := range n.ranges {
		if e.key() == k {
			return
		}
	}
	n.ranges = append(n.ranges, r)
}
