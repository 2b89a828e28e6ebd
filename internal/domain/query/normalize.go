package query

// Normalize returns the canonical form of q and whether anything changed.
// Pending relevancy boosts are expanded first. Normalize is idempotent and
// never modifies the receiver's tree.
func (q Query) Normalize() (Query, bool) {
	expanded, expandedChanged := expand(q.rootOrEmpty())
	n, changed := normalize(expanded)
	return q.with(n), expandedChanged || changed
}

// expand rewrites boost directives bottom-up: Q with directives (M1, s1)...
// becomes Q OR (Q AND M1)^s1 OR ...
func expand(n *node) (*node, bool) {
	changed := false
	var c *node
	for i, s := range n.subs {
		es, ch := expand(s)
		if !ch {
			continue
		}
		if c == nil {
			c = n.shallow()
		}
		c.subs[i] = es
		changed = true
	}
	if c == nil {
		c = n
	}
	if len(c.boosts) == 0 {
		return c, changed
	}

	base := c.shallow()
	base.boosts = nil
	children := []*node{base}
	for _, d := range c.boosts {
		match, _ := expand(d.match)
		boosted := newOp(opBoost, newOp(opAnd, base, match))
		boosted.score = d.score
		children = append(children, boosted)
	}
	return newOp(opOr, children...), true
}

// normalize is a pure bottom-up fold returning a canonical node. Canonical
// trees hold no AND nodes: conjunctions become leaves, so their clauses sort
// at render time whatever order they were combined in.
func normalize(n *node) (*node, bool) {
	switch n.op {
	case opLeaf:
		return normalizeLeaf(n)
	case opAnd:
		out, _ := normalizeLeaf(&node{op: opLeaf, subs: n.subs})
		return out, true
	case opOr:
		return normalizeOr(n)
	case opNot:
		return normalizeNot(n)
	case opBoost:
		return normalizeBoost(n)
	}
	return n, false
}

// normalizeLeaf merges conjunctive subqueries into the leaf and collapses a
// clause-less leaf with one subquery.
func normalizeLeaf(n *node) (*node, bool) {
	out := &node{op: opLeaf}
	for _, t := range n.terms {
		out.addTerm(t)
	}
	for _, p := range n.phrases {
		out.addPhrase(p)
	}
	for _, r := range n.ranges {
		out.addRange(r)
	}
	changed := out.clauseCount() != n.clauseCount()

	for _, s := range n.subs {
		ns, ch := normalize(s)
		if absorb(out, ns) {
			ch = true
		}
		changed = changed || ch
	}

	if !out.hasClauses() && len(out.subs) == 1 {
		return out.subs[0], true
	}
	if !changed {
		return n, false
	}
	return out, true
}

// absorb adds the normalized subquery s to the leaf dst, reporting whether s
// was reshaped on the way in. Empty queries vanish and leaves merge.
func absorb(dst, s *node) bool {
	switch {
	case s.empty():
		return true
	case s.op == opLeaf:
		mergeLeaf(dst, s)
		return true
	default:
		dst.subs = append(dst.subs, s)
		return false
	}
}

func mergeLeaf(dst, src *node) {
	for _, t := range src.terms {
		dst.addTerm(t)
	}
	for _, p := range src.phrases {
		dst.addPhrase(p)
	}
	for _, r := range src.ranges {
		dst.addRange(r)
	}
	dst.subs = append(dst.subs, src.subs...)
}

// normalizeOr drops empty children, flattens nested ORs and collapses zero
// or one remaining child.
func normalizeOr(n *node) (*node, bool) {
	changed := false
	children := make([]*node, 0, len(n.subs))
	for _, s := range n.subs {
		ns, ch := normalize(s)
		changed = changed || ch
		switch {
		case ns.empty():
			changed = true
		case ns.op == opOr:
			children = append(children, ns.subs...)
			changed = true
		default:
			children = append(children, ns)
		}
	}

	switch len(children) {
	case 0:
		return newLeaf(), true
	case 1:
		return children[0], true
	}
	if !changed {
		return n, false
	}
	return newOp(opOr, children...), true
}

// normalizeNot cancels double negation and drops negated empty queries.
func normalizeNot(n *node) (*node, bool) {
	child, changed := normalize(n.subs[0])
	if child.empty() {
		return newLeaf(), true
	}
	if child.op == opNot {
		return child.subs[0], true
	}
	if !changed {
		return n, false
	}
	return newOp(opNot, child), true
}

// normalizeBoost drops boosts of empty queries.
func normalizeBoost(n *node) (*node, bool) {
	child, changed := normalize(n.subs[0])
	if child.empty() {
		return newLeaf(), true
	}
	if !changed {
		return n, false
	}
	b := newOp(opBoost, child)
	b.score = n.score
	return b, true
}
