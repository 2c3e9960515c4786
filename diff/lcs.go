package diff

type op struct {
	typ   ChangeType
	value string
}

// script returns the edit script turning a into b. The common prefix and
// suffix are matched directly; only the middle goes through the LCS table.
// When that table would exceed the cell cap the middle is reported as one
// removal followed by one addition and degraded is true.
func (e *Engine) script(a, b []string) (ops []op, degraded bool) {
	prefix := 0
	for prefix < len(a) && prefix < len(b) && a[prefix] == b[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(a)-prefix && suffix < len(b)-prefix && a[len(a)-1-suffix] == b[len(b)-1-suffix] {
		suffix++
	}

	midA := a[prefix : len(a)-suffix]
	midB := b[prefix : len(b)-suffix]

	ops = make([]op, 0, len(a)+len(b))
	for _, v := range a[:prefix] {
		ops = append(ops, op{Equal, v})
	}

	if e.maxCells > 0 && (len(midA)+1)*(len(midB)+1) > e.maxCells {
		degraded = true
		for _, v := range midA {
			ops = append(ops, op{Removed, v})
		}
		for _, v := range midB {
			ops = append(ops, op{Added, v})
		}
	} else {
		ops = append(ops, lcsScript(midA, midB)...)
	}

	for _, v := range a[len(a)-suffix:] {
		ops = append(ops, op{Equal, v})
	}
	return ops, degraded
}

// lcsScript builds the suffix LCS table for a and b and walks it forward.
// On ties removals are emitted before additions, so a replaced run always
// reads as removed lines followed by added lines.
func lcsScript(a, b []string) []op {
	m, n := len(a), len(b)
	width := n + 1
	table := make([]int32, (m+1)*width)

	for i := m - 1; i >= 0; i-- {
		for j := n - 1; j >= 0; j-- {
			switch {
			case a[i] == b[j]:
				table[i*width+j] = table[(i+1)*width+j+1] + 1
			case table[(i+1)*width+j] >= table[i*width+j+1]:
				table[i*width+j] = table[(i+1)*width+j]
			default:
				table[i*width+j] = table[i*width+j+1]
			}
		}
	}

	ops := make([]op, 0, m+n)
	i, j := 0, 0
	for i < m && j < n {
		switch {
		case a[i] == b[j]:
			ops = append(ops, op{Equal, a[i]})
			i++
			j++
		case table[(i+1)*width+j] >= table[i*width+j+1]:
			ops = append(ops, op{Removed, a[i]})
			i++
		default:
			ops = append(ops, op{Added, b[j]})
			j++
		}
	}
	for ; i < m; i++ {
		ops = append(ops, op{Removed, a[i]})
	}
	for ; j < n; j++ {
		ops = append(ops, op{Added, b[j]})
	}
	return ops
}
