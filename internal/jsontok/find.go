package jsontok

// Find returns the index of the value of property name on the object at
// parent. Keys are compared byte for byte. The first matching key wins.
func Find(src []byte, tokens []Token, parent int, name string) (int, bool) {
	for i := range tokens {
		tok := &tokens[i]
		if tok.Parent != parent {
			continue
		}
		if tok.End-tok.Start != len(name) || string(src[tok.Start:tok.End]) != name {
			continue
		}
		if i+1 >= len(tokens) {
			return -1, false
		}
		return i + 1, true
	}
	return -1, false
}

// Elements returns the direct children of the array at parent, in order.
func Elements(tokens []Token, parent int) []int {
	var out []int
	for i := range tokens {
		if tokens[i].Parent == parent {
			out = append(out, i)
		}
	}
	return out
}

// Text returns the exact source span of token i.
func Text(src []byte, tokens []Token, i int) string {
	tok := tokens[i]
	if tok.Start < 0 || tok.End < tok.Start || tok.End > len(src) {
		return ""
	}
	return string(src[tok.Start:tok.End])
}

// Path follows a chain of property names from parent. On failure it returns
// the first name that could not be found.
func Path(src []byte, tokens []Token, parent int, names ...string) (int, string, bool) {
	cur := parent
	for _, name := range names {
		next, ok := Find(src, tokens, cur, name)
		if !ok {
			return -1, name, false
		}
		cur = next
	}
	return cur, "", true
}
