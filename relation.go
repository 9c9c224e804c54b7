// relation.go — relation text handling.
//
// A relation is free text containing zero or one `=` between two arithmetic
// sub-expressions, with variable references written in braces: `{K} =
// 0.5*{m}*{v}*{v}`. This file owns everything textual about relations:
// stripping the brace delimiters, splitting on `=`, extracting referenced
// symbols, and the cheap token-level containment check callers use to filter
// candidate relations before paying for a solve.
//
// Relations are stateless strings; every function here is pure.
package formulize

import "strings"

// StripRefs removes the brace delimiters around variable references,
// turning `{K} = 0.5*{m}` into `K = 0.5*m`. Braces that do not wrap an
// identifier are passed through untouched.
func StripRefs(rel string) string {
	if !strings.ContainsRune(rel, '{') {
		return rel
	}
	var sb strings.Builder
	sb.Grow(len(rel))
	for i := 0; i < len(rel); {
		c := rel[i]
		if c != '{' {
			sb.WriteByte(c)
			i++
			continue
		}
		if name, next, ok := scanRef(rel, i); ok {
			sb.WriteString(name)
			i = next
			continue
		}
		sb.WriteByte(c)
		i++
	}
	return sb.String()
}

// Vars returns the symbols referenced (in braces) by rel, in order of first
// appearance, without duplicates.
func Vars(rel string) []string {
	var out []string
	seen := map[string]bool{}
	for i := 0; i < len(rel); {
		if rel[i] != '{' {
			i++
			continue
		}
		name, next, ok := scanRef(rel, i)
		if !ok {
			i++
			continue
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
		i = next
	}
	return out
}

// SplitRelation splits a (stripped or unstripped) relation on its first `=`.
// hasEq is false when the text is a bare expression. Behavior for relations
// containing more than one `=` is undefined: the split is at the first, and
// the remainder stays in the right-hand text where the evaluator will
// reject it.
func SplitRelation(rel string) (left, right string, hasEq bool) {
	i := strings.IndexByte(rel, '=')
	if i < 0 {
		return rel, "", false
	}
	return rel[:i], rel[i+1:], true
}

// CanSolve reports whether rel references target: true iff the stripped
// relation contains target as a whole token. This is a textual filter only
// — it does not promise the solve will succeed.
func CanSolve(rel, target string) bool {
	if target == "" {
		return false
	}
	s := StripRefs(rel)
	for i := 0; i+len(target) <= len(s); {
		j := strings.Index(s[i:], target)
		if j < 0 {
			return false
		}
		j += i
		before := j == 0 || !isIdentByte(s[j-1])
		afterIdx := j + len(target)
		after := afterIdx >= len(s) || !isIdentByte(s[afterIdx])
		if before && after {
			return true
		}
		i = j + 1
	}
	return false
}

// scanRef reads a braced reference starting at rel[i] == '{'. It succeeds
// only when the braces wrap a bare identifier.
func scanRef(rel string, i int) (name string, next int, ok bool) {
	j := i + 1
	for j < len(rel) && isIdentByte(rel[j]) {
		j++
	}
	if j == i+1 || j >= len(rel) || rel[j] != '}' {
		return "", 0, false
	}
	return rel[i+1 : j], j + 1, true
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
