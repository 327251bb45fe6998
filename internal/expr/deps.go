package expr

// luaKeywords are identifiers that can never name a model parameter.
var luaKeywords = map[string]bool{
	"and": true, "break": true, "do": true, "else": true, "elseif": true,
	"end": true, "false": true, "for": true, "function": true, "goto": true,
	"if": true, "in": true, "local": true, "nil": true, "not": true,
	"or": true, "repeat": true, "return": true, "then": true, "true": true,
	"until": true, "while": true,
}

// Identifiers returns the distinct identifiers referenced by src, in
// order of first appearance. Lua keywords, field accesses (the part
// after a dot, as in math.exp), and identifiers inside string literals
// are excluded. Callers intersect the result with their declared
// parameter names to build a dependency graph.
func Identifiers(src string) []string {
	var (
		out  []string
		seen = map[string]bool{}
	)

	i := 0
	for i < len(src) {
		c := src[i]

		// Skip string literals.
		if c == '\'' || c == '"' {
			quote := c
			i++
			for i < len(src) && src[i] != quote {
				if src[i] == '\\' {
					i++
				}
				i++
			}
			i++
			continue
		}

		if !isIdentStart(c) {
			i++
			continue
		}

		start := i
		for i < len(src) && isIdentPart(src[i]) {
			i++
		}
		name := src[start:i]

		// A dot before the identifier means it is a field access
		// (math.exp); a dot after means the identifier is a table
		// whose fields we do not track as dependencies either way.
		if start > 0 && src[start-1] == '.' {
			continue
		}
		if i < len(src) && src[i] == '.' {
			continue
		}
		if luaKeywords[name] || seen[name] {
			continue
		}

		seen[name] = true
		out = append(out, name)
	}

	return out
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
