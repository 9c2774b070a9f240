// Package equation parses human-readable equation definitions of the
// form "<field> = <expression>" into an explicit expression tree plus
// the sets of field dependencies and external references the
// expression reads.
//
// The expression grammar is HCL's native expression syntax, which
// keeps evaluation confined to a tree interpreter: only the variables
// and functions supplied in an hcl.EvalContext are reachable, so no
// path to arbitrary code execution exists.
package equation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// externalPrefix is the reserved scope-name prefix that external
// references are rewritten to before expression parsing. Rewriting
// removes every API(...) marker from the text ahead of dependency
// scanning, so a reference name can never be mistaken for a field.
const externalPrefix = "api__"

// Equation is one parsed target-field definition. It is immutable
// after Parse returns.
type Equation struct {
	// Field is the unique target field name.
	Field string
	// Source is the expression text as written, before rewriting.
	Source string
	// Expr is the parsed expression tree.
	Expr hclsyntax.Expression
	// Dependencies are the names of other fields or entity attributes
	// this expression reads, sorted, excluding the target field itself.
	Dependencies []string
	// Externals are the external reference names this expression
	// reads, sorted.
	Externals []string
}

// MalformedError reports an equation definition that could not be
// parsed: missing '=', invalid field name, or an expression the
// grammar rejects.
type MalformedError struct {
	Text   string
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed equation %q: %s", e.Text, e.Reason)
}

var (
	identPattern    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	apiCallPattern  = regexp.MustCompile(`API\(\s*([A-Za-z_][A-Za-z0-9_]*)\s*\)`)
	boolWordPattern = regexp.MustCompile(`\b(?i:AND|OR|NOT)\b`)
)

// ExternalScopeName returns the evaluation-scope variable name an
// external reference is bound under.
func ExternalScopeName(ref string) string {
	return externalPrefix + ref
}

// Parse splits an equation definition on its first '=' and parses the
// right-hand side. External references are extracted first so they are
// never scanned as dependencies; AND/OR/NOT normalize to the grammar's
// boolean operators. Parse does not check that dependencies resolve to
// known fields; that is the graph builder's job.
func Parse(text string) (*Equation, error) {
	idx := strings.Index(text, "=")
	if idx < 0 {
		return nil, &MalformedError{Text: text, Reason: "missing '='"}
	}

	field := strings.TrimSpace(text[:idx])
	body := strings.TrimSpace(text[idx+1:])

	if !identPattern.MatchString(field) {
		return nil, &MalformedError{Text: text, Reason: fmt.Sprintf("invalid field name %q", field)}
	}
	if strings.HasPrefix(field, externalPrefix) {
		return nil, &MalformedError{Text: text, Reason: fmt.Sprintf("field name %q uses the reserved prefix %q", field, externalPrefix)}
	}
	if body == "" {
		return nil, &MalformedError{Text: text, Reason: "empty expression"}
	}

	externals := make(map[string]struct{})
	for _, m := range apiCallPattern.FindAllStringSubmatch(body, -1) {
		externals[m[1]] = struct{}{}
	}
	if _, ok := externals[field]; ok {
		return nil, &MalformedError{Text: text, Reason: fmt.Sprintf("external reference %q shadows the target field", field)}
	}

	rewritten := apiCallPattern.ReplaceAllString(body, externalPrefix+"$1")
	if strings.Contains(rewritten, "API(") {
		return nil, &MalformedError{Text: text, Reason: "invalid API(...) reference"}
	}
	rewritten = normalizeBoolWords(rewritten)

	expr, diags := hclsyntax.ParseExpression([]byte(rewritten), "equation", hcl.Pos{Line: 1, Column: 1, Byte: 0})
	if diags.HasErrors() {
		return nil, &MalformedError{Text: text, Reason: diags.Error()}
	}

	deps := make(map[string]struct{})
	for _, traversal := range expr.Variables() {
		if len(traversal) > 1 {
			return nil, &MalformedError{Text: text, Reason: "attribute access is not supported"}
		}
		name := traversal.RootName()
		switch {
		case strings.HasPrefix(name, externalPrefix):
			ref := strings.TrimPrefix(name, externalPrefix)
			if _, ok := externals[ref]; !ok {
				return nil, &MalformedError{Text: text, Reason: fmt.Sprintf("identifier %q uses the reserved prefix %q", name, externalPrefix)}
			}
		case name == field:
			// Self-reference is stripped, never a dependency.
		default:
			deps[name] = struct{}{}
		}
	}

	return &Equation{
		Field:        field,
		Source:       body,
		Expr:         expr,
		Dependencies: sortedKeys(deps),
		Externals:    sortedKeys(externals),
	}, nil
}

// normalizeBoolWords rewrites word-form boolean operators to the
// grammar's symbolic ones so they are parsed as operators rather than
// identifiers.
func normalizeBoolWords(s string) string {
	return boolWordPattern.ReplaceAllStringFunc(s, func(word string) string {
		switch strings.ToUpper(word) {
		case "AND":
			return "&&"
		case "OR":
			return "||"
		default:
			return "!"
		}
	})
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
