package carto

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"
)

// Filter is a boolean expression over feature attributes, for example
//
//	[type] = 'park' and not [area] < 1000
//
// Attributes are written in brackets, strings in single or double quotes.
// Supported operators are = == != <> < <= > >= and or not && || !. A
// negation applies to the whole comparison that follows it.
//
// Expressions are translated to expr-lang and compiled once. A comparison
// that cannot be evaluated, such as ordering a missing attribute, makes
// the filter not match.
type Filter struct {
	program *vm.Program
	tree    ast.Node
}

// filterEnv is the environment filters run in.
type filterEnv struct {
	f *Feature
}

// Attr returns the named attribute of the feature, nil when unset.
func (e filterEnv) Attr(name string) any {
	if e.f == nil {
		return nil
	}
	v, _ := e.f.Get(name)
	return v
}

// ParseFilter compiles a filter expression.
func ParseFilter(src string) (*Filter, error) {
	code, err := translateFilter(src)
	if err != nil {
		return nil, err
	}
	tree, err := parser.Parse(code)
	if err != nil {
		return nil, fmt.Errorf("filter %q: %w", src, err)
	}
	program, err := expr.Compile(code, expr.Env(filterEnv{}))
	if err != nil {
		return nil, fmt.Errorf("filter %q: %w", src, err)
	}
	return &Filter{program: program, tree: tree.Node}, nil
}

// MustParseFilter is like ParseFilter but panics on error.
func MustParseFilter(src string) *Filter {
	f, err := ParseFilter(src)
	if err != nil {
		panic(err)
	}
	return f
}

// Evaluate reports whether the feature matches.
func (f *Filter) Evaluate(feat *Feature) bool {
	if f == nil || f.program == nil {
		return true
	}
	v, err := expr.Run(f.program, filterEnv{f: feat})
	if err != nil {
		return false
	}
	return truthy(v)
}

// String returns the canonical form of the expression. A filter that
// always matches prints as "true".
func (f *Filter) String() string {
	if f == nil || f.tree == nil {
		return "true"
	}
	return formatFilter(f.tree)
}

func formatFilter(n ast.Node) string {
	switch n := n.(type) {
	case *ast.BinaryNode:
		l, r := formatFilter(n.Left), formatFilter(n.Right)
		switch n.Operator {
		case "and", "&&":
			return "(" + l + " and " + r + ")"
		case "or", "||":
			return "(" + l + " or " + r + ")"
		case "==":
			return "(" + l + "=" + r + ")"
		}
		return "(" + l + n.Operator + r + ")"
	case *ast.UnaryNode:
		if n.Operator == "not" || n.Operator == "!" {
			return "not " + formatFilter(n.Node)
		}
		return n.Operator + formatFilter(n.Node)
	case *ast.CallNode:
		if id, ok := n.Callee.(*ast.IdentifierNode); ok && id.Value == "Attr" && len(n.Arguments) == 1 {
			if s, ok := n.Arguments[0].(*ast.StringNode); ok {
				return "[" + s.Value + "]"
			}
		}
	case *ast.StringNode:
		return "'" + strings.ReplaceAll(n.Value, "'", "\\'") + "'"
	case *ast.IntegerNode:
		return strconv.Itoa(n.Value)
	case *ast.FloatNode:
		return strconv.FormatFloat(n.Value, 'g', -1, 64)
	case *ast.BoolNode:
		return strconv.FormatBool(n.Value)
	case *ast.NilNode:
		return "null"
	}
	return n.String()
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	}
	return true
}

type tokKind int

const (
	tokAttr tokKind = iota
	tokString
	tokNumber
	tokIdent
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokKind
	text string
}

func (t token) operand() bool {
	return t.kind == tokAttr || t.kind == tokString || t.kind == tokNumber || t.kind == tokIdent
}

func (t token) comparison() bool {
	if t.kind != tokOp {
		return false
	}
	switch t.text {
	case "==", "!=", "<", "<=", ">", ">=":
		return true
	}
	return false
}

// translateFilter rewrites a filter into expr-lang: attributes become Attr
// calls, = and <> become == and !=, and a negated comparison gets
// parentheses since expr-lang binds not tighter than comparisons.
func translateFilter(src string) (string, error) {
	toks, err := tokenizeFilter(src)
	if err != nil {
		return "", err
	}
	var out []string
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.kind == tokOp && t.text == "not" && i+3 < len(toks) &&
			toks[i+1].operand() && toks[i+2].comparison() && toks[i+3].operand() {
			out = append(out, "not", "(", exprToken(toks[i+1]), toks[i+2].text, exprToken(toks[i+3]), ")")
			i += 3
			continue
		}
		out = append(out, exprToken(t))
	}
	return strings.Join(out, " "), nil
}

func exprToken(t token) string {
	switch t.kind {
	case tokAttr:
		return "Attr(" + strconv.Quote(t.text) + ")"
	case tokString:
		return strconv.Quote(t.text)
	case tokIdent:
		if t.text == "null" {
			return "nil"
		}
	}
	return t.text
}

func tokenizeFilter(src string) ([]token, error) {
	var toks []token
	rs := []rune(src)
	for i := 0; i < len(rs); {
		c := rs[i]
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case c == '[':
			j := i + 1
			for j < len(rs) && rs[j] != ']' {
				j++
			}
			if j >= len(rs) {
				return nil, fmt.Errorf("filter %q: unterminated attribute", src)
			}
			toks = append(toks, token{tokAttr, string(rs[i+1 : j])})
			i = j + 1
		case c == '\'' || c == '"':
			var sb strings.Builder
			j := i + 1
			for ; j < len(rs) && rs[j] != c; j++ {
				if rs[j] == '\\' && j+1 < len(rs) {
					j++
				}
				sb.WriteRune(rs[j])
			}
			if j >= len(rs) {
				return nil, fmt.Errorf("filter %q: unterminated string", src)
			}
			toks = append(toks, token{tokString, sb.String()})
			i = j + 1
		case unicode.IsDigit(c) || (c == '-' || c == '.') && i+1 < len(rs) && (unicode.IsDigit(rs[i+1]) || rs[i+1] == '.'):
			j := i + 1
			for j < len(rs) && (unicode.IsDigit(rs[j]) || rs[j] == '.' || rs[j] == 'e' || rs[j] == 'E' ||
				((rs[j] == '-' || rs[j] == '+') && (rs[j-1] == 'e' || rs[j-1] == 'E'))) {
				j++
			}
			num := string(rs[i:j])
			if _, err := strconv.ParseFloat(num, 64); err != nil {
				return nil, fmt.Errorf("filter %q: invalid number %q", src, num)
			}
			// expr-lang wants a digit on both sides of the point
			switch {
			case strings.HasPrefix(num, "."):
				num = "0" + num
			case strings.HasPrefix(num, "-."):
				num = "-0" + num[1:]
			}
			if strings.HasSuffix(num, ".") {
				num += "0"
			}
			toks = append(toks, token{tokNumber, num})
			i = j
		case strings.ContainsRune("=!<>&|", c):
			j := i + 1
			if j < len(rs) && strings.ContainsRune("=<>&|", rs[j]) {
				j++
			}
			op := string(rs[i:j])
			switch op {
			case "=", "==":
				op = "=="
			case "<>", "!=":
				op = "!="
			case "&&":
				op = "and"
			case "||":
				op = "or"
			case "!":
				op = "not"
			case "<", "<=", ">", ">=":
			default:
				return nil, fmt.Errorf("filter %q: unknown operator %q", src, op)
			}
			toks = append(toks, token{tokOp, op})
			i = j
		case unicode.IsLetter(c) || c == '_':
			j := i + 1
			for j < len(rs) && (unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j]) || rs[j] == '_') {
				j++
			}
			word := strings.ToLower(string(rs[i:j]))
			switch word {
			case "and", "or", "not":
				toks = append(toks, token{tokOp, word})
			case "true", "false", "null":
				toks = append(toks, token{tokIdent, word})
			default:
				return nil, fmt.Errorf("filter %q: unknown identifier %q", src, word)
			}
			i = j
		default:
			return nil, fmt.Errorf("filter %q: unexpected character %q", src, c)
		}
	}
	return toks, nil
}
