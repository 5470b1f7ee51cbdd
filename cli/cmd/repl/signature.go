package repl

import (
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/scopemap/eval"
)

// exprParams lists the parameters of expr-lang's builtin functions, as
// documented in the expr-lang language definition.
//
//nolint:gochecknoglobals
var exprParams = map[string]string{
	// Arrays and predicates.
	"all":           "array, predicate",
	"any":           "array, predicate",
	"one":           "array, predicate",
	"none":          "array, predicate",
	"map":           "array, mapper",
	"filter":        "array, predicate",
	"find":          "array, predicate",
	"findIndex":     "array, predicate",
	"findLast":      "array, predicate",
	"findLastIndex": "array, predicate",
	"groupBy":       "array, mapper",
	"sortBy":        "array, mapper, order",
	"count":         "array, predicate",
	"reduce":        "array, reducer, initial",
	"sum":           "array",
	"mean":          "array",
	"median":        "array",
	"min":           "array",
	"max":           "array",
	"first":         "array",
	"last":          "array",
	"take":          "array, n",
	"reverse":       "array",
	"uniq":          "array",
	"flatten":       "array",
	"concat":        "...arrays",
	"sort":          "array, order",
	"join":          "array, separator",
	"keys":          "map",
	"values":        "map",
	"toPairs":       "map",
	"fromPairs":     "array",

	// Strings.
	"split":       "string, separator",
	"splitAfter":  "string, separator",
	"replace":     "string, old, new",
	"repeat":      "string, n",
	"indexOf":     "string, substring",
	"lastIndexOf": "string, substring",
	"hasPrefix":   "string, prefix",
	"hasSuffix":   "string, suffix",
	"trim":        "string",
	"trimLeft":    "string",
	"trimRight":   "string",
	"trimPrefix":  "string, prefix",
	"trimSuffix":  "string, suffix",
	"upper":       "string",
	"lower":       "string",
	"title":       "string",

	// Conversion and math.
	"len":        "v",
	"int":        "v",
	"float":      "v",
	"string":     "v",
	"type":       "v",
	"abs":        "number",
	"ceil":       "number",
	"floor":      "number",
	"round":      "number",
	"toJSON":     "v",
	"fromJSON":   "string",
	"toBase64":   "string",
	"fromBase64": "string",
	"duration":   "string",
	"date":       "v, format, timezone",
	"now":        "",
}

// Signature hint styles.
var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
	signatureSeparatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// functionCall represents a detected function call in the input.
type functionCall struct {
	name     string // fully qualified function name (e.g., "path.cat")
	argIndex int    // current argument index (0-based)
	inCall   bool   // true if cursor is inside parameter list
}

// detectFunctionCall analyzes the input to determine if the cursor is inside
// a function call's parameter list. It returns the function name, current
// argument index, and whether we're inside a call.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(cursor, len(input))

	// Scan backward from cursor to find the unmatched opening paren.
	depth := 0
	open := -1

	for i := cursor - 1; i >= 0 && open < 0; i-- {
		switch input[i] {
		case ')':
			depth++
		case '(':
			if depth == 0 {
				open = i
			} else {
				depth--
			}
		}
	}

	if open < 0 {
		return functionCall{}
	}

	// Function names can include dots (for members), letters, digits,
	// underscores, and hyphens.
	start := open

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if r != '.' && r != '_' && r != '-' &&
			(r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			break
		}

		start -= size
	}

	name := strings.TrimSpace(input[start:open])
	if name == "" {
		return functionCall{}
	}

	// Count arguments by counting commas at depth 0 in the parameter list.
	argIndex := 0
	depth = 0

	for i := open + 1; i < cursor; i++ {
		switch input[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				argIndex++
			}
		}
	}

	return functionCall{name: name, argIndex: argIndex, inCall: true}
}

// getSignature retrieves the signature of an expr-lang builtin or a
// function in the built-in environment. Names visible from the scope are
// data and shadow built-ins, so a shadowed name has no signature.
// Returns empty string if the function is not found.
func getSignature(
	visible func(string) bool,
	funcName string,
) (signature string, params []string) {
	root, _, _ := strings.Cut(funcName, ".")
	if visible != nil && visible(root) {
		return "", nil
	}

	if p, ok := exprParams[funcName]; ok {
		if p == "" {
			return funcName + "()", []string{}
		}

		return funcName + "(" + p + ")", strings.Split(p, ", ")
	}

	if sig, params, ok := builtinSignature(funcName); ok {
		return sig, params
	}

	return "", nil
}

// builtinSignature uses reflection to extract the signature of a function in
// the built-in environment. Returns (signature, params, true) if found, ("",
// nil, false) otherwise.
func builtinSignature(funcName string) (string, []string, bool) {
	if funcName == eval.ProcessEnvName {
		return funcName + "(name)", []string{"name"}, true
	}

	var current any = eval.Builtins()

	for seg := range strings.SplitSeq(funcName, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return "", nil, false
		}

		if current, ok = m[seg]; !ok {
			return "", nil, false
		}
	}

	t := reflect.TypeOf(current)
	if t == nil || t.Kind() != reflect.Func {
		return "", nil, false
	}

	params := make([]string, 0, t.NumIn())

	for i := range t.NumIn() {
		if t.IsVariadic() && i == t.NumIn()-1 {
			params = append(params, "..."+formatTypeName(t.In(i).Elem()))
		} else {
			params = append(params, formatTypeName(t.In(i)))
		}
	}

	return funcName + "(" + strings.Join(params, ", ") + ")", params, true
}

// formatTypeName returns a short name for a parameter of type t.
func formatTypeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch k := t.Kind(); k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "int"
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr:
		return "uint"
	case reflect.Float32, reflect.Float64:
		return "float"
	case reflect.Func, reflect.String, reflect.Bool, reflect.Slice, reflect.Map:
		return k.String()
	}

	if t.Name() != "" {
		return t.Name()
	}

	return "arg"
}

// renderSignatureHint renders signature with the parameter at index
// current highlighted. A variadic parameter stays highlighted for every
// argument it absorbs.
func renderSignatureHint(signature string, params []string, current int) string {
	name, _, ok := strings.Cut(signature, "(")
	if signature == "" {
		return ""
	}

	if !ok || !strings.HasSuffix(signature, ")") {
		return signatureStyle.Render(signature)
	}

	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(name))
	b.WriteString(signatureStyle.Render("("))

	for i, param := range params {
		if i > 0 {
			b.WriteString(signatureSeparatorStyle.Render(", "))
		}

		style := signatureStyle
		if i == current || (strings.HasPrefix(param, "...") && current > i) {
			style = currentParamStyle
		}

		b.WriteString(style.Render(param))
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}
