package eval

import (
	"log/slog"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser/operator"

	"github.com/ardnew/scopemap/log"
)

// hyphenPatcher reconstructs hyphenated names from BinaryNode("-")
// subtraction chains created by the expression parser.
//
// Keys such as "log-level" are common in decoded documents but parse as
// subtraction. When the combined name exists in the environment, or as a
// member of the mapping addressed by a member chain, the subtraction is
// replaced with a single identifier or member access.
//
// Operators binding tighter than "-" pull the words of a hyphenated name
// apart: "2 * log-level" parses as (2*log) - level and "cfg.max-depth * 2"
// as cfg.max - (depth*2). The words adjacent to the "-" are found by
// descending into such operators, and the tree is rebuilt with the combined
// name as a single operand.
type hyphenPatcher struct {
	env    map[string]any
	logger log.Logger
}

// rebuild substitutes a node for the operand a hyphenated name was split
// from, returning the enclosing expression.
type rebuild func(ast.Node) ast.Node

func same(n ast.Node) ast.Node { return n }

// Visit implements ast.Visitor.
func (p *hyphenPatcher) Visit(node *ast.Node) {
	binNode, ok := (*node).(*ast.BinaryNode)
	if !ok || binNode.Operator != "-" {
		return
	}

	word, outerRight, ok := leadingWord(binNode.Right)
	if !ok {
		return
	}

	base, property, outerLeft, ok := trailingWord(binNode.Left)
	if !ok {
		return
	}

	combined := property + "-" + word

	var name ast.Node

	if base == nil {
		if _, ok := p.env[combined]; !ok {
			return
		}

		name = &ast.IdentifierNode{Value: combined}
	} else {
		path, ok := memberPath(base)
		if !ok || !p.hasMember(path, combined) {
			return
		}

		name = &ast.MemberNode{
			Node:     base,
			Property: &ast.StringNode{Value: combined},
		}
	}

	ast.Patch(node, outerRight(outerLeft(name)))
	p.logger.Trace("patch hyphenated",
		slog.String("name", combined),
		slog.String("patch_type", patchType(base)))
}

func patchType(base ast.Node) string {
	if base == nil {
		return "identifier"
	}

	return "member"
}

// binds reports whether a binary operator binds tighter than "-".
func binds(op string) bool { return operator.Less("-", op) }

// trailingWord returns the hyphenated name ending at the right edge of node:
// the node it is accessed on (nil for a top-level identifier), the name
// accumulated so far, and how to rebuild node around a replacement.
func trailingWord(node ast.Node) (base ast.Node, word string, outer rebuild, ok bool) {
	switch n := node.(type) {
	case *ast.IdentifierNode:
		return nil, n.Value, same, true

	case *ast.MemberNode:
		prop, ok := n.Property.(*ast.StringNode)
		if !ok {
			return nil, "", nil, false
		}

		return n.Node, prop.Value, same, true

	case *ast.BinaryNode:
		switch {
		case n.Operator == "-":
			right, ok := n.Right.(*ast.IdentifierNode)
			if !ok {
				return nil, "", nil, false
			}

			base, inner, outer, ok := trailingWord(n.Left)
			if !ok {
				return nil, "", nil, false
			}

			return base, inner + "-" + right.Value, outer, true

		case binds(n.Operator):
			base, inner, outer, ok := trailingWord(n.Right)
			if !ok {
				return nil, "", nil, false
			}

			return base, inner, func(r ast.Node) ast.Node {
				b := *n
				b.Right = outer(r)

				return &b
			}, true
		}
	}

	return nil, "", nil, false
}

// leadingWord returns the identifier at the left edge of node and how to
// rebuild node around a replacement for it.
func leadingWord(node ast.Node) (word string, outer rebuild, ok bool) {
	switch n := node.(type) {
	case *ast.IdentifierNode:
		return n.Value, same, true

	case *ast.MemberNode:
		word, outer, ok := leadingWord(n.Node)
		if !ok {
			return "", nil, false
		}

		return word, func(r ast.Node) ast.Node {
			m := *n
			m.Node = outer(r)

			return &m
		}, true

	case *ast.BinaryNode:
		if !binds(n.Operator) {
			return "", nil, false
		}

		word, outer, ok := leadingWord(n.Left)
		if !ok {
			return "", nil, false
		}

		return word, func(r ast.Node) ast.Node {
			b := *n
			b.Left = outer(r)

			return &b
		}, true
	}

	return "", nil, false
}

// memberPath walks a MemberNode chain to produce path segments.
func memberPath(node ast.Node) ([]string, bool) {
	switch n := node.(type) {
	case *ast.IdentifierNode:
		return []string{n.Value}, true

	case *ast.MemberNode:
		prop, ok := n.Property.(*ast.StringNode)
		if !ok {
			return nil, false
		}

		base, ok := memberPath(n.Node)
		if !ok {
			return nil, false
		}

		return append(base, prop.Value), true

	default:
		return nil, false
	}
}

// hasMember reports whether the mapping at path defines name.
func (p *hyphenPatcher) hasMember(path []string, name string) bool {
	var current any = p.env

	for _, seg := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return false
		}

		if current, ok = m[seg]; !ok {
			return false
		}
	}

	m, ok := current.(map[string]any)
	if !ok {
		return false
	}

	_, ok = m[name]

	return ok
}
