package validator

import (
	"fmt"
	"strings"

	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/format"
	"github.com/pkg/errors"

	"github.com/wysokinskinorbert/BIAI-sub002/internal/dialect"
)

// Transpile renders an already validated tree in the target dialect. The tree
// is mutated in place for rendering (function renames, detached pagination)
// and fully restored before returning, so the caller can reuse or re-render
// the same tree.
func Transpile(root ast.StmtNode, profile *dialect.Profile) Outcome {
	renamer := &funcRenamer{profile: profile}
	root.Accept(renamer)
	defer renamer.undoAll()
	if renamer.reason != "" {
		return Rejected(StageTranspile, renamer.reason)
	}

	var limit *ast.Limit
	if profile.Pagination == dialect.PaginationFetch {
		// Only the root pagination clause has a fetch-clause rendering; a
		// LIMIT on a derived table or set-operation branch would otherwise
		// pass through verbatim.
		if hasNestedLimit(root) {
			return Rejected(StageTranspile, "nested LIMIT has no "+profile.Name+" pagination form")
		}
		var detach func()
		limit, detach = detachLimit(root)
		if detach != nil {
			defer detach()
		}
	}

	rendered, err := render(root, profile.RestoreFlags)
	if err != nil {
		return Rejected(StageTranspile, "render failed: "+err.Error())
	}

	if limit != nil {
		clause, err := fetchClause(limit, profile.RestoreFlags)
		if err != nil {
			return Rejected(StageTranspile, "render failed: "+err.Error())
		}
		rendered += clause
	}

	if profile.Bind == dialect.BindColonNumbered {
		rendered = renumberBinds(rendered)
	}
	return Accepted(rendered)
}

// funcRenamer rewrites function names for the target and records undo
// closures so the tree can be put back exactly as parsed.
type funcRenamer struct {
	profile *dialect.Profile
	undos   []func()
	reason  string
}

func (r *funcRenamer) Enter(in ast.Node) (ast.Node, bool) {
	if r.reason != "" {
		return in, true
	}
	switch node := in.(type) {
	case *ast.FuncCallExpr:
		mapped, ok := r.profile.MapFunc(node.FnName.O)
		if !ok {
			r.reason = noMappingReason(node.FnName.O, r.profile.Name)
			return in, true
		}
		if mapped != node.FnName.O {
			prev := node.FnName
			node.FnName = ast.NewCIStr(mapped)
			r.undos = append(r.undos, func() { node.FnName = prev })
		}
	case *ast.AggregateFuncExpr:
		// Aggregates carry a bare string name; they are never respelled, only
		// rejected when the target has no equivalent.
		if _, blocked := r.profile.Unsupported[strings.ToLower(node.F)]; blocked {
			r.reason = noMappingReason(node.F, r.profile.Name)
			return in, true
		}
	}
	return in, false
}

func (r *funcRenamer) Leave(in ast.Node) (ast.Node, bool) {
	return in, r.reason == ""
}

func (r *funcRenamer) undoAll() {
	for i := len(r.undos) - 1; i >= 0; i-- {
		r.undos[i]()
	}
	r.undos = nil
}

func noMappingReason(fn, target string) string {
	return fmt.Sprintf("function %s has no %s equivalent", strings.ToUpper(fn), target)
}

// hasNestedLimit reports whether any selection below the root carries its own
// pagination clause.
func hasNestedLimit(root ast.StmtNode) bool {
	checker := &nestedLimitChecker{root: root}
	root.Accept(checker)
	return checker.found
}

type nestedLimitChecker struct {
	root  ast.Node
	found bool
}

func (c *nestedLimitChecker) Enter(in ast.Node) (ast.Node, bool) {
	if c.found {
		return in, true
	}
	switch node := in.(type) {
	case *ast.SelectStmt:
		if in != c.root && node.Limit != nil {
			c.found = true
		}
	case *ast.SetOprStmt:
		if in != c.root && node.Limit != nil {
			c.found = true
		}
	}
	return in, c.found
}

func (c *nestedLimitChecker) Leave(in ast.Node) (ast.Node, bool) {
	return in, true
}

// detachLimit removes the pagination clause from the root so the body renders
// without it, and returns the clause plus a closure reattaching it.
func detachLimit(root ast.StmtNode) (*ast.Limit, func()) {
	switch node := root.(type) {
	case *ast.SelectStmt:
		if node.Limit == nil {
			return nil, nil
		}
		limit := node.Limit
		node.Limit = nil
		return limit, func() { node.Limit = limit }
	case *ast.SetOprStmt:
		if node.Limit == nil {
			return nil, nil
		}
		limit := node.Limit
		node.Limit = nil
		return limit, func() { node.Limit = limit }
	}
	return nil, nil
}

// fetchClause renders a LIMIT clause in OFFSET/FETCH form, preserving both
// the row count and the starting offset exactly.
func fetchClause(limit *ast.Limit, flags format.RestoreFlags) (string, error) {
	count, err := renderExpr(limit.Count, flags)
	if err != nil {
		return "", err
	}
	if limit.Offset == nil {
		return " FETCH FIRST " + count + " ROWS ONLY", nil
	}
	offset, err := renderExpr(limit.Offset, flags)
	if err != nil {
		return "", err
	}
	return " OFFSET " + offset + " ROWS FETCH NEXT " + count + " ROWS ONLY", nil
}

func render(node ast.Node, flags format.RestoreFlags) (string, error) {
	var sb strings.Builder
	if err := node.Restore(format.NewRestoreCtx(flags, &sb)); err != nil {
		return "", errors.WithStack(err)
	}
	return sb.String(), nil
}

func renderExpr(expr ast.ExprNode, flags format.RestoreFlags) (string, error) {
	if expr == nil {
		return "", errors.New("missing pagination expression")
	}
	return render(expr, flags)
}

// renumberBinds rewrites positional `?` markers as `:1`, `:2`, ... in render
// order. The scan is quote-aware so a literal question mark inside a string
// is left alone.
func renumberBinds(sql string) string {
	var sb strings.Builder
	sb.Grow(len(sql) + 8)
	var quote byte
	n := 0
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		if quote != 0 {
			sb.WriteByte(c)
			if c == '\\' && quote != '`' && i+1 < len(sql) {
				sb.WriteByte(sql[i+1])
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
			sb.WriteByte(c)
		case '?':
			n++
			fmt.Fprintf(&sb, ":%d", n)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
