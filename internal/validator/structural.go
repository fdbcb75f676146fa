package validator

import (
	"fmt"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/types/parser_driver" // Register TiDB parser driver.
)

// Structural parses candidates and proves the whole tree is read-only.
// The underlying parser is not goroutine-safe; every session owns its own
// Structural instance.
type Structural struct {
	parser *parser.Parser
}

// NewStructural returns a Structural validator instance.
func NewStructural() *Structural {
	return &Structural{parser: parser.New()}
}

// Validate parses sql and walks the full tree. A parse failure is a regular
// rejection (retryable generator output), not an error. On success the parsed
// AST is returned for reuse by the transpiler, so the string is parsed once.
func (s *Structural) Validate(sql string) (ast.StmtNode, Outcome) {
	stmts, _, err := s.parser.Parse(sql, "", "")
	if err != nil {
		return nil, Rejected(StageStructural, "unparseable: "+firstLine(err.Error()))
	}
	if len(stmts) == 0 {
		return nil, Rejected(StageStructural, "empty statement")
	}
	if len(stmts) > 1 {
		return nil, Rejected(StageStructural, fmt.Sprintf("multiple statements (%d)", len(stmts)))
	}
	root := stmts[0]
	switch root.(type) {
	case *ast.SelectStmt, *ast.SetOprStmt:
	default:
		return nil, Rejected(StageStructural, "root is not a SELECT statement: "+stmtKind(root))
	}
	checker := &readOnlyChecker{root: root}
	root.Accept(checker)
	if checker.reason != "" {
		return nil, Rejected(StageStructural, checker.reason)
	}
	return root, Outcome{OK: true, Pos: -1}
}

// Functions that read files, take locks, or stall the server. Blocked at any
// nesting depth, including inside subqueries of an otherwise valid SELECT.
var blockedFuncs = map[string]struct{}{
	"sleep":           {},
	"benchmark":       {},
	"load_file":       {},
	"get_lock":        {},
	"release_lock":    {},
	"is_free_lock":    {},
	"is_used_lock":    {},
	"master_pos_wait": {},
}

// readOnlyChecker walks the full tree, including subqueries, CTEs, and set
// operations. Checking only the root node is not enough: a mutating statement
// or dangerous call nested anywhere must reject the candidate.
type readOnlyChecker struct {
	root   ast.StmtNode
	reason string
}

// Enter inspects each node and records the first violation.
func (c *readOnlyChecker) Enter(in ast.Node) (ast.Node, bool) {
	if c.reason != "" {
		return in, true
	}
	switch node := in.(type) {
	case *ast.SelectStmt:
		if node.SelectIntoOpt != nil {
			c.reason = "SELECT ... INTO writes outside the result set"
		} else if node.LockInfo != nil && node.LockInfo.LockType != ast.SelectLockNone {
			c.reason = "locking clause (FOR UPDATE/SHARE) is not read-only"
		}
	case *ast.SetOprStmt, *ast.SubqueryExpr:
		// Read-only containers; keep walking.
	case *ast.FuncCallExpr:
		if _, blocked := blockedFuncs[node.FnName.L]; blocked {
			c.reason = "blocked function call " + strings.ToUpper(node.FnName.O)
		}
	case *ast.VariableExpr:
		if node.IsSystem {
			c.reason = "system variable read @@" + node.Name
		}
	case ast.StmtNode:
		// Any statement other than the selection forms above, at any depth:
		// mutation, DDL, privilege, procedural, or control statements.
		if node != c.root {
			c.reason = "nested non-SELECT statement: " + stmtKind(node)
		}
	}
	return in, c.reason != ""
}

// Leave aborts the walk once a violation is recorded.
func (c *readOnlyChecker) Leave(in ast.Node) (ast.Node, bool) {
	return in, c.reason == ""
}

func stmtKind(node ast.Node) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", node), "*ast.")
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
