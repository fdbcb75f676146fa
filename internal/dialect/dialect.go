// Package dialect describes the syntax differences between supported target
// databases. Profiles are built once at init and read-only afterwards, so
// concurrent sessions can share them without locking.
package dialect

import (
	"sort"
	"strings"

	"github.com/pingcap/tidb/pkg/parser/format"
	"github.com/pkg/errors"
)

// Pagination selects the row-limiting clause family a target understands.
type Pagination int

// Pagination styles.
const (
	// PaginationLimit renders LIMIT n [OFFSET m].
	PaginationLimit Pagination = iota
	// PaginationFetch renders [OFFSET m ROWS] FETCH FIRST/NEXT n ROWS ONLY.
	PaginationFetch
)

// BindStyle selects the bind-marker syntax of a target.
type BindStyle int

// Bind-marker styles.
const (
	// BindQuestion keeps positional `?` markers.
	BindQuestion BindStyle = iota
	// BindColonNumbered renders `:1`, `:2`, ... markers.
	BindColonNumbered
)

// Profile is the immutable per-target description of syntax differences.
type Profile struct {
	Name         string
	Pagination   Pagination
	Bind         BindStyle
	RestoreFlags format.RestoreFlags

	// Funcs maps lower-cased source function names to their target spelling.
	// Functions absent from the map render unchanged.
	Funcs map[string]string
	// Unsupported lists lower-cased source functions with no target mapping;
	// rendering one is a transpilation rejection, never an approximation.
	Unsupported map[string]struct{}

	// Rules is the short natural-language rule set used to condition
	// generation prompts for this target.
	Rules []string
}

// MapFunc returns the target spelling for a source function name and whether
// the function may be rendered at all.
func (p *Profile) MapFunc(name string) (string, bool) {
	lower := strings.ToLower(name)
	if _, blocked := p.Unsupported[lower]; blocked {
		return "", false
	}
	if mapped, ok := p.Funcs[lower]; ok {
		return mapped, true
	}
	return name, true
}

var registry = map[string]*Profile{
	"mysql":  mysqlProfile(),
	"oracle": oracleProfile(),
}

// Lookup returns the profile registered under name.
func Lookup(name string) (*Profile, error) {
	p, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, errors.Errorf("unknown dialect %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
	return p, nil
}

// Names lists the registered dialect names in stable order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func mysqlProfile() *Profile {
	return &Profile{
		Name:         "mysql",
		Pagination:   PaginationLimit,
		Bind:         BindQuestion,
		RestoreFlags: format.DefaultRestoreFlags,
		Funcs: map[string]string{
			"nvl":          "IFNULL",
			"systimestamp": "NOW",
		},
		Unsupported: map[string]struct{}{},
		Rules: []string{
			"Write a single SELECT statement and nothing else.",
			"Quote identifiers with backquotes when they clash with keywords.",
			"Paginate with LIMIT n OFFSET m.",
			"Coalesce nulls with IFNULL(expr, fallback); current time is NOW().",
		},
	}
}

func oracleProfile() *Profile {
	return &Profile{
		Name:       "oracle",
		Pagination: PaginationFetch,
		Bind:       BindColonNumbered,
		RestoreFlags: format.RestoreStringSingleQuotes |
			format.RestoreKeyWordUppercase |
			format.RestoreNameUppercase |
			format.RestoreNameDoubleQuotes,
		Funcs: map[string]string{
			"ifnull":  "NVL",
			"now":     "CURRENT_TIMESTAMP",
			"curdate": "CURRENT_DATE",
			"ucase":   "UPPER",
			"lcase":   "LOWER",
		},
		Unsupported: map[string]struct{}{
			"group_concat":   {},
			"last_insert_id": {},
			"found_rows":     {},
			"uuid_short":     {},
			"connection_id":  {},
			"database":       {},
		},
		Rules: []string{
			"Write a single SELECT statement and nothing else.",
			"Unquoted identifiers fold to upper case; the engine double-quotes them.",
			"Paginate with LIMIT n OFFSET m; the engine converts it to OFFSET/FETCH.",
			"Coalesce nulls with IFNULL or NVL; avoid GROUP_CONCAT and other MySQL-only functions.",
		},
	}
}
