package validator

import (
	"regexp"
	"strings"
)

// Blocked statement verbs. Word-boundary matched so a verb embedded in an
// identifier (deleted_at, update_time) does not trip the guard; string and
// quoted-identifier contents are masked out before scanning.
var blockedKeywordRe = regexp.MustCompile(`(?i)\b(drop|truncate|delete|update|insert|alter|create|rename|grant|revoke|merge|replace|call|exec|execute|lock|unlock|set|kill|shutdown|load)\b`)

type blockedPattern struct {
	re     *regexp.Regexp
	reason string
}

var blockedPatterns = []blockedPattern{
	{regexp.MustCompile(`;`), "statement separator"},
	{regexp.MustCompile(`--`), "comment opener"},
	{regexp.MustCompile(`#`), "comment opener"},
	{regexp.MustCompile(`/\*`), "comment opener"},
	{regexp.MustCompile(`(?i)\binto\s+outfile\b`), "file write clause"},
	{regexp.MustCompile(`(?i)\binto\s+dumpfile\b`), "file write clause"},
	{regexp.MustCompile(`(?i)\bload_file\b`), "file read function"},
}

// Lexical scans a candidate for blocklisted verbs and patterns. It is a pure
// function of the input and the static blocklists; no parsing is attempted.
func Lexical(sql string) Outcome {
	masked := maskQuoted(sql)
	if loc := blockedKeywordRe.FindStringIndex(masked); loc != nil {
		fragment := sql[loc[0]:loc[1]]
		return RejectedAt(StageLexical, "blocked keyword "+strings.ToUpper(fragment), fragment, loc[0])
	}
	for _, p := range blockedPatterns {
		if loc := p.re.FindStringIndex(masked); loc != nil {
			fragment := sql[loc[0]:loc[1]]
			return RejectedAt(StageLexical, "blocked pattern ("+p.reason+")", fragment, loc[0])
		}
	}
	return Outcome{OK: true, Pos: -1}
}

// maskQuoted blanks the contents of string literals and quoted identifiers,
// preserving byte offsets, so the blocklist scan only sees bare SQL tokens.
func maskQuoted(sql string) string {
	out := []byte(sql)
	var quote byte
	for i := 0; i < len(out); i++ {
		c := out[i]
		if quote == 0 {
			if c == '\'' || c == '"' || c == '`' {
				quote = c
			}
			continue
		}
		switch c {
		case '\\':
			// Backslash escape inside a literal; blank it and the next byte.
			out[i] = ' '
			if i+1 < len(out) {
				out[i+1] = ' '
				i++
			}
		case quote:
			if i+1 < len(out) && out[i+1] == quote {
				// Doubled quote is an escaped quote, still inside.
				out[i] = ' '
				out[i+1] = ' '
				i++
				continue
			}
			quote = 0
		default:
			out[i] = ' '
		}
	}
	return string(out)
}
