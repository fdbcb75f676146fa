package llm

import "strings"

// Kind sorts a model reply into something executable or a refusal.
type Kind int

// Reply kinds.
const (
	// KindCandidate means the reply contains SQL worth validating.
	KindCandidate Kind = iota
	// KindRefusal means the model declined or produced no SQL at all.
	KindRefusal
)

func (k Kind) String() string {
	if k == KindRefusal {
		return "refusal"
	}
	return "candidate"
}

// Classification is the result of sorting one reply.
type Classification struct {
	Kind Kind
	// SQL is the extracted candidate text; empty for refusals.
	SQL string
	// Note explains a refusal verdict.
	Note string
}

// Classifier decides whether a reply is a candidate or a refusal. The session
// loop treats refusals differently from rejections, so this is swappable
// without touching the loop.
type Classifier interface {
	Classify(reply string) Classification
}

// HeuristicClassifier is the default phrase-based classifier. A reply is a
// refusal when it carries no SQL-shaped text, or when it leads with a known
// refusal phrase and never gets to a statement.
type HeuristicClassifier struct{}

var refusalPhrases = []string{
	"i cannot",
	"i can't",
	"i can not",
	"i'm sorry",
	"i am sorry",
	"i'm unable",
	"i am unable",
	"unable to",
	"cannot assist",
	"cannot help",
	"as an ai",
	"not able to provide",
	"no sql",
}

// Classify extracts candidate SQL from the reply, stripping code fences and a
// trailing statement terminator, and falls back to a refusal verdict.
func (HeuristicClassifier) Classify(reply string) Classification {
	sql := ExtractSQL(reply)
	if sql != "" {
		return Classification{Kind: KindCandidate, SQL: sql}
	}
	trimmed := strings.ToLower(strings.TrimSpace(reply))
	if trimmed == "" {
		return Classification{Kind: KindRefusal, Note: "empty reply"}
	}
	for _, phrase := range refusalPhrases {
		if strings.Contains(trimmed, phrase) {
			return Classification{Kind: KindRefusal, Note: "refusal phrase \"" + phrase + "\""}
		}
	}
	return Classification{Kind: KindRefusal, Note: "no SQL statement in reply"}
}

// ExtractSQL pulls the statement text out of a reply. Fenced blocks win over
// loose text; otherwise the reply must start at a query keyword. A trailing
// semicolon is dropped so the terminator blocklist never fires on it.
func ExtractSQL(reply string) string {
	text := strings.TrimSpace(reply)
	if fenced := insideFence(text); fenced != "" {
		text = fenced
	}
	text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), ";"))
	if text == "" {
		return ""
	}
	head := strings.ToUpper(firstWord(text))
	switch head {
	case "SELECT", "WITH":
		return text
	}
	return ""
}

func insideFence(text string) string {
	start := strings.Index(text, "```")
	if start < 0 {
		return ""
	}
	rest := text[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		// Drop the language tag on the fence line.
		if lang := strings.TrimSpace(rest[:nl]); !strings.ContainsAny(lang, " \t") {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(rest[:end])
}

func firstWord(text string) string {
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '(' {
			return text[:i]
		}
	}
	return text
}
