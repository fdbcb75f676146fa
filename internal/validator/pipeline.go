package validator

import "github.com/wysokinskinorbert/BIAI-sub002/internal/dialect"

// Pipeline runs the validation layers in fixed order and stops at the first
// rejection. It owns a parser instance, so a pipeline belongs to exactly one
// session at a time.
type Pipeline struct {
	profile    *dialect.Profile
	structural *Structural
}

// NewPipeline builds a pipeline targeting the given dialect profile.
func NewPipeline(profile *dialect.Profile) *Pipeline {
	return &Pipeline{profile: profile, structural: NewStructural()}
}

// Profile returns the dialect profile this pipeline renders for.
func (p *Pipeline) Profile() *dialect.Profile {
	return p.profile
}

// Validate gates a candidate. Only an accepted outcome carries CanonicalSQL,
// and only that string may be sent to the database.
func (p *Pipeline) Validate(sql string) Outcome {
	if out := Lexical(sql); !out.OK {
		return out
	}
	root, out := p.structural.Validate(sql)
	if !out.OK {
		return out
	}
	return Transpile(root, p.profile)
}
