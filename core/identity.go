package core

import (
	"strings"

	"github.com/courselab/teamscope/schema"
)

// IdentityResolver resolves a raw commit author email to a team member.
// It holds three mapping layers checked in precedence order: registered
// member emails, manually curated overrides, and mappings learned during a
// single walk from anchor-resolved commits. The resolver is an explicit
// value threaded through the walk, never a shared table.
type IdentityResolver struct {
	registered map[string]string
	overrides  map[string]string
	learned    map[string]string
}

// NewIdentityResolver builds a resolver from a team's registered emails and
// curated overrides. Both maps are raw-email -> member-ID.
func NewIdentityResolver(registered, overrides map[string]string) *IdentityResolver {
	r := &IdentityResolver{
		registered: make(map[string]string, len(registered)),
		overrides:  make(map[string]string, len(overrides)),
		learned:    make(map[string]string),
	}
	for email, id := range registered {
		r.registered[normalizeEmail(email)] = id
	}
	for email, id := range overrides {
		r.overrides[normalizeEmail(email)] = id
	}
	return r
}

// Resolve maps a raw email to a member ID. The boolean is false when the
// email resolves to nobody, which is the well-defined orphan outcome, not
// an error.
func (r *IdentityResolver) Resolve(email string) (string, schema.AttributionSource, bool) {
	email = normalizeEmail(email)
	if id, ok := r.registered[email]; ok {
		return id, schema.EmailSource, true
	}
	if id, ok := r.overrides[email]; ok {
		return id, schema.OverrideSource, true
	}
	if id, ok := r.learned[email]; ok {
		return id, schema.LearnedSource, true
	}
	return "", schema.NoSource, false
}

// Learn records a raw-email -> member mapping observed at an anchor-resolved
// commit. Emails that already resolve are never overwritten, so the first
// (earliest) anchor wins and re-running is reproducible.
func (r *IdentityResolver) Learn(email, memberID string) {
	email = normalizeEmail(email)
	if email == "" {
		return
	}
	if _, _, ok := r.Resolve(email); ok {
		return
	}
	r.learned[email] = memberID
}

// Learned returns a copy of the mappings learned so far.
func (r *IdentityResolver) Learned() map[string]string {
	out := make(map[string]string, len(r.learned))
	for email, id := range r.learned {
		out[email] = id
	}
	return out
}

// normalizeEmail lowercases and trims a raw email for exact comparison.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
