// Package event models the trigger events a run is evaluated against and
// implements the branch-filter matching rules for workflow triggers.
package event

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/specialistvlad/matrixrun/internal/model"
)

// Event is the occurrence a run simulates: an event name plus the git ref it
// happened on.
type Event struct {
	Name string
	Ref  string
}

// New validates the event name and returns an Event for the given ref.
func New(name, ref string) (Event, error) {
	if name == "" {
		return Event{}, fmt.Errorf("event name must not be empty")
	}
	return Event{Name: name, Ref: ref}, nil
}

// Branch returns the short branch name for the event's ref. Fully-qualified
// refs (refs/heads/..., refs/tags/...) are stripped to their final form.
func (e Event) Branch() string {
	ref := e.Ref
	for _, prefix := range []string{"refs/heads/", "refs/tags/"} {
		if strings.HasPrefix(ref, prefix) {
			return strings.TrimPrefix(ref, prefix)
		}
	}
	return ref
}

// String renders the event for logs, e.g. "push@master".
func (e Event) String() string {
	if e.Ref == "" {
		return e.Name
	}
	return e.Name + "@" + e.Branch()
}

// Matches reports whether the given triggers fire for this event. A nil
// trigger set never fires; a rule with no branch filters fires on any branch.
func Matches(t *model.Triggers, e Event) bool {
	if t == nil {
		return false
	}
	for _, rule := range t.Events {
		if rule.Name != e.Name {
			continue
		}
		if ruleMatchesBranch(rule, e.Branch()) {
			return true
		}
	}
	return false
}

// ruleMatchesBranch applies the branches / branches-ignore filters of a
// single rule to a branch name.
func ruleMatchesBranch(rule *model.EventRule, branch string) bool {
	if len(rule.Branches) > 0 && !anyPatternMatches(rule.Branches, branch) {
		return false
	}
	if anyPatternMatches(rule.BranchesIgnore, branch) {
		return false
	}
	return true
}

func anyPatternMatches(patterns []string, branch string) bool {
	for _, p := range patterns {
		if MatchBranch(p, branch) {
			return true
		}
	}
	return false
}

// MatchBranch reports whether a branch name matches a single filter pattern.
// Patterns use the workflow glob dialect: `*` matches within a path segment,
// `**` crosses segments, `?` matches one character. A malformed pattern
// matches nothing.
func MatchBranch(pattern, branch string) bool {
	re, err := compilePattern(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(branch)
}

// compilePattern translates a branch glob into an anchored regexp.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; c {
		case '*':
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				sb.WriteString(".*")
				i++
			} else {
				sb.WriteString("[^/]*")
			}
		case '?':
			sb.WriteString("[^/]")
		default:
			sb.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	sb.WriteString("$")
	return regexp.Compile(sb.String())
}
