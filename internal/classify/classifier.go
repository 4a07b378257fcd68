// Package classify decides whether a free-text address denotes a physically
// visitable location or a non-visitable mailing address (PO box, private
// mail box, forwarding suite). Classification is pure and deterministic:
// an ordered rule table of RE2 patterns, first match wins.
package classify

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"github.com/tackle-hunger/charity-cli/internal/model"
)

// Classifier evaluates addresses against an immutable rule set.
type Classifier struct {
	rules  RuleSet
	folder cases.Caser
}

// New creates a Classifier over the given rule set. The rule set is not
// copied; callers must not mutate it after construction.
func New(rules RuleSet) *Classifier {
	return &Classifier{
		rules:  rules,
		folder: cases.Fold(),
	}
}

// Default returns a Classifier using DefaultRules.
func Default() *Classifier {
	return New(DefaultRules())
}

var whitespaceRE = regexp.MustCompile(`\s+`)

// normalize folds case, treats hyphens as spaces, and collapses runs of
// whitespace, so punctuation and casing variants match the same patterns.
// Line 2 is appended when present; when line 1 is blank, line 2 stands in
// for it.
func (c *Classifier) normalize(addr model.Address) string {
	line := strings.TrimSpace(addr.Street)
	if line == "" {
		line = strings.TrimSpace(addr.Line2)
	} else if l2 := strings.TrimSpace(addr.Line2); l2 != "" {
		line += " " + l2
	}
	if line == "" {
		return ""
	}
	line = c.folder.String(line)
	line = strings.ReplaceAll(line, "-", " ")
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(line), " ")
}

// Classify returns the verdict for an address. Non-visitable rules are
// checked first and the first match wins, so a line carrying both a street
// phrase and a box phrase ("123 Main St, PO Box 4") is flagged: when a
// mailing redirection is present at all, the address is unsuitable for a
// service site.
func (c *Classifier) Classify(addr model.Address) model.Classification {
	line := c.normalize(addr)
	if line == "" {
		return model.Classification{Verdict: model.VerdictUnknown}
	}

	for _, r := range c.rules.NonVisitable {
		if r.Confidence >= r.Threshold && r.re.MatchString(line) {
			return model.Classification{
				Verdict:    model.VerdictNonVisitable,
				Confidence: r.Confidence,
				Category:   r.Category,
			}
		}
	}

	for _, r := range c.rules.Physical {
		if r.Confidence >= r.Threshold && r.re.MatchString(line) {
			return model.Classification{
				Verdict:    model.VerdictPhysical,
				Confidence: r.Confidence,
				Category:   r.Category,
			}
		}
	}

	return model.Classification{Verdict: model.VerdictUnknown}
}

// SuitableForSite reports whether an address may stay on a service site.
// Physical and unknown both pass: the classifier filters definite mailing
// addresses, it does not validate that an address is certainly physical.
func (c *Classifier) SuitableForSite(addr model.Address) bool {
	return c.Classify(addr).Verdict != model.VerdictNonVisitable
}
