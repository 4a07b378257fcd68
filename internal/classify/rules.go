package classify

import (
	"os"
	"regexp"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Rule is one pattern in the classification table. Patterns are matched
// against the normalized (case-folded, whitespace-collapsed) street line,
// so they are written lowercase. RE2 has no backtracking, which keeps
// classification linear in the input length.
type Rule struct {
	Category   string
	Confidence float64
	Threshold  float64
	re         *regexp.Regexp
}

// RuleSet is the ordered classification table: non-visitable rules are
// evaluated before physical-indicator rules, and within each list the
// first match wins.
type RuleSet struct {
	NonVisitable []Rule
	Physical     []Rule
}

// Rule categories reported in classifications and audit output.
const (
	CategoryPOBox          = "po_box"
	CategoryPrivateMailBox = "private_mail_box"
	CategoryMailForwarding = "mail_forwarding"
	CategoryStreetSuffix   = "street_suffix"
	CategoryDirectional    = "directional_street"
	CategoryBuildingUnit   = "building_unit"
)

func mustRule(category string, confidence, threshold float64, pattern string) Rule {
	return Rule{
		Category:   category,
		Confidence: confidence,
		Threshold:  threshold,
		re:         regexp.MustCompile(pattern),
	}
}

// DefaultRules returns the stock classification table. Confidences follow
// the directory's established policy: PO boxes 0.9, other mail-redirection
// forms 0.8, physical indicators 0.85.
func DefaultRules() RuleSet {
	return RuleSet{
		NonVisitable: []Rule{
			mustRule(CategoryPOBox, 0.9, 0.7, `\b(?:p\.?\s*o\.?\s*box|post\s*office\s*box|postal\s*box)\b`),
			mustRule(CategoryPOBox, 0.9, 0.7, `\bpob\s*\d+\b`),
			mustRule(CategoryPOBox, 0.9, 0.7, `\bp\.o\.\s*\d+\b`),
			mustRule(CategoryPOBox, 0.9, 0.7, `\bpo\s*\d+\b`),
			// Bare "box N" only when it is the entire line; "box" appears in
			// too many legitimate street names to match mid-line.
			mustRule(CategoryPOBox, 0.9, 0.7, `^box\s*\d+$`),
			mustRule(CategoryPrivateMailBox, 0.8, 0.7, `\b(?:pmb|private\s*mail\s*box)\s*\d+\b`),
			mustRule(CategoryPrivateMailBox, 0.8, 0.7, `\bmail\s*drop\s*\d+\b`),
			mustRule(CategoryMailForwarding, 0.8, 0.7, `\bsuite\s*\d+\b.*\b(?:mail\s*forwarding|virtual|mailbox)\b`),
			mustRule(CategoryMailForwarding, 0.8, 0.7, `\b(?:mail\s*forwarding|virtual\s*office)\b.*\bsuite\s*\d+\b`),
			mustRule(CategoryMailForwarding, 0.8, 0.7, `\bc/o\s+[a-z ]*mail\b`),
		},
		Physical: []Rule{
			mustRule(CategoryStreetSuffix, 0.85, 0.7,
				`\d+\s+[a-z .']*\b(?:street|st|avenue|ave|road|rd|lane|ln|drive|dr|boulevard|blvd|way|place|pl|court|ct|circle|cir|highway|hwy|parkway|pkwy|terrace|ter|trail|trl)\b`),
			mustRule(CategoryDirectional, 0.85, 0.7,
				`\d+\s+[nsew]\.?\s+[a-z .']+\b(?:street|st|avenue|ave|road|rd|boulevard|blvd)\b`),
			mustRule(CategoryBuildingUnit, 0.85, 0.7, `\b(?:building|bldg|floor|suite)\s*[a-z\d]+\b`),
		},
	}
}

// ruleSpec is the YAML shape of a rule group in an override file.
type ruleSpec struct {
	Category   string   `yaml:"category"`
	Confidence float64  `yaml:"confidence"`
	Threshold  float64  `yaml:"threshold"`
	Patterns   []string `yaml:"patterns"`
}

type ruleFile struct {
	NonVisitable []ruleSpec `yaml:"non_visitable"`
	Physical     []ruleSpec `yaml:"physical"`
}

// LoadRules reads a rule set from a YAML file, letting operators tune the
// classification policy (pattern ordering and thresholds) without a
// rebuild. Rule order in the file is the evaluation order.
func LoadRules(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, eris.Wrap(err, "classify: read rules file")
	}

	var rf ruleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return RuleSet{}, eris.Wrap(err, "classify: parse rules file")
	}

	compile := func(specs []ruleSpec) ([]Rule, error) {
		var rules []Rule
		for _, spec := range specs {
			if spec.Category == "" {
				return nil, eris.New("classify: rule category is required")
			}
			if len(spec.Patterns) == 0 {
				return nil, eris.Errorf("classify: rule %q has no patterns", spec.Category)
			}
			for _, p := range spec.Patterns {
				re, err := regexp.Compile(p)
				if err != nil {
					return nil, eris.Wrapf(err, "classify: compile pattern %q", p)
				}
				rules = append(rules, Rule{
					Category:   spec.Category,
					Confidence: spec.Confidence,
					Threshold:  spec.Threshold,
					re:         re,
				})
			}
		}
		return rules, nil
	}

	rs := RuleSet{}
	if rs.NonVisitable, err = compile(rf.NonVisitable); err != nil {
		return RuleSet{}, err
	}
	if rs.Physical, err = compile(rf.Physical); err != nil {
		return RuleSet{}, err
	}
	if len(rs.NonVisitable) == 0 {
		return RuleSet{}, eris.New("classify: rules file defines no non_visitable rules")
	}
	return rs, nil
}
