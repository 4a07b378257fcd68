package model

// Verdict is the classifier's judgment of an address string.
type Verdict string

const (
	// VerdictPhysical means a physical-indicator pattern matched and no
	// non-visitable pattern did.
	VerdictPhysical Verdict = "physical"

	// VerdictNonVisitable means the address is a mailing address (PO box,
	// private mail box, forwarding suite) and cannot be visited.
	VerdictNonVisitable Verdict = "non_visitable"

	// VerdictUnknown means no rule matched. The workflow treats unknown
	// addresses as untouchable: a false negative is preferred over
	// stripping a legitimate street address.
	VerdictUnknown Verdict = "unknown"
)

// Classification is the output of the address classifier.
type Classification struct {
	Verdict    Verdict `json:"verdict"`
	Confidence float64 `json:"confidence"`
	// Category names the rule that produced the verdict, e.g. "po_box".
	// Empty when the verdict is unknown.
	Category string `json:"category,omitempty"`
}
