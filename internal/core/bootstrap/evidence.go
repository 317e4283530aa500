// Package bootstrap finds out which probe methods work on this host.
//
// Each check yields Evidence: a property with a value, a confidence and the
// method used to learn it. Recommend turns the evidence into a suggested
// probe method.
package bootstrap

import "time"

// Category classifies types of evidence
type Category string

const (
	CategoryPermissions Category = "permissions"
	CategoryCapability  Category = "capability"
	CategoryNetwork     Category = "network"
)

// Properties gathered by Detect
const (
	PropIsRoot        = "is_root"
	PropHasPing       = "has_ping"
	PropCanICMPPing   = "can_icmp_ping"
	PropCanRawSocket  = "can_raw_socket"
	PropHasNmap       = "has_nmap"
	PropCanTCPConnect = "can_tcp_connect"
	PropInterfaces    = "active_interfaces"
)

// Evidence represents a single piece of discovered knowledge
type Evidence struct {
	Category   Category       `json:"category"`
	Property   string         `json:"property"`
	Value      any            `json:"value"`
	Confidence float64        `json:"confidence"` // 0.0-1.0
	Source     string         `json:"source"`     // e.g. "probe", "syscall"
	Method     string         `json:"method"`     // e.g. "ping -c 1 127.0.0.1 succeeded"
	Timestamp  time.Time      `json:"timestamp"`
	Raw        map[string]any `json:"raw,omitempty"`
}

// NewEvidence creates evidence stamped with the current time
func NewEvidence(cat Category, prop string, value any, conf float64, source, method string) Evidence {
	return Evidence{
		Category:   cat,
		Property:   prop,
		Value:      value,
		Confidence: conf,
		Source:     source,
		Method:     method,
		Timestamp:  time.Now(),
	}
}

// WithRaw adds raw data to evidence and returns it (for chaining)
func (e Evidence) WithRaw(raw map[string]any) Evidence {
	e.Raw = raw
	return e
}

// EvidenceSet aggregates multiple pieces of evidence
type EvidenceSet struct {
	items []Evidence
}

// NewEvidenceSet creates an empty evidence set
func NewEvidenceSet() *EvidenceSet {
	return &EvidenceSet{}
}

// Add appends a single piece of evidence
func (es *EvidenceSet) Add(e Evidence) {
	es.items = append(es.items, e)
}

// AddAll appends multiple pieces of evidence
func (es *EvidenceSet) AddAll(items []Evidence) {
	es.items = append(es.items, items...)
}

// All returns all evidence
func (es *EvidenceSet) All() []Evidence {
	return es.items
}

// Count returns the number of evidence items
func (es *EvidenceSet) Count() int {
	return len(es.items)
}

// BestValue returns the highest-confidence value for a property
func (es *EvidenceSet) BestValue(cat Category, prop string) (any, float64, bool) {
	var best Evidence
	var found bool

	for _, e := range es.items {
		if e.Category == cat && e.Property == prop {
			if !found || e.Confidence > best.Confidence {
				best = e
				found = true
			}
		}
	}

	if !found {
		return nil, 0, false
	}
	return best.Value, best.Confidence, true
}

// Bool returns the best value of a boolean property, false when absent
func (es *EvidenceSet) Bool(cat Category, prop string) bool {
	v, _, ok := es.BestValue(cat, prop)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}
