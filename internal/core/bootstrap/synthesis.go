package bootstrap

import (
	"fmt"

	"reachgraph/internal/probe"
)

// Recommendation is the suggested probe method for this host
type Recommendation struct {
	Method     string   `json:"method"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons"`
	Warnings   []string `json:"warnings,omitempty"`
}

// Recommend picks a probe method from gathered evidence. ICMP is preferred,
// then nmap when it can send raw packets, then TCP connect.
func Recommend(es *EvidenceSet) Recommendation {
	var rec Recommendation

	canPing := es.Bool(CategoryCapability, PropCanICMPPing)
	hasNmap := es.Bool(CategoryCapability, PropHasNmap)
	canRaw := es.Bool(CategoryCapability, PropCanRawSocket)
	isRoot := es.Bool(CategoryPermissions, PropIsRoot)
	canTCP := es.Bool(CategoryCapability, PropCanTCPConnect)

	if canPing {
		rec.Reasons = append(rec.Reasons, "ICMP ping available")
	} else if es.Bool(CategoryCapability, PropHasPing) {
		rec.Reasons = append(rec.Reasons, "ping binary found but cannot ping loopback")
	} else {
		rec.Reasons = append(rec.Reasons, "ping binary not found")
	}

	if hasNmap {
		rec.Reasons = append(rec.Reasons, "nmap available")
	}
	if canRaw || isRoot {
		rec.Reasons = append(rec.Reasons, "raw socket capability available")
	}

	switch {
	case canPing:
		rec.Method, rec.Confidence = probe.MethodICMP, 0.90
	case hasNmap && (canRaw || isRoot):
		rec.Method, rec.Confidence = probe.MethodNmap, 0.80
	case canTCP:
		rec.Method, rec.Confidence = probe.MethodTCP, 0.75
		rec.Reasons = append(rec.Reasons, "TCP connect fallback")
	default:
		rec.Method, rec.Confidence = probe.MethodTCP, 0.50
		rec.Warnings = append(rec.Warnings, "no probe method could be verified")
	}

	if v, _, ok := es.BestValue(CategoryNetwork, PropInterfaces); ok {
		if n, _ := v.(int); n == 0 {
			rec.Warnings = append(rec.Warnings,
				"no active network interface - remote endpoints will show as disconnected")
		} else {
			rec.Reasons = append(rec.Reasons, fmt.Sprintf("%d active network interface(s)", n))
		}
	}

	return rec
}

// Available reports whether the evidence shows method can work here
func Available(es *EvidenceSet, method string) bool {
	switch method {
	case probe.MethodICMP:
		return es.Bool(CategoryCapability, PropCanICMPPing)
	case probe.MethodNmap:
		return es.Bool(CategoryCapability, PropHasNmap)
	case probe.MethodTCP:
		return es.Bool(CategoryCapability, PropCanTCPConnect)
	case probe.MethodSTUN:
		v, _, ok := es.BestValue(CategoryNetwork, PropInterfaces)
		n, _ := v.(int)
		return ok && n > 0
	default:
		return false
	}
}
