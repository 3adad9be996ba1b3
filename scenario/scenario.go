// Package scenario is the fixed table of fault scenarios the controller knows
// how to inject. Each entry resolves to either a toxic definition forwarded
// verbatim to the control plane or a proxy-state toggle.
package scenario

import (
	"github.com/Shopify/toxics/stream"
)

// Kind is the closed set of fault categories. Every kind except
// KindProxyState maps to a toxiproxy toxic type.
type Kind uint8

const (
	KindLatency Kind = iota
	KindBandwidth
	KindTimeout
	KindResetPeer
	KindLimitData
	KindSlicer
	KindSlowClose
	KindProxyState
	NumKinds
)

var toxicTypes = [...]string{
	KindLatency:   "latency",
	KindBandwidth: "bandwidth",
	KindTimeout:   "timeout",
	KindResetPeer: "reset_peer",
	KindLimitData: "limit_data",
	KindSlicer:    "slicer",
	KindSlowClose: "slow_close",
}

// IsToxic reports whether applying the kind creates a toxic resource.
func (k Kind) IsToxic() bool {
	return k < KindProxyState
}

// ToxicType is the control-plane type name, empty for non-toxic kinds.
func (k Kind) ToxicType() string {
	if !k.IsToxic() {
		return ""
	}
	return toxicTypes[k]
}

func (k Kind) String() string {
	switch {
	case k.IsToxic():
		return toxicTypes[k]
	case k == KindProxyState:
		return "proxy-state"
	}
	return "unknown"
}

// Attributes are fault-specific numbers (milliseconds, bytes, KB/s). The
// controller does not interpret them.
type Attributes map[string]int64

type Scenario struct {
	ID          string
	Description string
	Kind        Kind

	// Unset for KindProxyState.
	ToxicName  string
	Stream     stream.Direction
	Attributes Attributes
}

func (s Scenario) clone() Scenario {
	if s.Attributes != nil {
		attrs := make(Attributes, len(s.Attributes))
		for k, v := range s.Attributes {
			attrs[k] = v
		}
		s.Attributes = attrs
	}
	return s
}
