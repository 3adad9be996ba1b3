package scenario

import (
	"sort"

	"github.com/Shopify/toxics/pkg/errors"
	"github.com/Shopify/toxics/stream"
)

// Down is the scenario that disables the whole proxy instead of adding a toxic.
const Down = "down"

var registry = map[string]Scenario{
	"latency": {
		ID:          "latency",
		Description: "delay client->broker traffic by 3s +/- 1s",
		Kind:        KindLatency,
		ToxicName:   "latency-up",
		Stream:      stream.Upstream,
		Attributes:  Attributes{"latency": 3000, "jitter": 1000},
	},
	"bandwidth": {
		ID:          "bandwidth",
		Description: "cap broker->client throughput at 1 KB/s",
		Kind:        KindBandwidth,
		ToxicName:   "bandwidth-down",
		Stream:      stream.Downstream,
		Attributes:  Attributes{"rate": 1},
	},
	"timeout": {
		ID:          "timeout",
		Description: "stop client->broker data and close after 5s",
		Kind:        KindTimeout,
		ToxicName:   "timeout-up",
		Stream:      stream.Upstream,
		Attributes:  Attributes{"timeout": 5000},
	},
	"reset": {
		ID:          "reset",
		Description: "reset client connections after 1s",
		Kind:        KindResetPeer,
		ToxicName:   "reset-up",
		Stream:      stream.Upstream,
		Attributes:  Attributes{"timeout": 1000},
	},
	"truncate": {
		ID:          "truncate",
		Description: "close client connections after 64 bytes",
		Kind:        KindLimitData,
		ToxicName:   "limit-up",
		Stream:      stream.Upstream,
		Attributes:  Attributes{"bytes": 64},
	},
	"slicer": {
		ID:          "slicer",
		Description: "fragment broker->client data into ~16 byte packets",
		Kind:        KindSlicer,
		ToxicName:   "slicer-down",
		Stream:      stream.Downstream,
		Attributes:  Attributes{"average_size": 16, "size_variation": 8, "delay": 1000},
	},
	"slow-close": {
		ID:          "slow-close",
		Description: "delay closing broker->client connections by 2s",
		Kind:        KindSlowClose,
		ToxicName:   "slow-close-down",
		Stream:      stream.Downstream,
		Attributes:  Attributes{"delay": 2000},
	},
	Down: {
		ID:          Down,
		Description: "disable the proxy, dropping every connection",
		Kind:        KindProxyState,
	},
}

// Lookup returns a copy of the scenario registered under id.
func Lookup(id string) (Scenario, error) {
	s, ok := registry[id]
	if !ok {
		return Scenario{}, errors.ErrScenarioNotFound
	}
	return s.clone(), nil
}

// All returns every registered scenario ordered by id.
func All() []Scenario {
	result := make([]Scenario, 0, len(registry))
	for _, s := range registry {
		result = append(result, s.clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}

// IDs returns the registered scenario ids in order.
func IDs() []string {
	all := All()
	ids := make([]string, len(all))
	for i, s := range all {
		ids[i] = s.ID
	}
	return ids
}
