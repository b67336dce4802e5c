package cache

import "encoding/json"

// Key identifies a cached query: the endpoint plus a canonical
// serialization of its arguments. Two calls with equal keys are the same
// query and share one cache entry.
type Key struct {
	Endpoint string
	Args     string
}

// NewKey builds a key from an endpoint and its arguments. Args are
// serialized with encoding/json, which sorts map keys, so equal arguments
// always produce equal keys.
func NewKey(endpoint string, args any) Key {
	if args == nil {
		return Key{Endpoint: endpoint}
	}
	data, err := json.Marshal(args)
	if err != nil {
		// Unserializable args still need a stable key; fall back to the
		// endpoint alone rather than panicking in a read path.
		return Key{Endpoint: endpoint}
	}
	return Key{Endpoint: endpoint, Args: string(data)}
}

func (k Key) String() string {
	if k.Args == "" {
		return k.Endpoint
	}
	return k.Endpoint + "?" + k.Args
}
