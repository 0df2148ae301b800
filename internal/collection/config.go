package collection

// postSafetyMargin is subtracted from the POST limit to leave room for the
// envelope around a single record.
const postSafetyMargin = 4096

// memcacheRecordCeiling caps records of collections served from the
// in-memory tier ("clients", "tabs", "meta"). The real limit there is 1 MiB
// but the overhead on top of the payload is hard to compute client-side,
// so half of it is used. A lower server-advertised limit still wins.
const memcacheRecordCeiling = 512 * 1024

// ServerConfig holds the size limits the server advertises in its
// info/configuration document. They can change between cycles, so derived
// sizes are recomputed every time.
type ServerConfig struct {
	MaxRecordPayloadBytes int `json:"max_record_payload_bytes" yaml:"max_record_payload_bytes"`
	MaxPostBytes          int `json:"max_post_bytes" yaml:"max_post_bytes"`
}

// DefaultServerConfig returns the limits a server uses when it does not
// advertise any.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		MaxRecordPayloadBytes: 256 * 1024,
		MaxPostBytes:          2 * 1024 * 1024,
	}
}

// MaxRecordPayloadSize is the largest serialized record the server accepts.
//
// A record has to fit in a single POST together with its envelope, so the
// POST limit minus a safety margin (floored at zero) caps the advertised
// per-record limit. A server that advertises no record limit gets the
// POST-derived value.
//
// A record limit at or below the POST limit is honored as advertised:
// record 300,000 with POST 2,000,000 gives 300,000 (and 300,000 for the
// memcache tier), where a rule keyed only on the POST limit would give
// 1,995,904 (524,288 for memcache). The store fails records over the
// advertised limit, so sizing to anything larger only produces upload
// failures.
func (c ServerConfig) MaxRecordPayloadSize() int {
	postMax := max(c.MaxPostBytes-postSafetyMargin, 0)
	if c.MaxRecordPayloadBytes <= 0 {
		return postMax
	}
	return min(c.MaxRecordPayloadBytes, postMax)
}

// MemcacheMaxRecordPayloadSize is MaxRecordPayloadSize capped for
// collections stored in the in-memory tier.
func (c ServerConfig) MemcacheMaxRecordPayloadSize() int {
	return min(c.MaxRecordPayloadSize(), memcacheRecordCeiling)
}
