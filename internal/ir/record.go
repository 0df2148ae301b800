package ir

// CollectionClients is the name of the clients collection.
const CollectionClients = "clients"

// ProtocolVersion is the sync protocol version advertised in our own record.
const ProtocolVersion = "1.5"

// Client is one device's record in the clients collection, keyed by ID.
//
// Version, Protocols, FormFactor, OS, AppPackage, Application and Device are
// never interpreted here; other implementations write them and we round-trip
// them. Every optional field is omitted from the wire form when empty.
type Client struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Type        string          `json:"type,omitempty"`
	Commands    []ClientCommand `json:"commands,omitempty"`
	FxaDeviceID string          `json:"fxaDeviceId,omitempty"`

	Version     string   `json:"version,omitempty"`
	Protocols   []string `json:"protocols,omitempty"`
	FormFactor  string   `json:"formfactor,omitempty"`
	OS          string   `json:"os,omitempty"`
	AppPackage  string   `json:"appPackage,omitempty"`
	Application string   `json:"application,omitempty"`
	// Device is the hardware model ("iPhone"), not the record id or the
	// linked account device id.
	Device string `json:"device,omitempty"`
}

// CommandSet classifies the record's commands. Entries without a canonical
// value are skipped here but stay in c.Commands.
func (c *Client) CommandSet() *CommandSet {
	set := NewCommandSet()
	for _, cc := range c.Commands {
		if cmd, ok := cc.AsCommand(); ok {
			set.Add(cmd)
		}
	}
	return set
}
