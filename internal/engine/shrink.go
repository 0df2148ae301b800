package engine

import "github.com/roach88/clientsync/internal/ir"

// commandsFieldOverhead is what a non-empty command list adds to a record
// besides the array itself: the quoted key, the colon and one comma.
var commandsFieldOverhead = len(`"commands":`) + len(",")

// ShrinkToFit drops entries from the front of commands until the JSON array
// of what remains is at most maxSize bytes, or nothing remains.
//
// The oldest commands go first; the ones appended last are the most recent
// intent and are kept. Retained entries keep their relative order. The
// input slice is not modified.
//
// The only error is a SerializationError for an entry that cannot be
// encoded at all.
func ShrinkToFit(commands []ir.ClientCommand, maxSize int) ([]ir.ClientCommand, error) {
	if len(commands) == 0 {
		return commands, nil
	}

	sizes := make([]int, len(commands))
	total := len("[]") + len(commands) - 1 // brackets and commas
	for i, cc := range commands {
		data, err := ir.MarshalWire(cc)
		if err != nil {
			return nil, NewSerializationError(cc.Name, err)
		}
		sizes[i] = len(data)
		total += sizes[i]
	}

	start := 0
	for total > maxSize && start < len(commands) {
		total -= sizes[start]
		if start < len(commands)-1 {
			total-- // the comma that followed it
		}
		start++
	}

	switch {
	case start == 0:
		return commands, nil
	case start == len(commands):
		return nil, nil
	default:
		out := make([]ir.ClientCommand, len(commands)-start)
		copy(out, commands[start:])
		return out, nil
	}
}

// SerializedSize returns the length of v's wire encoding.
func SerializedSize(v any) (int, error) {
	data, err := ir.MarshalWire(v)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

// shrinkRecordToFit trims c.Commands so that the whole record serializes to
// at most maxSize bytes. It returns how many commands were dropped.
func shrinkRecordToFit(c *ir.Client, maxSize int) (int, error) {
	if len(c.Commands) == 0 {
		return 0, nil
	}

	bare := *c
	bare.Commands = nil
	baseSize, err := SerializedSize(bare)
	if err != nil {
		return 0, NewSerializationError(c.ID, err)
	}

	before := len(c.Commands)
	budget := maxSize - baseSize - commandsFieldOverhead
	if budget < len("[]") {
		c.Commands = nil
		return before, nil
	}

	shrunk, err := ShrinkToFit(c.Commands, budget)
	if err != nil {
		return 0, err
	}
	c.Commands = shrunk
	return before - len(shrunk), nil
}
