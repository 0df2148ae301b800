package ir

import "fmt"

// Command is a canonical remote instruction delivered through the clients
// collection. The set is closed; equality is by value, never by wire form.
type Command int

const (
	WipeLogins Command = iota + 1
	WipeHistory
	WipeBookmarks
	WipeAll
	ResetLogins
	ResetHistory
	ResetBookmarks
	ResetAll
)

// AllCommands lists every canonical command in declaration order.
var AllCommands = []Command{
	WipeLogins,
	WipeHistory,
	WipeBookmarks,
	WipeAll,
	ResetLogins,
	ResetHistory,
	ResetBookmarks,
	ResetAll,
}

// Wire command names.
const (
	CommandWipeEngine  = "wipeEngine"
	CommandWipeAll     = "wipeAll"
	CommandResetEngine = "resetEngine"
	CommandResetAll    = "resetAll"
)

// Engine names carried as the first argument of wipeEngine/resetEngine.
const (
	EnginePasswords = "passwords"
	EngineHistory   = "history"
	EngineBookmarks = "bookmarks"
)

var commandNames = map[Command]string{
	WipeLogins:     "wipe-logins",
	WipeHistory:    "wipe-history",
	WipeBookmarks:  "wipe-bookmarks",
	WipeAll:        "wipe-all",
	ResetLogins:    "reset-logins",
	ResetHistory:   "reset-history",
	ResetBookmarks: "reset-bookmarks",
	ResetAll:       "reset-all",
}

// String returns the kebab-case name used by the CLI and in logs.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("command(%d)", int(c))
}

// ParseCommand parses a kebab-case command name ("wipe-history").
func ParseCommand(name string) (Command, error) {
	for _, c := range AllCommands {
		if commandNames[c] == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown command %q", name)
}

// Engine returns the local engine a per-engine command targets, or "" for
// WipeAll and ResetAll.
func (c Command) Engine() string {
	switch c {
	case WipeLogins, ResetLogins:
		return EnginePasswords
	case WipeHistory, ResetHistory:
		return EngineHistory
	case WipeBookmarks, ResetBookmarks:
		return EngineBookmarks
	default:
		return ""
	}
}

// IsWipe reports whether the command discards local data (as opposed to
// resetting sync metadata only).
func (c Command) IsWipe() bool {
	switch c {
	case WipeLogins, WipeHistory, WipeBookmarks, WipeAll:
		return true
	default:
		return false
	}
}

// wire returns the (name, args) encoding of a canonical command.
func (c Command) wire() (string, []string) {
	switch c {
	case WipeLogins:
		return CommandWipeEngine, []string{EnginePasswords}
	case WipeHistory:
		return CommandWipeEngine, []string{EngineHistory}
	case WipeBookmarks:
		return CommandWipeEngine, []string{EngineBookmarks}
	case WipeAll:
		return CommandWipeAll, []string{}
	case ResetLogins:
		return CommandResetEngine, []string{EnginePasswords}
	case ResetHistory:
		return CommandResetEngine, []string{EngineHistory}
	case ResetBookmarks:
		return CommandResetEngine, []string{EngineBookmarks}
	case ResetAll:
		return CommandResetAll, []string{}
	default:
		panic(fmt.Sprintf("ir: encode of invalid command %d", int(c)))
	}
}

// ClientCommand is the wire form of a command inside a client record.
//
// Name is free text so that commands from newer clients round-trip even
// when they have no canonical Command. Args is always emitted, as an empty
// array when the command takes no arguments.
type ClientCommand struct {
	Name   string   `json:"command"`
	Args   []string `json:"args"`
	FlowID string   `json:"flowID,omitempty"`
}

// NewClientCommand encodes a canonical command without a flow id.
func NewClientCommand(c Command) ClientCommand {
	name, args := c.wire()
	return ClientCommand{Name: name, Args: args}
}

// NewClientCommandWithFlowID encodes a canonical command and attaches a flow id.
func NewClientCommandWithFlowID(c Command, flowID string) ClientCommand {
	cc := NewClientCommand(c)
	cc.FlowID = flowID
	return cc
}

// AsCommand classifies the wire command. The second result is false for
// anything that does not match a known name and first argument; that is
// never an error, the entry is simply carried along untouched.
func (cc ClientCommand) AsCommand() (Command, bool) {
	switch cc.Name {
	case CommandWipeEngine:
		return engineCommand(cc.Args, WipeLogins, WipeHistory, WipeBookmarks)
	case CommandWipeAll:
		return WipeAll, true
	case CommandResetEngine:
		return engineCommand(cc.Args, ResetLogins, ResetHistory, ResetBookmarks)
	case CommandResetAll:
		return ResetAll, true
	default:
		return 0, false
	}
}

func engineCommand(args []string, logins, history, bookmarks Command) (Command, bool) {
	if len(args) == 0 {
		return 0, false
	}
	switch args[0] {
	case EnginePasswords:
		return logins, true
	case EngineHistory:
		return history, true
	case EngineBookmarks:
		return bookmarks, true
	default:
		return 0, false
	}
}

// MarshalJSON emits an empty args array instead of null. Arguments are
// encoded with MarshalWire so URLs keep their '&'.
func (cc ClientCommand) MarshalJSON() ([]byte, error) {
	type wireCommand ClientCommand
	w := wireCommand(cc)
	if w.Args == nil {
		w.Args = []string{}
	}
	return MarshalWire(w)
}

// CommandSet is an insertion-ordered set of canonical commands.
type CommandSet struct {
	order []Command
	seen  map[Command]struct{}
}

// NewCommandSet builds a set from cmds, dropping later duplicates.
func NewCommandSet(cmds ...Command) *CommandSet {
	s := &CommandSet{seen: make(map[Command]struct{}, len(cmds))}
	for _, c := range cmds {
		s.Add(c)
	}
	return s
}

// Add inserts c and reports whether it was new.
func (s *CommandSet) Add(c Command) bool {
	if _, ok := s.seen[c]; ok {
		return false
	}
	s.seen[c] = struct{}{}
	s.order = append(s.order, c)
	return true
}

// Contains reports whether c is in the set.
func (s *CommandSet) Contains(c Command) bool {
	_, ok := s.seen[c]
	return ok
}

// Len returns the number of commands.
func (s *CommandSet) Len() int {
	return len(s.order)
}

// Commands returns the members in insertion order.
func (s *CommandSet) Commands() []Command {
	out := make([]Command, len(s.order))
	copy(out, s.order)
	return out
}

// Difference returns the members of s not in other, in s's order.
func (s *CommandSet) Difference(other *CommandSet) []Command {
	var out []Command
	for _, c := range s.order {
		if other != nil && other.Contains(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}
