package messaging

import "strings"

// CommandKind enumerates the closed inbound vocabulary. Text tokens are
// resolved to a Command exactly once at the messaging boundary; the rest
// of the engine only ever sees the typed form.
type CommandKind string

const (
	CmdAccept  CommandKind = "accept"   // YES
	CmdDecline CommandKind = "decline"  // NO
	CmdOnline  CommandKind = "online"   // ON
	CmdOffline CommandKind = "offline"  // OFF
	CmdEnRoute CommandKind = "en_route" // OTWAY
	CmdArrived CommandKind = "arrived"  // ARRIVED
	CmdDone    CommandKind = "done"     // DONE
	CmdCancel  CommandKind = "cancel"   // CANCEL
	CmdBalance CommandKind = "balance"  // BALANCE
	CmdScore   CommandKind = "score"    // SCORE
	CmdAdvance CommandKind = "advance"  // ADVANCE <amount>
	CmdHelp    CommandKind = "help"     // HELP
)

// Command is one normalized inbound groomer action. Arg carries the raw
// remainder of the message for commands that take one (ADVANCE).
type Command struct {
	Kind CommandKind
	Arg  string
}

var tokenKinds = map[string]CommandKind{
	"YES":     CmdAccept,
	"NO":      CmdDecline,
	"ON":      CmdOnline,
	"OFF":     CmdOffline,
	"OTWAY":   CmdEnRoute,
	"ARRIVED": CmdArrived,
	"DONE":    CmdDone,
	"CANCEL":  CmdCancel,
	"BALANCE": CmdBalance,
	"SCORE":   CmdScore,
	"ADVANCE": CmdAdvance,
	"HELP":    CmdHelp,
}

// ParseCommand matches an inbound text against the command vocabulary,
// case-insensitively. Unrecognized tokens return ok=false and are
// silently ignored upstream; that is not an error.
func ParseCommand(text string) (Command, bool) {
	fields := strings.Fields(strings.ToUpper(strings.TrimSpace(text)))
	if len(fields) == 0 {
		return Command{}, false
	}

	kind, ok := tokenKinds[fields[0]]
	if !ok {
		return Command{}, false
	}

	cmd := Command{Kind: kind}
	if len(fields) > 1 {
		cmd.Arg = strings.Join(fields[1:], " ")
	}
	return cmd, true
}
