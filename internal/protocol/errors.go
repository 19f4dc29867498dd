package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Campaign state.
	ErrBadRequest      = "E_BAD_REQUEST"
	ErrNoMoney         = "E_NO_MONEY"
	ErrNotConnected    = "E_NOT_CONNECTED"
	ErrNoTransition    = "E_NO_TRANSITION"
	ErrTransitionBusy  = "E_TRANSITION_BUSY"
	ErrUnknownLocation = "E_UNKNOWN_LOCATION"
	ErrUnknownMission  = "E_UNKNOWN_MISSION"
	ErrTooManyMissions = "E_TOO_MANY_MISSIONS"
	ErrInternal        = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRequest:      {},
	ErrNoMoney:         {},
	ErrNotConnected:    {},
	ErrNoTransition:    {},
	ErrTransitionBusy:  {},
	ErrUnknownLocation: {},
	ErrUnknownMission:  {},
	ErrTooManyMissions: {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
