package log

// EventType enumerates all observable game events.
type EventType int

const (
	EventTurnStarted EventType = iota
	EventCardPlayed
	EventResourceChanged
	EventChallengeResolved
	EventTradeProposed
	EventTradeExecuted
	EventTradeScam
	EventEffectTheft
	EventInterference
	EventDefense
	EventMovement
	EventCellVisit
	EventDocumentExchange
	EventGoalChosen
	EventCloseToWin
	EventLapCompleted
	EventElimination
	EventWin
	EventGameOver
	EventHandLimitDiscard
	EventReshuffle
	EventContentError
)

// AllEventTypes lists every event type in declaration order.
var AllEventTypes = []EventType{
	EventTurnStarted, EventCardPlayed, EventResourceChanged, EventChallengeResolved,
	EventTradeProposed, EventTradeExecuted, EventTradeScam, EventEffectTheft,
	EventInterference, EventDefense, EventMovement, EventCellVisit,
	EventDocumentExchange, EventGoalChosen, EventCloseToWin, EventLapCompleted,
	EventElimination, EventWin, EventGameOver, EventHandLimitDiscard,
	EventReshuffle, EventContentError,
}

func (e EventType) String() string {
	switch e {
	case EventTurnStarted:
		return "TurnStarted"
	case EventCardPlayed:
		return "CardPlayed"
	case EventResourceChanged:
		return "ResourceChanged"
	case EventChallengeResolved:
		return "ChallengeResolved"
	case EventTradeProposed:
		return "TradeProposed"
	case EventTradeExecuted:
		return "TradeExecuted"
	case EventTradeScam:
		return "TradeScam"
	case EventEffectTheft:
		return "EffectTheft"
	case EventInterference:
		return "Interference"
	case EventDefense:
		return "Defense"
	case EventMovement:
		return "Movement"
	case EventCellVisit:
		return "CellVisit"
	case EventDocumentExchange:
		return "DocumentExchange"
	case EventGoalChosen:
		return "GoalChosen"
	case EventCloseToWin:
		return "CloseToWin"
	case EventLapCompleted:
		return "LapCompleted"
	case EventElimination:
		return "Elimination"
	case EventWin:
		return "Win"
	case EventGameOver:
		return "GameOver"
	case EventHandLimitDiscard:
		return "HandLimitDiscard"
	case EventReshuffle:
		return "Reshuffle"
	case EventContentError:
		return "ContentError"
	default:
		return "Unknown"
	}
}

// GameEvent represents a single observable event in a game.
type GameEvent struct {
	Seq      int       // monotonic sequence number
	Turn     int       // which round (1-based)
	Phase    string    // current phase name (e.g. "Movement")
	Player   int       // acting seat, -1 for table-wide events
	Type     EventType // event type
	Card     string    // card name (if applicable)
	Resource string    // resource name for ResourceChanged
	Delta    int       // applied change for ResourceChanged
	Target   int       // other seat involved (trade partner, interferer, theft victim), -1 if none
	Details  string    // human-readable detail string
}
