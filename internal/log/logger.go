package log

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// EventLogger is the interface for logging game events.
type EventLogger interface {
	Log(event GameEvent)
	Events() []GameEvent
}

// --- MemoryLogger: stores events in memory for test assertions ---

type MemoryLogger struct {
	events []GameEvent
	seq    int
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

func (l *MemoryLogger) Log(event GameEvent) {
	l.seq++
	event.Seq = l.seq
	l.events = append(l.events, event)
}

func (l *MemoryLogger) Events() []GameEvent {
	return l.events
}

// EventsOfType returns all events matching the given type.
func (l *MemoryLogger) EventsOfType(t EventType) []GameEvent {
	var result []GameEvent
	for _, e := range l.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// LastEvent returns the most recent event, or a zero event if none.
func (l *MemoryLogger) LastEvent() GameEvent {
	if len(l.events) == 0 {
		return GameEvent{}
	}
	return l.events[len(l.events)-1]
}

// --- TextLogger: writes human-readable lines to an io.Writer ---

type TextLogger struct {
	MemoryLogger
	w io.Writer
}

func NewTextLogger(w io.Writer) *TextLogger {
	return &TextLogger{w: w}
}

func (l *TextLogger) Log(event GameEvent) {
	l.MemoryLogger.Log(event)
	fmt.Fprintln(l.w, FormatEvent(event))
}

// --- CountingLogger: keeps per-type counts only, for batch runs ---

// CountingLogger discards events but remembers how many of each type were seen.
type CountingLogger struct {
	counts map[EventType]int
}

func NewCountingLogger() *CountingLogger {
	return &CountingLogger{counts: make(map[EventType]int)}
}

func (l *CountingLogger) Log(event GameEvent) {
	l.counts[event.Type]++
}

// Events always returns nil; counting loggers keep no history.
func (l *CountingLogger) Events() []GameEvent {
	return nil
}

// Counts returns event counts keyed by event type name.
func (l *CountingLogger) Counts() map[string]int {
	out := make(map[string]int, len(l.counts))
	for t, n := range l.counts {
		out[t.String()] = n
	}
	return out
}

// --- FuncLogger: forwards each event to a callback ---

// FuncLogger numbers events and hands each one to fn. It is safe for use by
// one producer while another goroutine reads Events.
type FuncLogger struct {
	mu     sync.Mutex
	fn     func(GameEvent)
	events []GameEvent
	seq    int
}

func NewFuncLogger(fn func(GameEvent)) *FuncLogger {
	return &FuncLogger{fn: fn}
}

func (l *FuncLogger) Log(event GameEvent) {
	l.mu.Lock()
	l.seq++
	event.Seq = l.seq
	l.events = append(l.events, event)
	l.mu.Unlock()
	if l.fn != nil {
		l.fn(event)
	}
}

func (l *FuncLogger) Events() []GameEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]GameEvent, len(l.events))
	copy(out, l.events)
	return out
}

// --- Formatting ---

// playerName returns "P1", "P2", ... for display.
func playerName(p int) string {
	if p < 0 {
		return "Table"
	}
	return fmt.Sprintf("P%d", p+1)
}

// FormatEvent formats a single event as a human-readable line.
func FormatEvent(e GameEvent) string {
	phase := e.Phase
	if phase == "" {
		phase = "          "
	}
	// Pad phase to 12 chars for alignment
	for len(phase) < 12 {
		phase += " "
	}

	return fmt.Sprintf("T%-3d %s| %s", e.Turn, phase, e.Details)
}

// FormatAll formats all events as a multi-line string.
func FormatAll(events []GameEvent) string {
	var sb strings.Builder
	for _, e := range events {
		sb.WriteString(FormatEvent(e))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// --- Helper constructors for common events ---

func NewTurnStartedEvent(turn int, player int, name string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   "Pre-turn",
		Player:  player,
		Type:    EventTurnStarted,
		Target:  -1,
		Details: fmt.Sprintf("=== Turn %d (%s, %s) ===", turn, playerName(player), name),
	}
}

func NewCardPlayedEvent(turn int, phase string, player int, cardName string, reason string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  player,
		Type:    EventCardPlayed,
		Card:    cardName,
		Target:  -1,
		Details: fmt.Sprintf("%s plays %s (%s)", playerName(player), cardName, reason),
	}
}

func NewResourceChangedEvent(turn int, phase string, player int, resource string, oldValue, newValue int, reason string) GameEvent {
	return GameEvent{
		Turn:     turn,
		Phase:    phase,
		Player:   player,
		Type:     EventResourceChanged,
		Resource: resource,
		Delta:    newValue - oldValue,
		Target:   -1,
		Details:  fmt.Sprintf("%s %s: %d → %d (%s)", playerName(player), resource, oldValue, newValue, reason),
	}
}

func NewChallengeResolvedEvent(turn int, phase string, player int, cardName string, roll int, outcome string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  player,
		Type:    EventChallengeResolved,
		Card:    cardName,
		Delta:   roll,
		Target:  -1,
		Details: fmt.Sprintf("%s rolls %d on %s → %s", playerName(player), roll, cardName, outcome),
	}
}

func NewTradeProposedEvent(turn int, player int, summary string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   "Trade",
		Player:  player,
		Type:    EventTradeProposed,
		Target:  -1,
		Details: fmt.Sprintf("%s offers a trade: %s", playerName(player), summary),
	}
}

func NewTradeExecutedEvent(turn int, offerer, acceptor int, summary string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   "Trade",
		Player:  offerer,
		Type:    EventTradeExecuted,
		Target:  acceptor,
		Details: fmt.Sprintf("%s trades with %s: %s", playerName(offerer), playerName(acceptor), summary),
	}
}

func NewTradeScamEvent(turn int, offerer, acceptor int, summary string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   "Trade",
		Player:  offerer,
		Type:    EventTradeScam,
		Target:  acceptor,
		Details: fmt.Sprintf("%s scams %s: %s", playerName(offerer), playerName(acceptor), summary),
	}
}

func NewEffectTheftEvent(turn int, phase string, thief, victim int, effect string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  thief,
		Type:    EventEffectTheft,
		Target:  victim,
		Details: fmt.Sprintf("%s steals %s from %s", playerName(thief), effect, playerName(victim)),
	}
}

func NewInterferenceEvent(turn int, phase string, interferer, actor int, cardName string, action string, blocked bool) GameEvent {
	outcome := "weakens"
	if blocked {
		outcome = "blocks"
	}
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  interferer,
		Type:    EventInterference,
		Card:    cardName,
		Target:  actor,
		Details: fmt.Sprintf("%s %s %s's %s with %s", playerName(interferer), outcome, playerName(actor), action, cardName),
	}
}

func NewDefenseEvent(turn int, phase string, actor, interferer int, cardName string, reflected bool) GameEvent {
	verb := "cancels"
	if reflected {
		verb = "reflects"
	}
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  actor,
		Type:    EventDefense,
		Card:    cardName,
		Target:  interferer,
		Details: fmt.Sprintf("%s %s %s's interference with %s", playerName(actor), verb, playerName(interferer), cardName),
	}
}

func NewMovementEvent(turn int, player int, from, to, steps int) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   "Movement",
		Player:  player,
		Type:    EventMovement,
		Delta:   steps,
		Target:  -1,
		Details: fmt.Sprintf("%s moves %d: %d → %d", playerName(player), steps, from, to),
	}
}

func NewCellVisitEvent(turn int, player int, position int, cell string, details string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   "Cell",
		Player:  player,
		Type:    EventCellVisit,
		Target:  -1,
		Details: fmt.Sprintf("%s lands on %s cell %d: %s", playerName(player), cell, position, details),
	}
}

func NewDocumentExchangeEvent(turn int, player int, cost int, level int, success bool) GameEvent {
	outcome := "fails"
	if success {
		outcome = fmt.Sprintf("reaches document level %d", level)
	}
	return GameEvent{
		Turn:    turn,
		Phase:   "Cell",
		Player:  player,
		Type:    EventDocumentExchange,
		Delta:   cost,
		Target:  -1,
		Details: fmt.Sprintf("%s exchanges %d document cards and %s", playerName(player), cost, outcome),
	}
}

func NewGoalChosenEvent(turn int, player int, goal string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   "Goal",
		Player:  player,
		Type:    EventGoalChosen,
		Target:  -1,
		Details: fmt.Sprintf("%s chooses goal %s", playerName(player), goal),
	}
}

func NewCloseToWinEvent(turn int, player int, progress float64) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   "Goal",
		Player:  player,
		Type:    EventCloseToWin,
		Target:  -1,
		Details: fmt.Sprintf("%s is close to winning (%.0f%%)", playerName(player), progress*100),
	}
}

func NewLapCompletedEvent(turn int, player int, lap int, salary, housing int) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   "Lap",
		Player:  player,
		Type:    EventLapCompleted,
		Delta:   salary - housing,
		Target:  -1,
		Details: fmt.Sprintf("%s completes lap %d (salary %d, housing %d)", playerName(player), lap, salary, housing),
	}
}

func NewEliminationEvent(turn int, player int, reason string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   "Elimination",
		Player:  player,
		Type:    EventElimination,
		Target:  -1,
		Details: fmt.Sprintf("%s is eliminated (%s)", playerName(player), reason),
	}
}

func NewWinEvent(turn int, winner int, goal string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   "Goal",
		Player:  winner,
		Type:    EventWin,
		Target:  -1,
		Details: fmt.Sprintf("%s wins! (%s)", playerName(winner), goal),
	}
}

func NewGameOverEvent(turn int, winner int, reason string) GameEvent {
	details := fmt.Sprintf("Game over after %d turns (%s), no winner", turn, reason)
	if winner >= 0 {
		details = fmt.Sprintf("Game over after %d turns (%s), winner %s", turn, reason, playerName(winner))
	}
	return GameEvent{
		Turn:    turn,
		Phase:   "End",
		Player:  winner,
		Type:    EventGameOver,
		Target:  -1,
		Details: details,
	}
}

func NewHandLimitDiscardEvent(turn int, player int, cardName string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   "End",
		Player:  player,
		Type:    EventHandLimitDiscard,
		Card:    cardName,
		Target:  -1,
		Details: fmt.Sprintf("%s discards %s (hand limit)", playerName(player), cardName),
	}
}

func NewReshuffleEvent(turn int, deck string, cards int) GameEvent {
	return GameEvent{
		Turn:    turn,
		Player:  -1,
		Type:    EventReshuffle,
		Delta:   cards,
		Target:  -1,
		Details: fmt.Sprintf("%s deck reshuffled from %d discarded cards", deck, cards),
	}
}

func NewContentErrorEvent(turn int, phase string, player int, cardName string, problem string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  player,
		Type:    EventContentError,
		Card:    cardName,
		Target:  -1,
		Details: fmt.Sprintf("content error in %s: %s", cardName, problem),
	}
}
