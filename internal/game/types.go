package game

// --- Enums ---

// CellType is the board tag that decides which deck is drawn on landing.
type CellType string

const (
	CellGreen CellType = "green"
	CellRed   CellType = "red"
	CellWhite CellType = "white"
)

// DeckName identifies one of the content decks.
type DeckName string

const (
	DeckAction        DeckName = "action"
	DeckGreen         DeckName = "green"
	DeckRed           DeckName = "red"
	DeckWhite         DeckName = "white"
	DeckPersonalItems DeckName = "personal_items"
)

// AllDecks lists every deck in a fixed order.
var AllDecks = []DeckName{DeckAction, DeckGreen, DeckRed, DeckWhite, DeckPersonalItems}

// DeckForCell returns the deck drawn when landing on the given cell.
func DeckForCell(c CellType) DeckName {
	switch c {
	case CellGreen:
		return DeckGreen
	case CellRed:
		return DeckRed
	default:
		return DeckWhite
	}
}

type Housing string

const (
	HousingNone      Housing = ""
	HousingRoom      Housing = "room"
	HousingApartment Housing = "apartment"
	HousingMortgage  Housing = "mortgage"
)

// Level returns the integer housing level (room 1, apartment 2, mortgage 3).
func (h Housing) Level() int {
	switch h {
	case HousingRoom:
		return 1
	case HousingApartment:
		return 2
	case HousingMortgage:
		return 3
	default:
		return 0
	}
}

// HousingForLevel maps a housing level back to its type, clamping to [1,3].
func HousingForLevel(level int) Housing {
	switch {
	case level <= 1:
		return HousingRoom
	case level == 2:
		return HousingApartment
	default:
		return HousingMortgage
	}
}

// ActionType tags an action routed through the interactive event protocol.
type ActionType string

const (
	ActionMovement         ActionType = "movement"
	ActionDocumentExchange ActionType = "document_exchange"
	ActionMoneyGain        ActionType = "money_gain"
	ActionDocumentLevelUp  ActionType = "document_level_up"
	ActionPositiveEffect   ActionType = "any_positive_effect"
	ActionChallengeEvent   ActionType = "challenge_event"
	ActionPreTurn          ActionType = "pre_turn_action"
	ActionCloseToWin       ActionType = "close_to_win"
	ActionResourceGain     ActionType = "resource_gain"

	// Announced for visibility only; nobody may react to them.
	ActionMoneyPercentChange ActionType = "money_percent_change"
	ActionMoneyDivide        ActionType = "money_divide"
)

// Interferable reports whether other players may react to this action.
func (a ActionType) Interferable() bool {
	switch a {
	case ActionMovement, ActionDocumentExchange, ActionMoneyGain, ActionDocumentLevelUp,
		ActionPositiveEffect, ActionChallengeEvent, ActionPreTurn, ActionCloseToWin,
		ActionResourceGain:
		return true
	default:
		return false
	}
}

// Resource names a player scalar that goals, trades and conditions refer to.
type Resource string

const (
	ResourceMoney         Resource = "money"
	ResourceNerves        Resource = "nerves"
	ResourceLanguageLevel Resource = "language_level"
	ResourceDocumentLevel Resource = "document_level"
	ResourceDocumentCards Resource = "document_cards"
	ResourceHousingLevel  Resource = "housing_level"
	ResourceHousingType   Resource = "housing_type"
)

func (r Resource) valid() bool {
	switch r {
	case ResourceMoney, ResourceNerves, ResourceLanguageLevel, ResourceDocumentLevel,
		ResourceDocumentCards, ResourceHousingLevel, ResourceHousingType:
		return true
	}
	return false
}

// Tradeable reports whether the resource can change hands in a trade.
func (r Resource) Tradeable() bool {
	return r == ResourceMoney || r == ResourceDocumentCards || r == ResourceNerves
}

type GameStatus int

const (
	StatusSetup GameStatus = iota
	StatusPlaying
	StatusEnded
)

func (s GameStatus) String() string {
	switch s {
	case StatusSetup:
		return "setup"
	case StatusPlaying:
		return "playing"
	case StatusEnded:
		return "ended"
	default:
		return "unknown"
	}
}

type EndReason int

const (
	EndNone EndReason = iota
	EndWin
	EndElimination
	EndTimeLimit
	EndAborted
)

func (r EndReason) String() string {
	switch r {
	case EndWin:
		return "win"
	case EndElimination:
		return "elimination"
	case EndTimeLimit:
		return "time_limit"
	case EndAborted:
		return "aborted"
	default:
		return "none"
	}
}

// ParseEndReason is the inverse of EndReason.String. Unknown names map to EndNone.
func ParseEndReason(s string) EndReason {
	for _, r := range []EndReason{EndWin, EndElimination, EndTimeLimit, EndAborted} {
		if r.String() == s {
			return r
		}
	}
	return EndNone
}

// CellAction is a player's choice on a green cell.
type CellAction int

const (
	CellDrawGreen CellAction = iota
	CellBuyDocumentLevel
	CellTakePersonalItem
)

func (a CellAction) String() string {
	switch a {
	case CellBuyDocumentLevel:
		return "buy_document_level"
	case CellTakePersonalItem:
		return "draw_personal_item"
	default:
		return "draw_green"
	}
}

// GreenUse is how a drawn exchangeable green card is spent.
type GreenUse int

const (
	GreenUseEvent GreenUse = iota
	GreenUseExchange
)

func (u GreenUse) String() string {
	if u == GreenUseExchange {
		return "exchange"
	}
	return "event"
}

// HandKind tells which of a player's two hands a card sits in.
type HandKind int

const (
	HandAction HandKind = iota
	HandPersonal
)

func (h HandKind) String() string {
	if h == HandPersonal {
		return "personal item"
	}
	return "action card"
}

// TimeLimitMode decides the outcome when the turn ceiling is reached.
type TimeLimitMode string

const (
	TimeLimitNoWinner TimeLimitMode = "no_winner"
	TimeLimitProgress TimeLimitMode = "progress"
)

// LapMode decides how end-of-lap income is triggered.
type LapMode string

const (
	LapWraparound LapMode = "wraparound"
	LapTurns      LapMode = "turns"
)

// Well-known special abilities and card types.
const (
	AbilityDocumentsFastTrack    = "documents_fast_track"
	AbilitySkipDocumentQueue     = "skip_document_queue"
	AbilityLanguageDiceAdvantage = "language_dice_advantage"
	AbilityRerollLanguageDice    = "reroll_language_dice"
	AbilityPermanentLanguage     = "permanent_language_bonus"
	AbilityStressImmunity        = "stress_immunity"
	AbilityImmunityNextHousing   = "immunity_next_housing"

	CardTypeInterference = "interference"
	CardTypeCounter      = "counter"
	CardTypeUtility      = "utility"

	BonusMovement = "movement"
	BonusLanguage = "language"
	BonusWork     = "work"
)
