package game

import "fmt"

const (
	MinNerves        = 1
	MaxNerves        = 10
	MinLanguageLevel = 1
	MaxLanguageLevel = 3
	MaxDocumentLevel = 7

	// SignificantMoneyGain is the default money gain above which a gain is announced.
	SignificantMoneyGain = 2
	// MaxExchangeCost caps the document cards needed for one exchange.
	MaxExchangeCost = 6
	// DefaultMoneyLimitBase is used as the cap base when no goal names a money amount.
	DefaultMoneyLimitBase = 35
)

// Config holds the rules of one game. It is loaded from YAML and never mutated
// by the engine.
type Config struct {
	Seed                  int64            `yaml:"seed"`
	Players               int              `yaml:"players"`
	Profiles              []string         `yaml:"profiles"`
	BoardSize             int              `yaml:"board_size"`
	CellFrequencies       map[CellType]int `yaml:"cell_frequencies"`
	EliminationThreshold  int              `yaml:"elimination_threshold"`
	MaxActionCards        int              `yaml:"max_action_cards"`
	MaxPersonalItems      int              `yaml:"max_personal_items"`
	StartingPersonalItems int              `yaml:"starting_personal_items"`
	StartingDocumentCards int              `yaml:"starting_document_cards"`
	TurnsPerPlayer        int              `yaml:"turns_per_player"`
	TimeLimitMode         TimeLimitMode    `yaml:"time_limit_mode"`
	LapMode               LapMode          `yaml:"lap_mode"`
	LapTurns              int              `yaml:"lap_turns"`
	GoalSelectionLevel    int              `yaml:"goal_selection_level"`
	DocumentLevelPrice    int              `yaml:"document_level_price"`
	ExchangeDifficulty    int              `yaml:"exchange_difficulty"`
	LapDocumentStipend    int              `yaml:"lap_document_stipend"`
	MoneyLimitMultiplier  int              `yaml:"money_limit_multiplier"`
	SignificantMoneyGain  int              `yaml:"significant_money_gain"`
	HousingCosts          map[Housing]int  `yaml:"housing_costs"`
	Strict                bool             `yaml:"strict"`
	AI                    Tuning           `yaml:"ai"`
}

// DefaultConfig returns the standard rules.
func DefaultConfig() Config {
	return Config{
		Players:               4,
		BoardSize:             40,
		EliminationThreshold:  1,
		MaxActionCards:        5,
		MaxPersonalItems:      7,
		StartingPersonalItems: 5,
		StartingDocumentCards: 1,
		TurnsPerPlayer:        15,
		TimeLimitMode:         TimeLimitNoWinner,
		LapMode:               LapWraparound,
		LapTurns:              5,
		GoalSelectionLevel:    5,
		DocumentLevelPrice:    3,
		ExchangeDifficulty:    3,
		LapDocumentStipend:    1,
		SignificantMoneyGain:  SignificantMoneyGain,
		AI:                    DefaultTuning(),
	}
}

// withDefaults fills maps and values whose zero value is never valid.
func (c *Config) withDefaults() {
	def := DefaultConfig()
	if c.BoardSize <= 0 {
		c.BoardSize = def.BoardSize
	}
	if c.CellFrequencies == nil {
		c.CellFrequencies = map[CellType]int{CellGreen: 16, CellRed: 12, CellWhite: 12}
	}
	if c.HousingCosts == nil {
		c.HousingCosts = map[Housing]int{HousingRoom: 1, HousingApartment: 3, HousingMortgage: 5}
	}
	if c.TurnsPerPlayer <= 0 {
		c.TurnsPerPlayer = def.TurnsPerPlayer
	}
	if c.TimeLimitMode == "" {
		c.TimeLimitMode = def.TimeLimitMode
	}
	if c.LapMode == "" {
		c.LapMode = def.LapMode
	}
	if c.LapTurns <= 0 {
		c.LapTurns = def.LapTurns
	}
	if c.GoalSelectionLevel <= 0 {
		c.GoalSelectionLevel = def.GoalSelectionLevel
	}
	if c.SignificantMoneyGain <= 0 {
		c.SignificantMoneyGain = def.SignificantMoneyGain
	}
	if c.AI == (Tuning{}) {
		c.AI = DefaultTuning()
	}
}

// Validate checks the rules for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Players < 1 {
		return fmt.Errorf("players must be at least 1, got %d", c.Players)
	}
	if c.MaxActionCards < 0 || c.MaxPersonalItems < 0 {
		return fmt.Errorf("hand limits must not be negative")
	}
	switch c.TimeLimitMode {
	case TimeLimitNoWinner, TimeLimitProgress:
	default:
		return fmt.Errorf("unknown time limit mode %q", c.TimeLimitMode)
	}
	switch c.LapMode {
	case LapWraparound, LapTurns:
	default:
		return fmt.Errorf("unknown lap mode %q", c.LapMode)
	}
	for cell, n := range c.CellFrequencies {
		if n < 0 {
			return fmt.Errorf("cell frequency for %s is negative", cell)
		}
	}
	return nil
}

// MaxRounds is the turn ceiling, proportional to the player count.
func (c *Config) MaxRounds(players int) int {
	return players * c.TurnsPerPlayer
}

// HousingCost returns the lap cost of the housing type.
func (c *Config) HousingCost(h Housing) int {
	return c.HousingCosts[h]
}
