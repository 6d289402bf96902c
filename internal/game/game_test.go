package game

import (
	"context"
	"errors"
	"testing"

	"github.com/peterkuimelis/paperchase/internal/log"
)

func citizenship() *Goal {
	return &Goal{Key: "citizenship", Name: "Citizenship", Requires: []Requirement{
		{Resource: ResourceMoney, Min: 20},
		{Resource: ResourceDocumentLevel, Min: 3},
	}}
}

func TestCheckWin(t *testing.T) {
	p := NewPlayer(0, testProfile("student"), &Config{})
	p.Money, p.DocumentLevel = 20, 3

	if CheckWin(p) {
		t.Error("a player without a goal cannot win")
	}
	p.Goal = citizenship()
	if !CheckWin(p) {
		t.Error("money 20 and document level 3 should win")
	}
	p.Money = 19
	if CheckWin(p) {
		t.Error("money 19 should not win")
	}
}

func TestCheckWinHousingIsCategorical(t *testing.T) {
	p := NewPlayer(0, testProfile("student"), &Config{})
	p.Goal = &Goal{Key: "home", Requires: []Requirement{{Resource: ResourceHousingType, Housing: HousingApartment}}}

	p.Housing, p.HousingLevel = HousingMortgage, 3
	if CheckWin(p) {
		t.Error("mortgage does not satisfy an apartment goal")
	}
	p.Housing, p.HousingLevel = HousingApartment, 2
	if !CheckWin(p) {
		t.Error("apartment should satisfy an apartment goal")
	}
}

func TestWinProgress(t *testing.T) {
	p := NewPlayer(0, testProfile("student"), &Config{})
	p.Goal = citizenship()
	p.Money, p.DocumentLevel = 10, 3

	if got := WinProgress(p); got != 0.75 {
		t.Errorf("progress = %v, want 0.75", got)
	}
	if n := len(UnmetRequirements(p)); n != 1 {
		t.Errorf("unmet = %d, want 1", n)
	}
}

func TestGameEndsWhenOnePlayerIsLeft(t *testing.T) {
	g, _, logger := newTestGame(t, testConfig(2), testContent())
	g.State.Players[1].Nerves = 1

	res := runToCompletion(t, g, logger)
	if res.EndReason != EndElimination || res.Winner != 0 {
		t.Errorf("result = %+v, want P1 winning by elimination", res)
	}
	if res.Turns != 1 {
		t.Errorf("turns = %d, want 1", res.Turns)
	}
	if n := len(logger.EventsOfType(log.EventElimination)); n != 1 {
		t.Errorf("got %d eliminations", n)
	}
}

func TestTimeLimitProgressMode(t *testing.T) {
	cfg := testConfig(2)
	cfg.TurnsPerPlayer = 1
	cfg.TimeLimitMode = TimeLimitProgress
	g, _, logger := newTestGame(t, cfg, testContent())
	leader := g.State.Players[1]
	leader.Goal = citizenship()
	leader.Money = 15

	res := runToCompletion(t, g, logger)
	if res.EndReason != EndTimeLimit {
		t.Fatalf("end reason = %s, want time_limit", res.EndReason)
	}
	if res.Winner != 1 {
		t.Errorf("winner = %d, want the only player with progress", res.Winner)
	}
	if res.Turns != 2 {
		t.Errorf("turns = %d, want players x turns per player", res.Turns)
	}
}

func TestTimeLimitNoWinner(t *testing.T) {
	cfg := testConfig(2)
	cfg.TurnsPerPlayer = 1
	g, _, logger := newTestGame(t, cfg, testContent())
	g.State.Players[1].Goal = citizenship()
	g.State.Players[1].Money = 15

	res := runToCompletion(t, g, logger)
	if res.EndReason != EndTimeLimit || res.Winner != -1 {
		t.Errorf("result = %+v, want time limit with no winner", res)
	}
}

func TestProgressTieGoesToLowerSeat(t *testing.T) {
	cfg := testConfig(3)
	cfg.TimeLimitMode = TimeLimitProgress
	g, _, _ := newTestGame(t, cfg, testContent())
	for _, seat := range []int{1, 2} {
		p := g.State.Players[seat]
		p.Goal = citizenship()
		p.Money = 10
	}

	g.endTimeLimit()
	if g.State.Winner != 1 {
		t.Errorf("winner = %d, want the lower seat", g.State.Winner)
	}
}

func TestGoalSelectionAndWin(t *testing.T) {
	g, _, logger := newTestGame(t, testConfig(2), testContent())
	p := g.State.Players[0]
	p.DocumentLevel = g.State.Config.GoalSelectionLevel
	p.Money = 25

	g.checkGoalSelection(p)
	if !p.GoalChosen || p.Goal == nil {
		t.Fatal("goal should be assigned at the threshold")
	}
	if n := len(logger.EventsOfType(log.EventGoalChosen)); n != 1 {
		t.Errorf("got %d goal events", n)
	}
	if !g.checkWin(p) {
		t.Fatal("player meets the only goal and should win")
	}
	if g.State.EndReason != EndWin || g.State.Winner != 0 {
		t.Errorf("state = %s winner %d", g.State.EndReason, g.State.Winner)
	}
}

func TestAIGameIsReproducible(t *testing.T) {
	run := func() (Result, string) {
		cfg := testConfig(3)
		cfg.TurnsPerPlayer = 4
		logger := log.NewMemoryLogger()
		g, err := NewGame(GameConfig{Config: cfg, Content: testContent(), Logger: logger})
		if err != nil {
			t.Fatalf("NewGame: %v", err)
		}
		res, err := g.Run(context.Background())
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return res, log.FormatAll(logger.Events())
	}

	res1, log1 := run()
	res2, log2 := run()
	if res1 != res2 {
		t.Errorf("results differ: %+v vs %+v", res1, res2)
	}
	if log1 != log2 {
		t.Error("event logs differ for the same seed")
	}
	if res1.Turns > 3*4 {
		t.Errorf("turns = %d, over the ceiling", res1.Turns)
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	g, _, _ := newTestGame(t, testConfig(2), testContent())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := g.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if res.EndReason != EndAborted {
		t.Errorf("end reason = %s, want aborted", res.EndReason)
	}
}

func TestInvariantViolation(t *testing.T) {
	g, _, _ := newTestGame(t, testConfig(2), testContent())
	g.State.Players[0].DocumentLevel = MaxDocumentLevel + 2

	err := g.checkInvariants()
	if !IsInvariant(err) {
		t.Fatalf("err = %v, want an invariant error", err)
	}
	var ie *InvariantError
	if !errors.As(err, &ie) || ie.Player != 0 {
		t.Errorf("err = %#v", err)
	}

	g.State.Config.Strict = true
	defer func() {
		if recover() == nil {
			t.Error("strict mode should panic")
		}
	}()
	g.checkInvariants()
}

func TestHandLimitDiscard(t *testing.T) {
	cfg := testConfig(2)
	cfg.MaxActionCards = 2
	g, ctrls, logger := newTestGame(t, cfg, testContent())
	p := g.State.Players[0]
	for _, name := range []string{"A", "B", "C", "D"} {
		give(p, actionCard(t, name, Cost{}, map[string]any{"money": 1}))
	}
	ctrls[0].AddDiscard("C")

	if err := g.enforceHandLimits(); err != nil {
		t.Fatalf("enforceHandLimits: %v", err)
	}
	if len(p.ActionCards) != 2 {
		t.Fatalf("hand = %d, want 2", len(p.ActionCards))
	}
	if findCard(p.ActionCards, "C") != nil {
		t.Error("scripted discard C should be gone")
	}
	if n := len(logger.EventsOfType(log.EventHandLimitDiscard)); n != 2 {
		t.Errorf("got %d discard events, want 2", n)
	}
	if g.State.Deck(DeckAction).DiscardLen() != 2 {
		t.Error("discarded cards go to the action discard pile")
	}
}

func TestPreTurnPlaysCard(t *testing.T) {
	g, ctrls, logger := newTestGame(t, testConfig(2), testContent())
	p := g.State.Players[0]
	coffee := actionCard(t, "Coffee", Cost{Money: 1}, map[string]any{"nerves": 2})
	give(p, coffee)
	ctrls[0].AddPreTurn("Coffee")

	if err := g.preTurnPhase(p); err != nil {
		t.Fatalf("preTurnPhase: %v", err)
	}
	if p.Nerves != 9 || p.Money != 9 {
		t.Errorf("player = %d nerves, %d money; want 9/9", p.Nerves, p.Money)
	}
	played := logger.EventsOfType(log.EventCardPlayed)
	if len(played) != 1 || played[0].Card != "Coffee" {
		t.Errorf("played = %v", played)
	}
	if g.State.Deck(DeckAction).DiscardLen() != 1 {
		t.Error("played card goes to the discard")
	}
}

func TestPreTurnRefusesReactiveAndUnaffordable(t *testing.T) {
	g, ctrls, logger := newTestGame(t, testConfig(2), testContent())
	p := g.State.Players[0]
	give(p, interferenceCard(t, "Red Tape", "any", Cost{}, map[string]any{"block_action": true}))
	give(p, actionCard(t, "Vacation", Cost{Money: 30}, map[string]any{"nerves": 3}))
	ctrls[0].AddPreTurn("Red Tape").AddPreTurn("Vacation")

	for i := 0; i < 2; i++ {
		if err := g.preTurnPhase(p); err != nil {
			t.Fatalf("preTurnPhase: %v", err)
		}
	}
	if len(p.ActionCards) != 2 {
		t.Error("neither card may be played")
	}
	if n := len(logger.EventsOfType(log.EventCardPlayed)); n != 0 {
		t.Errorf("got %d played cards", n)
	}
}

func TestPersonalItemProfileModifier(t *testing.T) {
	g, ctrls, _ := newTestGame(t, testConfig(2), testContent())
	p := g.State.Players[0]
	books := &Card{
		Name:             "Textbooks",
		Deck:             DeckPersonalItems,
		Effects:          mustEffects(t, map[string]any{"language_bonus": 1}),
		ProfileModifiers: map[string]Effects{"student": mustEffects(t, map[string]any{"nerves": 1})},
	}
	p.PersonalItems = append(p.PersonalItems, books)
	ctrls[0].AddPreTurn("Textbooks")

	if err := g.preTurnPhase(p); err != nil {
		t.Fatalf("preTurnPhase: %v", err)
	}
	if p.TemporaryBonuses[BonusLanguage] != 1 || p.Nerves != 8 {
		t.Errorf("bonus = %d nerves = %d, want 1 and 8", p.TemporaryBonuses[BonusLanguage], p.Nerves)
	}
	if g.State.Deck(DeckPersonalItems).DiscardLen() != 1 {
		t.Error("personal item goes to its own discard")
	}
}

func TestMoveCompletesLap(t *testing.T) {
	g, _, logger := newTestGame(t, testConfig(2), testContent())
	p := g.State.Players[0]
	p.Position = g.State.Board.Size() - 2

	g.move(p, 4)
	if p.Position != 2 || p.Laps != 1 {
		t.Errorf("position %d laps %d, want 2 and 1", p.Position, p.Laps)
	}
	// Room costs 1, salary 3, stipend 1.
	if p.Money != 12 || p.DocumentCards != 1 {
		t.Errorf("money %d cards %d, want 12 and 1", p.Money, p.DocumentCards)
	}
	if n := len(logger.EventsOfType(log.EventLapCompleted)); n != 1 {
		t.Errorf("got %d lap events", n)
	}
}

func TestTurnLapMode(t *testing.T) {
	cfg := testConfig(2)
	cfg.LapMode = LapTurns
	cfg.LapTurns = 2
	g, _, logger := newTestGame(t, cfg, testContent())
	p := g.State.Players[0]

	g.State.Turn = 1
	if err := g.movementPhase(p); err != nil {
		t.Fatalf("movementPhase: %v", err)
	}
	g.State.Turn = 2
	if err := g.movementPhase(p); err != nil {
		t.Fatalf("movementPhase: %v", err)
	}
	if n := len(logger.EventsOfType(log.EventLapCompleted)); n != 1 {
		t.Errorf("got %d laps, want 1 on the even turn", n)
	}
}

func TestHousingImmunityIsConsumed(t *testing.T) {
	g, _, _ := newTestGame(t, testConfig(2), testContent())
	p := g.State.Players[0]
	p.SpecialAbilities[AbilityImmunityNextHousing] = true

	g.completeLap(p)
	if p.Money != 13 {
		t.Errorf("money = %d, want salary only", p.Money)
	}
	if p.HasAbility(AbilityImmunityNextHousing) {
		t.Error("housing immunity should be used up")
	}
	g.completeLap(p)
	if p.Money != 15 {
		t.Errorf("money = %d, want rent charged again", p.Money)
	}
}

func TestEmergencySale(t *testing.T) {
	g, _, _ := newTestGame(t, testConfig(3), testContent())
	p, buyer := g.State.Players[0], g.State.Players[1]
	g.State.Players[2].Money = 3
	buyer.Money = 12
	p.Money, p.Salary, p.HousingCost = 0, 0, 5
	p.DocumentCards = 1
	p.PersonalItems = fillerCards(DeckPersonalItems, 3)
	g.State.Config.LapDocumentStipend = 0

	g.completeLap(p)
	// -5 + 2 for the document card, then +1 per item.
	if p.Money != 0 {
		t.Errorf("money = %d, want debt covered at 0", p.Money)
	}
	if p.DocumentCards != 0 || len(p.PersonalItems) != 0 {
		t.Errorf("cards %d items %d, want everything sold", p.DocumentCards, len(p.PersonalItems))
	}
	if buyer.Money != 10 || buyer.DocumentCards != 1 {
		t.Errorf("richest buyer = %d money %d cards", buyer.Money, buyer.DocumentCards)
	}
	if p.Eliminated {
		t.Error("a covered debt does not eliminate")
	}
}

func TestMoneyLimitHalvesExcess(t *testing.T) {
	g, _, _ := newTestGame(t, testConfig(2), testContent())
	g.State.Config.MoneyLimitMultiplier = 1
	p := g.State.Players[0]
	p.Money = 30

	g.applyMoneyLimit(p)
	if p.Money != 25 {
		t.Errorf("money = %d, want 20 + 10/2", p.Money)
	}
}

func TestDocumentExchange(t *testing.T) {
	g, _, logger := newTestGame(t, testConfig(2), testContent())
	p := g.State.Players[0]
	p.DocumentLevel = 2
	p.DocumentCards = 4
	p.SpecialAbilities[AbilitySkipDocumentQueue] = true

	if err := g.documentExchange(p); err != nil {
		t.Fatalf("documentExchange: %v", err)
	}
	if p.DocumentLevel != 3 || p.DocumentCards != 1 {
		t.Errorf("level %d cards %d, want 3 and 1", p.DocumentLevel, p.DocumentCards)
	}
	ex := logger.EventsOfType(log.EventDocumentExchange)
	if len(ex) != 1 || ex[0].Delta != 3 {
		t.Errorf("exchange events = %v", ex)
	}
}

func TestExchangeCost(t *testing.T) {
	p := NewPlayer(0, testProfile("student"), &Config{})
	for level, want := range map[int]int{0: 1, 2: 3, 5: 6, 6: 6} {
		p.DocumentLevel = level
		if got := p.ExchangeCost(); got != want {
			t.Errorf("level %d: cost %d, want %d", level, got, want)
		}
	}
	p.SpecialAbilities[AbilityDocumentsFastTrack] = true
	p.DocumentLevel = 2
	if got := p.ExchangeCost(); got != 2 {
		t.Errorf("fast track cost = %d, want 2", got)
	}
	p.DocumentLevel = 0
	if got := p.ExchangeCost(); got != 1 {
		t.Errorf("fast track cost = %d, want the minimum 1", got)
	}
}

func TestBuyDocumentLevel(t *testing.T) {
	g, ctrls, _ := newTestGame(t, testConfig(2), testContent())
	p := g.State.Players[0]

	if _, err := g.buyDocumentLevel(p); err != nil {
		t.Fatalf("buyDocumentLevel: %v", err)
	}
	if p.DocumentLevel != 1 || p.Money != 7 {
		t.Errorf("level %d money %d, want 1 and 7", p.DocumentLevel, p.Money)
	}

	give(g.State.Players[1], interferenceCard(t, "Red Tape", "any", Cost{}, map[string]any{"block_action": true}))
	ctrls[1].InterfereWith(ActionDocumentLevelUp, "Red Tape")
	if _, err := g.buyDocumentLevel(p); err != nil {
		t.Fatalf("buyDocumentLevel: %v", err)
	}
	if p.DocumentLevel != 1 || p.Money != 7 {
		t.Errorf("blocked purchase: level %d money %d, want unchanged", p.DocumentLevel, p.Money)
	}
}

func TestTargetGroupsHitOnlyTheirProfiles(t *testing.T) {
	g, _, _ := newTestGame(t, testConfig(3), testContent())
	student, worker, other := g.State.Players[0], g.State.Players[1], g.State.Players[2]
	card := eventCard(t, "Labor Reform", DeckWhite, map[string]any{"money": -2})
	card.TargetGroups = []string{"worker"}

	if err := g.resolveEventCard(student, card); err != nil {
		t.Fatalf("resolveEventCard: %v", err)
	}
	if student.Money != 10 || other.Money != 10 {
		t.Error("students are not in the target group")
	}
	if worker.Money != 8 {
		t.Errorf("worker money = %d, want 8", worker.Money)
	}
	if g.State.Deck(DeckWhite).DiscardLen() != 1 {
		t.Error("event card goes to its discard")
	}
}

func TestEventCardConditions(t *testing.T) {
	g, _, logger := newTestGame(t, testConfig(2), testContent())
	p := g.State.Players[0]
	conds, err := ParseConditions(map[string]any{"housing_type": "mortgage"})
	if err != nil {
		t.Fatalf("ParseConditions: %v", err)
	}
	card := eventCard(t, "Mortgage Rate Hike", DeckRed, map[string]any{"money": -5})
	card.Conditions = conds

	if err := g.resolveEventCard(p, card); err != nil {
		t.Fatalf("resolveEventCard: %v", err)
	}
	if p.Money != 10 {
		t.Errorf("money = %d, card should not apply to a room tenant", p.Money)
	}
	if len(logger.EventsOfType(log.EventCardPlayed)) != 1 {
		t.Error("skipped card should still be logged")
	}
}

func TestChallengeCard(t *testing.T) {
	g, _, logger := newTestGame(t, testConfig(2), testContent())
	p := g.State.Players[0]
	card := eventCard(t, "Job Interview", DeckWhite, nil)
	card.Challenge = &Challenge{
		Outcomes: []Outcome{{Roll: Comparison{Op: OpGte, Value: 1}, Label: "hired", Effects: mustEffects(t, map[string]any{"money": 2})}},
	}

	if err := g.resolveEventCard(p, card); err != nil {
		t.Fatalf("resolveEventCard: %v", err)
	}
	res := logger.EventsOfType(log.EventChallengeResolved)
	if len(res) != 1 {
		t.Fatalf("got %d challenge events", len(res))
	}
	if p.Money != 12 {
		t.Errorf("money = %d, want the hired outcome", p.Money)
	}
}

func TestLanguageDiceRange(t *testing.T) {
	g, _, _ := newTestGame(t, testConfig(2), testContent())
	p := g.State.Players[0]
	for level := MinLanguageLevel; level <= MaxLanguageLevel; level++ {
		p.LanguageLevel = level
		for i := 0; i < 200; i++ {
			if r := g.rollLanguageDice(p); r < 1 || r > 6 {
				t.Fatalf("level %d rolled %d", level, r)
			}
		}
	}
	p.SpecialAbilities[AbilityPermanentLanguage] = true
	p.TemporaryBonuses[BonusLanguage] = 2
	for i := 0; i < 200; i++ {
		if r := g.rollLanguageDice(p); r < 4 || r > 9 {
			t.Fatalf("bonus roll %d outside [4,9]", r)
		}
	}
}
