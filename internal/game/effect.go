package game

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// EffectKind enumerates every effect key the engine understands.
type EffectKind int

const (
	EffectUnknown EffectKind = iota
	EffectMoney
	EffectMoneyPercent
	EffectMoneyDivide
	EffectNerves
	EffectDocumentCards
	EffectDocumentLevel
	EffectInstantDocumentUpgrade
	EffectLanguageLevel
	EffectLanguageLevelUp
	EffectDrawActionCard
	EffectDrawPersonalItem
	EffectBonus
	EffectImmunity
	EffectSpecialAbility
	EffectUpgradeHousing
	EffectDowngradeHousing
	EffectStealPermanent
	EffectMovement

	// Reaction effects, read by the interactive event protocol.
	EffectBlockAction
	EffectReduceEffect
	EffectTargetNerves
	EffectTargetMoney
	EffectTargetDocumentCards
	EffectBlockSabotage
	EffectReflectSabotage
	EffectSelfNerves
	EffectSelfMoney
	EffectSelfDocumentCards
)

var effectKeys = map[string]EffectKind{
	"money":                    EffectMoney,
	"money_percent":            EffectMoneyPercent,
	"money_divide":             EffectMoneyDivide,
	"nerves":                   EffectNerves,
	"document_cards":           EffectDocumentCards,
	"documents_cards":          EffectDocumentCards,
	"document_level":           EffectDocumentLevel,
	"instant_document_upgrade": EffectInstantDocumentUpgrade,
	"language_level":           EffectLanguageLevel,
	"language_level_up":        EffectLanguageLevelUp,
	"draw_action_card":         EffectDrawActionCard,
	"draw_personal_item":       EffectDrawPersonalItem,
	"immunity":                 EffectImmunity,
	"special_ability":          EffectSpecialAbility,
	"upgrade_housing":          EffectUpgradeHousing,
	"downgrade_housing":        EffectDowngradeHousing,
	"steal_permanent_effect":   EffectStealPermanent,
	"movement":                 EffectMovement,
	"block_action":             EffectBlockAction,
	"reduce_effect":            EffectReduceEffect,
	"target_nerves":            EffectTargetNerves,
	"target_money":             EffectTargetMoney,
	"target_document_cards":    EffectTargetDocumentCards,
	"block_sabotage":           EffectBlockSabotage,
	"reflect_sabotage":         EffectReflectSabotage,
	"self_nerves":              EffectSelfNerves,
	"self_money":               EffectSelfMoney,
	"self_document_cards":      EffectSelfDocumentCards,
}

func (k EffectKind) String() string {
	if k == EffectBonus {
		return "bonus"
	}
	for key, kind := range effectKeys {
		if kind == k && key != "documents_cards" {
			return key
		}
	}
	return "unknown"
}

// Effect is one parsed entry of a card's effect map.
type Effect struct {
	Kind   EffectKind
	Key    string  // key as written in content
	Amount int     // numeric payload (deltas, counts, percent, divisor)
	Ratio  float64 // reduce_effect ratio
	Tag    string  // bonus category, immunity or ability name
}

// Positive reports whether the effect is a numeric gain that reduce_effect can shrink.
func (e Effect) Positive() bool {
	switch e.Kind {
	case EffectMoney, EffectNerves, EffectDocumentCards, EffectDocumentLevel,
		EffectLanguageLevel, EffectMovement, EffectBonus, EffectDrawActionCard,
		EffectDrawPersonalItem:
		return e.Amount > 0
	}
	return false
}

// Reaction reports whether the effect only has meaning inside an interference or defense.
func (e Effect) Reaction() bool {
	return e.Kind >= EffectBlockAction
}

func (e Effect) String() string {
	switch {
	case e.Kind == EffectReduceEffect:
		return fmt.Sprintf("%s:%.2f", e.Key, e.Ratio)
	case e.Tag != "" && e.Kind != EffectBonus:
		return fmt.Sprintf("%s:%s", e.Key, e.Tag)
	default:
		return fmt.Sprintf("%s:%d", e.Key, e.Amount)
	}
}

// Effects is an ordered effect list. Order follows the sorted content keys so
// runs are reproducible.
type Effects []Effect

// Clone returns an independent copy.
func (es Effects) Clone() Effects {
	if es == nil {
		return nil
	}
	out := make(Effects, len(es))
	copy(out, es)
	return out
}

// Amount sums the amounts of all effects of the given kind.
func (es Effects) Amount(kind EffectKind) int {
	total := 0
	for _, e := range es {
		if e.Kind == kind {
			total += e.Amount
		}
	}
	return total
}

// Has reports whether any effect of the given kind is present.
func (es Effects) Has(kind EffectKind) bool {
	for _, e := range es {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

// Find returns the first effect of the given kind.
func (es Effects) Find(kind EffectKind) (Effect, bool) {
	for _, e := range es {
		if e.Kind == kind {
			return e, true
		}
	}
	return Effect{}, false
}

// Negative reports whether any effect lowers one of the owner's resources.
func (es Effects) Negative() bool {
	for _, e := range es {
		switch e.Kind {
		case EffectMoney, EffectNerves, EffectDocumentCards, EffectDocumentLevel, EffectLanguageLevel:
			if e.Amount < 0 {
				return true
			}
		case EffectMoneyPercent:
			if e.Amount < 0 {
				return true
			}
		case EffectMoneyDivide, EffectDowngradeHousing:
			return true
		}
	}
	return false
}

func (es Effects) String() string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// ParseEffects converts a raw content map into typed effects. Unknown keys are
// kept as EffectUnknown entries and reported in the returned error, which wraps
// ErrUnknownEffect; the parsed effects are always usable.
func ParseEffects(raw map[string]any) (Effects, error) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var (
		out     Effects
		unknown []string
		bad     []string
	)
	for _, key := range keys {
		value := raw[key]
		kind, ok := effectKeys[key]
		if !ok && strings.HasSuffix(key, "_bonus") {
			amount, err := cast.ToIntE(value)
			if err != nil {
				bad = append(bad, key)
				continue
			}
			out = append(out, Effect{Kind: EffectBonus, Key: key, Amount: amount, Tag: strings.TrimSuffix(key, "_bonus")})
			continue
		}
		if !ok {
			unknown = append(unknown, key)
			out = append(out, Effect{Kind: EffectUnknown, Key: key})
			continue
		}

		e := Effect{Kind: kind, Key: key}
		switch kind {
		case EffectImmunity, EffectSpecialAbility:
			// One tag or a list of tags.
			tags, err := cast.ToStringSliceE(value)
			if err != nil || len(tags) == 0 {
				bad = append(bad, key)
				continue
			}
			for _, tag := range tags {
				out = append(out, Effect{Kind: kind, Key: key, Tag: tag})
			}
			continue
		case EffectReduceEffect:
			ratio, err := cast.ToFloat64E(value)
			if err != nil || ratio < 0 || ratio > 1 {
				bad = append(bad, key)
				continue
			}
			e.Ratio = ratio
		case EffectBlockAction, EffectBlockSabotage, EffectReflectSabotage,
			EffectUpgradeHousing, EffectDowngradeHousing, EffectStealPermanent,
			EffectInstantDocumentUpgrade, EffectLanguageLevelUp:
			// Flags: true or a positive count.
			n, err := cast.ToIntE(value)
			if err != nil {
				b, berr := cast.ToBoolE(value)
				if berr != nil {
					bad = append(bad, key)
					continue
				}
				n = 0
				if b {
					n = 1
				}
			}
			if n <= 0 {
				continue
			}
			e.Amount = n
		case EffectMoneyDivide:
			n, err := cast.ToIntE(value)
			if err != nil || n <= 0 {
				bad = append(bad, key)
				continue
			}
			e.Amount = n
		default:
			n, err := cast.ToIntE(value)
			if err != nil {
				bad = append(bad, key)
				continue
			}
			e.Amount = n
		}
		out = append(out, e)
	}

	var errs []string
	if len(unknown) > 0 {
		errs = append(errs, fmt.Sprintf("%v: %s", ErrUnknownEffect, strings.Join(unknown, ", ")))
	}
	if len(bad) > 0 {
		errs = append(errs, fmt.Sprintf("bad effect value for %s", strings.Join(bad, ", ")))
	}
	if len(errs) > 0 {
		sentinel := ErrBadEffect
		if len(unknown) > 0 {
			sentinel = ErrUnknownEffect
		}
		return out, &ContentError{Problem: strings.Join(errs, "; "), Err: sentinel}
	}
	return out, nil
}

// knownAbilities are the special abilities the engine acts on.
var knownAbilities = map[string]bool{
	AbilityDocumentsFastTrack:    true,
	AbilitySkipDocumentQueue:     true,
	AbilityLanguageDiceAdvantage: true,
	AbilityRerollLanguageDice:    true,
	AbilityPermanentLanguage:     true,
	AbilityStressImmunity:        true,
	AbilityImmunityNextHousing:   true,
}

// ParseSpecialEffects converts a card's special_effect names into effects.
// A name is either a countable effect key applied once, or a special ability
// granted to whoever resolves the card. Other names are kept as EffectUnknown
// and reported like unknown effect keys.
func ParseSpecialEffects(names []string) (Effects, error) {
	var (
		out     Effects
		unknown []string
	)
	for _, name := range names {
		kind, ok := effectKeys[name]
		switch {
		case ok && (kind == EffectDrawActionCard || kind == EffectDrawPersonalItem ||
			kind == EffectUpgradeHousing || kind == EffectStealPermanent ||
			kind == EffectInstantDocumentUpgrade || kind == EffectLanguageLevelUp):
			out = append(out, Effect{Kind: kind, Key: name, Amount: 1})
		case knownAbilities[name]:
			out = append(out, Effect{Kind: EffectSpecialAbility, Key: "special_effect", Tag: name})
		default:
			unknown = append(unknown, name)
			out = append(out, Effect{Kind: EffectUnknown, Key: name})
		}
	}
	if len(unknown) > 0 {
		return out, &ContentError{
			Problem: fmt.Sprintf("%v: special_effect %s", ErrUnknownEffect, strings.Join(unknown, ", ")),
			Err:     ErrUnknownEffect,
		}
	}
	return out, nil
}
