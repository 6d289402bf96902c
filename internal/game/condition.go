package game

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Op is a comparison operator parsed from content at load time.
type Op int

const (
	OpEq Op = iota
	OpGt
	OpLt
	OpGte
	OpLte
	OpRange // inclusive [Value, Hi]
)

func (o Op) String() string {
	switch o {
	case OpGt:
		return ">"
	case OpLt:
		return "<"
	case OpGte:
		return ">="
	case OpLte:
		return "<="
	case OpRange:
		return "range"
	default:
		return "=="
	}
}

// Comparison is a typed numeric predicate such as ">=3" or "2-4".
type Comparison struct {
	Op    Op
	Value int
	Hi    int
}

// ParseComparison parses "N", "==N", ">N", "<N", ">=N", "<=N" and "A-B".
func ParseComparison(s string) (Comparison, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Comparison{}, fmt.Errorf("%w: empty comparison", ErrBadCondition)
	}
	for _, p := range []struct {
		prefix string
		op     Op
	}{{">=", OpGte}, {"<=", OpLte}, {"==", OpEq}, {">", OpGt}, {"<", OpLt}} {
		if strings.HasPrefix(s, p.prefix) {
			n, err := strconv.Atoi(strings.TrimSpace(s[len(p.prefix):]))
			if err != nil {
				return Comparison{}, fmt.Errorf("%w: %q", ErrBadCondition, s)
			}
			return Comparison{Op: p.op, Value: n}, nil
		}
	}
	// A leading minus belongs to the first number, not the range separator.
	if i := strings.Index(s[1:], "-"); i >= 0 {
		lo, err1 := strconv.Atoi(strings.TrimSpace(s[:i+1]))
		hi, err2 := strconv.Atoi(strings.TrimSpace(s[i+2:]))
		if err1 != nil || err2 != nil || hi < lo {
			return Comparison{}, fmt.Errorf("%w: %q", ErrBadCondition, s)
		}
		return Comparison{Op: OpRange, Value: lo, Hi: hi}, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Comparison{}, fmt.Errorf("%w: %q", ErrBadCondition, s)
	}
	return Comparison{Op: OpEq, Value: n}, nil
}

// Match evaluates the comparison against v.
func (c Comparison) Match(v int) bool {
	switch c.Op {
	case OpGt:
		return v > c.Value
	case OpLt:
		return v < c.Value
	case OpGte:
		return v >= c.Value
	case OpLte:
		return v <= c.Value
	case OpRange:
		return v >= c.Value && v <= c.Hi
	default:
		return v == c.Value
	}
}

func (c Comparison) String() string {
	switch c.Op {
	case OpRange:
		return fmt.Sprintf("%d-%d", c.Value, c.Hi)
	case OpEq:
		return strconv.Itoa(c.Value)
	default:
		return c.Op.String() + strconv.Itoa(c.Value)
	}
}

// Conditions gate whether a card applies to a player. Empty fields match everyone.
type Conditions struct {
	HousingTypes   []Housing
	Profiles       []string
	DocumentsLevel *Comparison
	Money          *Comparison
	HousingSearch  *bool
}

// Empty reports whether no condition is set.
func (c Conditions) Empty() bool {
	return len(c.HousingTypes) == 0 && len(c.Profiles) == 0 && c.DocumentsLevel == nil &&
		c.Money == nil && c.HousingSearch == nil
}

// Met evaluates every condition against the player.
func (c Conditions) Met(p *Player) bool {
	if len(c.HousingTypes) > 0 {
		found := false
		for _, h := range c.HousingTypes {
			if h == p.Housing {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(c.Profiles) > 0 {
		found := false
		for _, id := range c.Profiles {
			if id == p.ProfileID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if c.DocumentsLevel != nil && !c.DocumentsLevel.Match(p.DocumentLevel) {
		return false
	}
	if c.Money != nil && !c.Money.Match(p.Money) {
		return false
	}
	if c.HousingSearch != nil && *c.HousingSearch != p.HousingSearch {
		return false
	}
	return true
}

// ParseConditions parses a raw condition map. Unparseable entries are dropped
// and reported; the remaining conditions still apply.
func ParseConditions(raw map[string]any) (Conditions, error) {
	var (
		c    Conditions
		errs []string
	)
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := raw[key]
		switch key {
		case "housing_type":
			tags, err := cast.ToStringSliceE(value)
			if err != nil {
				errs = append(errs, key)
				continue
			}
			for _, t := range tags {
				h := Housing(t)
				if h.Level() == 0 {
					errs = append(errs, fmt.Sprintf("%s=%s", key, t))
					continue
				}
				c.HousingTypes = append(c.HousingTypes, h)
			}
		case "character_id", "profile":
			ids, err := cast.ToStringSliceE(value)
			if err != nil {
				errs = append(errs, key)
				continue
			}
			c.Profiles = append(c.Profiles, ids...)
		case "documents_level", "document_level", "money_range", "money":
			cmp, err := ParseComparison(cast.ToString(value))
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s=%v", key, value))
				continue
			}
			if strings.HasPrefix(key, "money") {
				c.Money = &cmp
			} else {
				c.DocumentsLevel = &cmp
			}
		case "housing_search":
			b, err := cast.ToBoolE(value)
			if err != nil {
				errs = append(errs, key)
				continue
			}
			c.HousingSearch = &b
		default:
			errs = append(errs, "unknown condition "+key)
		}
	}
	if len(errs) > 0 {
		return c, &ContentError{Problem: strings.Join(errs, ", "), Err: ErrBadCondition}
	}
	return c, nil
}
