package game

// CheckWin reports whether the player satisfies every requirement of their goal.
// A player without a goal never wins.
func CheckWin(p *Player) bool {
	if p == nil || p.Goal == nil {
		return false
	}
	for _, r := range p.Goal.Requires {
		if !requirementMet(p, r) {
			return false
		}
	}
	return true
}

func requirementMet(p *Player, r Requirement) bool {
	if r.Resource == ResourceHousingType {
		return p.Housing == r.Housing
	}
	return p.Value(r.Resource) >= r.Min
}

// WinProgress returns how close the player is to their goal, from 0 to 1.
// Each requirement contributes its fulfilled fraction; categorical housing
// counts fully or not at all.
func WinProgress(p *Player) float64 {
	if p == nil || p.Goal == nil || len(p.Goal.Requires) == 0 {
		return 0
	}
	total := 0.0
	for _, r := range p.Goal.Requires {
		total += requirementProgress(p, r)
	}
	return total / float64(len(p.Goal.Requires))
}

func requirementProgress(p *Player, r Requirement) float64 {
	if r.Resource == ResourceHousingType {
		if p.Housing == r.Housing {
			return 1
		}
		return 0
	}
	if r.Min <= 0 {
		return 1
	}
	v := p.Value(r.Resource)
	if v <= 0 {
		return 0
	}
	if v >= r.Min {
		return 1
	}
	return float64(v) / float64(r.Min)
}

// UnmetRequirements lists the requirements the player has not reached yet.
func UnmetRequirements(p *Player) []Requirement {
	if p.Goal == nil {
		return nil
	}
	var out []Requirement
	for _, r := range p.Goal.Requires {
		if !requirementMet(p, r) {
			out = append(out, r)
		}
	}
	return out
}
