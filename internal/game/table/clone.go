package table

import (
	"maps"
	"slices"
)

// Clone 深拷贝，引擎的纯函数都在副本上修改
func (s *HandState) Clone() *HandState {
	if s == nil {
		return nil
	}
	c := *s
	c.Community = slices.Clone(s.Community)
	c.Seats = slices.Clone(s.Seats)
	c.Deck = slices.Clone(s.Deck)
	c.AppliedRequestIDs = slices.Clone(s.AppliedRequestIDs)

	c.Stacks = maps.Clone(s.Stacks)
	c.ToCallByUserID = maps.Clone(s.ToCallByUserID)
	c.BetThisRoundByUserID = maps.Clone(s.BetThisRoundByUserID)
	c.ContributionsByUserID = maps.Clone(s.ContributionsByUserID)
	c.ActedThisRoundByUserID = maps.Clone(s.ActedThisRoundByUserID)
	c.AllInByUserID = maps.Clone(s.AllInByUserID)
	c.FoldedByUserID = maps.Clone(s.FoldedByUserID)
	c.LeftTableByUserID = maps.Clone(s.LeftTableByUserID)
	c.SitOutByUserID = maps.Clone(s.SitOutByUserID)
	c.PendingAutoSitOutByUserID = maps.Clone(s.PendingAutoSitOutByUserID)

	if s.HoleCards != nil {
		c.HoleCards = make(map[string][]Card, len(s.HoleCards))
		for k, v := range s.HoleCards {
			c.HoleCards[k] = slices.Clone(v)
		}
	}
	c.Showdown = s.Showdown.clone()
	return &c
}

func (sd *Showdown) clone() *Showdown {
	if sd == nil {
		return nil
	}
	c := *sd
	c.Payouts = maps.Clone(sd.Payouts)
	c.HandNames = maps.Clone(sd.HandNames)
	if sd.Pots != nil {
		c.Pots = make([]PotResult, len(sd.Pots))
		for i, p := range sd.Pots {
			c.Pots[i] = PotResult{
				Amount:   p.Amount,
				Eligible: slices.Clone(p.Eligible),
				Winners:  slices.Clone(p.Winners),
				Shares:   maps.Clone(p.Shares),
			}
		}
	}
	return &c
}
