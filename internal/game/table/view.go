package table

// HandView 对外可见的手牌状态。
// 不含底牌、牌堆、种子；任何跨出引擎边界的数据都必须是 HandView（或 PlayerView）。
type HandView struct {
	TableID      string `json:"tableId"`
	HandID       string `json:"handId"`
	Phase        Phase  `json:"phase"`
	Community    []Card `json:"community"`
	TurnUserID   string `json:"turnUserId"`
	Seats        []Seat `json:"seats"`
	ButtonSeatNo int    `json:"buttonSeatNo"`
	SmallBlind   int64  `json:"smallBlind"`
	BigBlind     int64  `json:"bigBlind"`
	Pot          int64  `json:"pot"`

	Stacks                    map[string]int64 `json:"stacks"`
	ToCallByUserID            map[string]int64 `json:"toCallByUserId"`
	BetThisRoundByUserID      map[string]int64 `json:"betThisRoundByUserId"`
	ActedThisRoundByUserID    map[string]bool  `json:"actedThisRoundByUserId"`
	AllInByUserID             map[string]bool  `json:"allInByUserId"`
	ContributionsByUserID     map[string]int64 `json:"contributionsByUserId"`
	FoldedByUserID            map[string]bool  `json:"foldedByUserId"`
	LeftTableByUserID         map[string]bool  `json:"leftTableByUserId"`
	SitOutByUserID            map[string]bool  `json:"sitOutByUserId"`
	PendingAutoSitOutByUserID map[string]bool  `json:"pendingAutoSitOutByUserId"`

	CurrentBet    int64     `json:"currentBet"`
	LastRaiseSize int64     `json:"lastRaiseSize"`
	Showdown      *Showdown `json:"showdown,omitempty"`
}

// PlayerView 某个玩家自己看到的状态：公开状态 + 自己的两张底牌
type PlayerView struct {
	HandView
	UserID    string `json:"userId"`
	HoleCards []Card `json:"holeCards"`
}

// PublicView 去掉私有字段。返回值与 HandState 不共享任何可变数据。
func (s *HandState) PublicView() HandView {
	c := s.Clone()
	return HandView{
		TableID:                   c.TableID,
		HandID:                    c.HandID,
		Phase:                     c.Phase,
		Community:                 c.Community,
		TurnUserID:                c.TurnUserID,
		Seats:                     c.Seats,
		ButtonSeatNo:              c.ButtonSeatNo,
		SmallBlind:                c.SmallBlind,
		BigBlind:                  c.BigBlind,
		Pot:                       c.Pot(),
		Stacks:                    c.Stacks,
		ToCallByUserID:            c.ToCallByUserID,
		BetThisRoundByUserID:      c.BetThisRoundByUserID,
		ActedThisRoundByUserID:    c.ActedThisRoundByUserID,
		AllInByUserID:             c.AllInByUserID,
		ContributionsByUserID:     c.ContributionsByUserID,
		FoldedByUserID:            c.FoldedByUserID,
		LeftTableByUserID:         c.LeftTableByUserID,
		SitOutByUserID:            c.SitOutByUserID,
		PendingAutoSitOutByUserID: c.PendingAutoSitOutByUserID,
		CurrentBet:                c.CurrentBet,
		LastRaiseSize:             c.LastRaiseSize,
		Showdown:                  c.Showdown,
	}
}

// PrivateView 只附带 userID 自己的底牌
func (s *HandState) PrivateView(userID string) PlayerView {
	return PlayerView{
		HandView:  s.PublicView(),
		UserID:    userID,
		HoleCards: append([]Card{}, s.HoleCards[userID]...),
	}
}

// Eligible 与 HandState.Eligible 相同的判定，供只拿到公开视图的调用方使用
func (v HandView) Eligible(userID string) bool {
	if _, seated := v.Stacks[userID]; !seated {
		return false
	}
	return !v.FoldedByUserID[userID] && !v.LeftTableByUserID[userID] && !v.SitOutByUserID[userID]
}

// Actionable eligible 且未全下
func (v HandView) Actionable(userID string) bool {
	return v.Eligible(userID) && !v.AllInByUserID[userID]
}
