package table

import "sort"

// Phase 一手牌的阶段，只能向前推进
type Phase string

const (
	PhasePreflop  Phase = "PREFLOP"
	PhaseFlop     Phase = "FLOP"
	PhaseTurn     Phase = "TURN"
	PhaseRiver    Phase = "RIVER"
	PhaseShowdown Phase = "SHOWDOWN"
	PhaseHandDone Phase = "HAND_DONE"
)

var phaseOrder = map[Phase]int{
	PhasePreflop:  0,
	PhaseFlop:     1,
	PhaseTurn:     2,
	PhaseRiver:    3,
	PhaseShowdown: 4,
	PhaseHandDone: 5,
}

// Ordinal returns the position of the phase in the hand; -1 for unknown phases.
func (p Phase) Ordinal() int {
	if o, ok := phaseOrder[p]; ok {
		return o
	}
	return -1
}

// AcceptsActions 只有四条下注街接受玩家动作
func (p Phase) AcceptsActions() bool {
	switch p {
	case PhasePreflop, PhaseFlop, PhaseTurn, PhaseRiver:
		return true
	}
	return false
}

// Next 下一条街；SHOWDOWN / HAND_DONE 没有下一条街
func (p Phase) Next() (Phase, bool) {
	switch p {
	case PhasePreflop:
		return PhaseFlop, true
	case PhaseFlop:
		return PhaseTurn, true
	case PhaseTurn:
		return PhaseRiver, true
	case PhaseRiver:
		return PhaseShowdown, true
	}
	return p, false
}

// CommunityCount 每个阶段对应的公共牌数量。
// HAND_DONE 返回 -1：弃牌结束的手牌停在当时的公共牌数量。
func CommunityCount(p Phase) int {
	switch p {
	case PhasePreflop:
		return 0
	case PhaseFlop:
		return 3
	case PhaseTurn:
		return 4
	case PhaseRiver, PhaseShowdown:
		return 5
	}
	return -1
}

// ActionType 玩家动作
type ActionType string

const (
	ActionCheck ActionType = "CHECK"
	ActionCall  ActionType = "CALL"
	ActionBet   ActionType = "BET"
	ActionRaise ActionType = "RAISE"
	ActionFold  ActionType = "FOLD"
)

// HasAmount BET / RAISE 需要金额，其余动作金额被忽略
func (t ActionType) HasAmount() bool {
	return t == ActionBet || t == ActionRaise
}

// Action 一次决策。Amount 对 BET/RAISE 表示本轮下注到的总额（bet to）。
type Action struct {
	Type      ActionType `json:"type"`
	Amount    int64      `json:"amount,omitempty"`
	UserID    string     `json:"userId"`
	RequestID string     `json:"requestId"`
}

// LegalAction 当前可执行的动作。
// Min/Max 只对 BET/RAISE 有意义（同样是 bet-to 口径）。
type LegalAction struct {
	Type ActionType `json:"type"`
	Min  int64      `json:"min,omitempty"`
	Max  int64      `json:"max,omitempty"`
}

// Seat 座位与用户绑定，与是否为机器人无关
type Seat struct {
	UserID string `json:"userId"`
	SeatNo int    `json:"seatNo"`
}

// SortSeats 按座位号排序（原地）
func SortSeats(seats []Seat) {
	sort.Slice(seats, func(i, j int) bool { return seats[i].SeatNo < seats[j].SeatNo })
}

// Event 状态变化记录，按产生顺序累积
type Event struct {
	Kind   string         `json:"kind"`
	HandID string         `json:"handId"`
	Data   map[string]any `json:"data,omitempty"`
}

const (
	EventHandStarted    = "hand_started"
	EventBlindPosted    = "blind_posted"
	EventActionApplied  = "action_applied"
	EventPlayerAllIn    = "player_all_in"
	EventStreetAdvanced = "street_advanced"
	EventPotAwarded     = "pot_awarded"
	EventPotRefunded    = "pot_refunded"
	EventHandCompleted  = "hand_completed"
	EventBotBuyIn       = "bot_buy_in"
)

// PotResult 一个（边）池的结算结果
type PotResult struct {
	Amount   int64            `json:"amount"`
	Eligible []string         `json:"eligible"`
	Winners  []string         `json:"winners"`
	Shares   map[string]int64 `json:"shares"`
}

// Showdown 摊牌结果，HandID 用于幂等判断
type Showdown struct {
	HandID      string            `json:"handId"`
	Pots        []PotResult       `json:"pots"`
	Payouts     map[string]int64  `json:"payouts"`
	HandNames   map[string]string `json:"handNames,omitempty"`
	Uncontested bool              `json:"uncontested"`
}

// HandState 一手牌的完整（私有）状态。
// HoleCards / Deck / Seed 只能留在引擎与存储内部，对外一律使用 HandView。
type HandState struct {
	TableID      string `json:"tableId"`
	HandID       string `json:"handId"`
	Phase        Phase  `json:"phase"`
	Community    []Card `json:"community"`
	TurnUserID   string `json:"turnUserId"`
	Seats        []Seat `json:"seats"`
	ButtonSeatNo int    `json:"buttonSeatNo"`
	SmallBlind   int64  `json:"smallBlind"`
	BigBlind     int64  `json:"bigBlind"`

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

	CurrentBet    int64 `json:"currentBet"`
	LastRaiseSize int64 `json:"lastRaiseSize"`

	Showdown          *Showdown `json:"showdown,omitempty"`
	AppliedRequestIDs []string  `json:"appliedRequestIds,omitempty"`

	// private
	HoleCards map[string][]Card `json:"holeCards,omitempty"`
	Deck      []Card            `json:"deck,omitempty"`
	Seed      int64             `json:"seed,omitempty"`
}

// Eligible 未弃牌、未离桌、未坐出的玩家仍可争夺底池
func (s *HandState) Eligible(userID string) bool {
	if _, seated := s.Stacks[userID]; !seated {
		return false
	}
	return !s.FoldedByUserID[userID] && !s.LeftTableByUserID[userID] && !s.SitOutByUserID[userID]
}

// Actionable 仍然可以做决策的玩家（eligible 且未全下）
func (s *HandState) Actionable(userID string) bool {
	return s.Eligible(userID) && !s.AllInByUserID[userID]
}

// EligibleUsers 按座位顺序返回可争夺底池的玩家
func (s *HandState) EligibleUsers() []string {
	out := make([]string, 0, len(s.Seats))
	for _, seat := range s.Seats {
		if s.Eligible(seat.UserID) {
			out = append(out, seat.UserID)
		}
	}
	return out
}

// ActionableUsers 按座位顺序返回还能行动的玩家
func (s *HandState) ActionableUsers() []string {
	out := make([]string, 0, len(s.Seats))
	for _, seat := range s.Seats {
		if s.Actionable(seat.UserID) {
			out = append(out, seat.UserID)
		}
	}
	return out
}

// Pot 底池总额（所有玩家本手已投入的筹码）
func (s *HandState) Pot() int64 {
	var total int64
	for _, v := range s.ContributionsByUserID {
		total += v
	}
	return total
}

// ChipTotal 桌上筹码 + 底池，一手牌内守恒
func (s *HandState) ChipTotal() int64 {
	total := s.Pot()
	for _, v := range s.Stacks {
		total += v
	}
	return total
}

// SeatOf 查询用户的座位号
func (s *HandState) SeatOf(userID string) (int, bool) {
	for _, seat := range s.Seats {
		if seat.UserID == userID {
			return seat.SeatNo, true
		}
	}
	return 0, false
}

// ShowdownDone 本手牌是否已经结算过
func (s *HandState) ShowdownDone() bool {
	return s.Showdown != nil && s.Showdown.HandID == s.HandID
}

// RequestApplied requestId 是否已经在本手被应用过
func (s *HandState) RequestApplied(requestID string) bool {
	if requestID == "" {
		return false
	}
	for _, id := range s.AppliedRequestIDs {
		if id == requestID {
			return true
		}
	}
	return false
}
