package table

// SeatStack 开局时的座位与带入筹码
type SeatStack struct {
	UserID string `json:"userId"`
	SeatNo int    `json:"seatNo"`
	Stack  int64  `json:"stack"`
}

// HandSetup 新一手牌的输入。SmallBlind / BigBlind 为 0 表示不收盲注。
type HandSetup struct {
	TableID      string
	HandID       string
	Seats        []SeatStack
	ButtonSeatNo int
	SmallBlind   int64
	BigBlind     int64
	Seed         int64
}

// MaxSeats 一副牌最多支持的座位数（2*n 张底牌 + 5 张公共牌）
const MaxSeats = 22
