package table

import "fmt"

// Card 定义 (suit 0-3 ♣♦♥♠, rank 2-14, A=14)
type Card struct {
	Suit int `json:"suit"`
	Rank int `json:"rank"`
}

func (c Card) String() string {
	return fmtCard(c)
}

// Valid 判断花色与点数是否在合法范围内
func (c Card) Valid() bool {
	return c.Suit >= 0 && c.Suit <= 3 && c.Rank >= 2 && c.Rank <= 14
}

func fmtCard(c Card) string {
	suits := []string{"♣", "♦", "♥", "♠"}
	ranks := map[int]string{
		10: "T",
		11: "J",
		12: "Q",
		13: "K",
		14: "A",
	}
	rankStr, ok := ranks[c.Rank]
	if !ok {
		rankStr = fmt.Sprintf("%d", c.Rank)
	}
	suitStr := "?"
	if c.Suit >= 0 && c.Suit < len(suits) {
		suitStr = suits[c.Suit]
	}
	return rankStr + suitStr
}
