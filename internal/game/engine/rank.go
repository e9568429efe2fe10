package engine

import (
	"fmt"

	"github.com/paulhankin/poker"

	"AutoHoldem/internal/game/table"
)

// toPokerCard 转换为 paulhankin/poker 的牌（A 在该库中为 1）
func toPokerCard(c table.Card) (poker.Card, error) {
	rank := c.Rank
	if rank == 14 {
		rank = 1
	}
	pc, err := poker.MakeCard(poker.Suit(c.Suit), poker.Rank(rank))
	if err != nil {
		return pc, fmt.Errorf("invalid card %v: %w", c, err)
	}
	return pc, nil
}

// rankHand 2 张底牌 + 5 张公共牌的最佳牌力，分数越大越强
func rankHand(hole, board []table.Card) (int16, string, error) {
	if len(hole) != 2 || len(board) != 5 {
		return 0, "", fmt.Errorf("need 2 hole and 5 board cards, got %d and %d", len(hole), len(board))
	}
	var seven [7]poker.Card
	for i, c := range append(append([]table.Card{}, board...), hole...) {
		pc, err := toPokerCard(c)
		if err != nil {
			return 0, "", err
		}
		seven[i] = pc
	}
	score := poker.Eval7(&seven)
	name, err := poker.Describe(seven[:])
	if err != nil {
		name = ""
	}
	return score, name, nil
}
