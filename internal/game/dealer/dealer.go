package dealer

import (
	"errors"
	"math/rand"

	"AutoHoldem/internal/game/table"
)

var ErrDeckExhausted = errors.New("deck exhausted")

// Dealer 只负责洗牌与发牌（无规则判断）。
// 同一个 seed 总是得到同一副牌；发牌后剩余牌堆通过 Remaining 写回 HandState。
type Dealer struct {
	deck []table.Card
	rnd  *rand.Rand
}

func NewDealer(seed int64) *Dealer {
	return &Dealer{
		deck: make([]table.Card, 0, 52),
		rnd:  rand.New(rand.NewSource(seed)),
	}
}

// Resume 从持久化的剩余牌堆继续发牌（无状态请求之间使用）
func Resume(deck []table.Card) *Dealer {
	return &Dealer{deck: append([]table.Card(nil), deck...)}
}

// NewDeck 初始化一副牌并洗牌
func (d *Dealer) NewDeck() {
	d.deck = d.makeDeck()
	d.shuffle()
}

func (d *Dealer) makeDeck() []table.Card {
	deck := make([]table.Card, 0, 52)
	for s := 0; s < 4; s++ {
		for r := 2; r <= 14; r++ {
			deck = append(deck, table.Card{Suit: s, Rank: r})
		}
	}
	return deck
}

func (d *Dealer) shuffle() {
	d.rnd.Shuffle(len(d.deck), func(i, j int) {
		d.deck[i], d.deck[j] = d.deck[j], d.deck[i]
	})
}

// DealHoleCards 给每个玩家发 2 张底牌，返回 userID -> []Card
func (d *Dealer) DealHoleCards(players []string) (map[string][]table.Card, error) {
	if len(players)*2 > len(d.deck) {
		return nil, ErrDeckExhausted
	}
	out := make(map[string][]table.Card, len(players))
	// 轮流发牌，先玩家 0 一张，...再玩家0 第二张
	for i := 0; i < 2; i++ {
		for _, id := range players {
			card, _ := d.draw()
			out[id] = append(out[id], card)
		}
	}
	return out, nil
}

// DealCommunity 发公共牌 n 张（burn 忽略）
func (d *Dealer) DealCommunity(n int) ([]table.Card, error) {
	if n > len(d.deck) {
		return nil, ErrDeckExhausted
	}
	out := make([]table.Card, 0, n)
	for i := 0; i < n; i++ {
		c, _ := d.draw()
		out = append(out, c)
	}
	return out, nil
}

// Remaining 剩余牌堆的副本
func (d *Dealer) Remaining() []table.Card {
	return append([]table.Card(nil), d.deck...)
}

func (d *Dealer) draw() (table.Card, bool) {
	if len(d.deck) == 0 {
		return table.Card{}, false
	}
	c := d.deck[0]
	d.deck = d.deck[1:]
	return c, true
}
