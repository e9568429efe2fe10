package bot

// TargetCount 一张桌子应该有多少个机器人。
// 没有真人或者真人已经坐满时为 0；否则 min(configuredMax, 空位-1)，始终给新真人留一个座位。
func TargetCount(maxPlayers, humanCount, configuredMax int) int {
	if humanCount <= 0 || humanCount >= maxPlayers {
		return 0
	}
	free := maxPlayers - humanCount - 1
	if free < 0 {
		free = 0
	}
	if configuredMax < 0 {
		configuredMax = 0
	}
	return min(configuredMax, free)
}

// FreeSeats 返回 1..maxPlayers 中未被占用的座位号（升序）
func FreeSeats(maxPlayers int, taken map[int]bool) []int {
	out := make([]int, 0, maxPlayers)
	for no := 1; no <= maxPlayers; no++ {
		if !taken[no] {
			out = append(out, no)
		}
	}
	return out
}
