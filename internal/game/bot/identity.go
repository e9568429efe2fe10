package bot

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Prefix 所有机器人用户 ID 的前缀，真人 ID（钱包地址）不会以它开头
const Prefix = "bot_"

// namespace 固定的 UUIDv5 命名空间，修改它会让所有机器人换身份
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("autoholdem:bot"))

// UserID 机器人身份是 (tableID, seatNo) 的纯函数，不需要持久化映射表。
// 底层是 UUIDv5（SHA-1，122 位有效位），不同座位碰撞的概率可以忽略；
// 同一张桌子同一个座位无论重启多少次都得到同一个 ID。
func UserID(tableID string, seatNo int) string {
	name := fmt.Sprintf("%s#%d", tableID, seatNo)
	return Prefix + uuid.NewSHA1(namespace, []byte(name)).String()
}

// IsBot 判断用户 ID 是否属于机器人
func IsBot(userID string) bool {
	return strings.HasPrefix(userID, Prefix)
}
