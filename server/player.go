package server

import (
	"fmt"
	"strings"
)

// Role 连接角色：host 负责开局，不占玩家位；player 占用一个玩家位
type Role string

const (
	RoleHost   Role = "host"
	RolePlayer Role = "player"
)

// NoPlayer host 连接的玩家位
const NoPlayer = -1

// ParseRole 解析连接参数中的 role，缺省为 player；无法识别的值返回 bad_request
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(RolePlayer):
		return RolePlayer, nil
	case string(RoleHost):
		return RoleHost, nil
	}
	return "", &AppError{Kind: KindBadRequest, Message: fmt.Sprintf("unknown role %q", s)}
}
