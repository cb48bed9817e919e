package domain

import (
	"fmt"
	"time"
)

// Role identifies one of the two people sharing the journal
type Role string

const (
	RoleYou Role = "you"
	RoleHer Role = "her"
)

// Roles lists every role in display order
var Roles = []Role{RoleYou, RoleHer}

// ParseRole converts s into a Role. An empty string yields RoleYou.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case "":
		return RoleYou, nil
	case RoleYou, RoleHer:
		return Role(s), nil
	}
	return "", NewError(ErrInvalidArgument, fmt.Sprintf("Unknown author %q", s))
}

// Entry is a single journal post
type Entry struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Author    Role      `json:"author"`
}

// Labels holds the display name of each role
type Labels struct {
	You string `json:"you"`
	Her string `json:"her"`
}
