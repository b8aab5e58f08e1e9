package chat

import "github.com/mindharbor/wellness-platform/internal/common"

func NewSessionID() (string, error) {
	return common.NewULID()
}
