package domain

import (
	"github.com/yungbote/javuy-backend/internal/domain/auth"
	"github.com/yungbote/javuy-backend/internal/domain/learning"
	"github.com/yungbote/javuy-backend/internal/domain/user"
)

const (
	RoleUser  = user.RoleUser
	RoleAdmin = user.RoleAdmin

	StatusLocked    = learning.StatusLocked
	StatusActive    = learning.StatusActive
	StatusCompleted = learning.StatusCompleted

	BlockText = learning.BlockText
	BlockCode = learning.BlockCode
	BlockQuiz = learning.BlockQuiz
)

type User = user.User

type UserToken = auth.UserToken

type Chapter = learning.Chapter
type ContentBlock = learning.ContentBlock
type Progress = learning.Progress
type Lab = learning.Lab
type LabFile = learning.LabFile

const DefaultXPReward = learning.DefaultXPReward

var (
	DecodeBlocks     = learning.DecodeBlocks
	NormalizeContent = learning.NormalizeContent
	ValidateLabFiles = learning.ValidateLabFiles
)

// Models lists every table AutoMigrate manages, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&User{},
		&UserToken{},
		&Chapter{},
		&Progress{},
		&Lab{},
	}
}
