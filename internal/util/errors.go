package util

import "errors"

var (
	ErrUserNotFound       = errors.New("用户不存在")
	ErrEmailRegistered    = errors.New("该邮箱已被注册")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrItemNotFound       = errors.New("knowledge item not found")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrSessionNotFound    = errors.New("learning session not found or expired")
	ErrSessionTerminated  = errors.New("learning session already terminated")
	ErrEmptyCandidateSet  = errors.New("no eligible items for this session")
	ErrEmptyAnswer        = errors.New("submitted answer is empty")
	ErrItemNotInSession   = errors.New("item is not part of this session")
	ErrConflict           = errors.New("concurrent update on proficiency row")
)
