package service

import "errors"

// 错误定义
var (
	// ErrForbidden 角色没有执行该操作的权限
	ErrForbidden = errors.New("operation not permitted for this role")
)
