package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrStaleStatus 条件更新未命中：记录状态已不是预期值
var ErrStaleStatus = errors.New("记录状态已变更")
