package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：机型过站矩阵、排机规则或逐日安排记录的 version
// 与请求时读取的不一致，说明已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")
