package redis

import "github.com/iho/erpledger/internal/usecase"

var (
	_ usecase.Cache            = (*Cache)(nil)
	_ usecase.IdempotencyStore = (*IdempotencyStore)(nil)
	_ usecase.RecordLockStore  = (*RecordLockStore)(nil)
)
