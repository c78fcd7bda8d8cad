package service

import "errors"

// 服務層的錯誤類別。所有操作同步失敗並回傳其中一種，
// handlers 用 errors.Is 對應到 HTTP 狀態碼。
var (
	ErrNotFound      = errors.New("找不到資源")
	ErrInvalidState  = errors.New("目前狀態不允許此操作")
	ErrInvalidTarget = errors.New("不能投給已淘汰的電影")
	ErrDuplicateVote = errors.New("這一回合已經投過這部電影")
	ErrInvalidValue  = errors.New("無效的值")
)
