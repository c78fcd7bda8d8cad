package utils

import (
	"crypto/rand"
)

const (
	codeLength  = 6
	codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NewSessionCode 產生一組六碼的場次分享代碼，例如 "ABCD12"。
// 唯一性由資料庫的唯一索引把關，這裡只負責隨機性。
func NewSessionCode() string {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand 讀不到只會發生在系統層級故障
	}

	code := make([]byte, codeLength)
	for i, b := range buf {
		code[i] = codeCharset[int(b)%len(codeCharset)]
	}
	return string(code)
}
