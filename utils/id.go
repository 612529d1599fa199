package utils

import (
	"strconv"
	"time"
)

// GenerateID 生成基于时间戳的ID
func GenerateID() int64 {
	return time.Now().UnixNano()
}

// RequestID 请求ID，36 进制时间戳
func RequestID() string {
	return strconv.FormatInt(GenerateID(), 36)
}
