package utils

import (
	"crypto/md5"
	"encoding/hex"
)

// BytesMD5 计算字节数组MD5
func BytesMD5(data []byte) string {
	hash := md5.Sum(data)
	return hex.EncodeToString(hash[:])
}

// CacheKey 组合图片哈希和参数指纹，默认参数时直接使用图片哈希
func CacheKey(md5 string, fingerprint string, isDefault bool) string {
	if isDefault {
		return md5
	}
	return md5 + ":" + BytesMD5([]byte(fingerprint))[:12]
}
