package crypto_util

import (
	"crypto/sha256"

	"lukechampine.com/blake3"
)

// ChecksumSize 信封校验和长度 (字节)
const ChecksumSize = 4

// SHA256 计算输入的 SHA256 哈希值。
// 交易哈希 (清空签名后的记录) 使用该算法。
func SHA256(data []byte) []byte {
	hash := sha256.Sum256(data)
	return hash[:]
}

// Checksum 返回 Blake3 哈希的前 4 个字节，用于可移植信封的完整性校验。
// Blake3 是一种现代、高性能的加密哈希函数。
func Checksum(data []byte) []byte {
	hash := blake3.Sum256(data)
	return append([]byte(nil), hash[:ChecksumSize]...)
}
