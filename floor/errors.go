package floor

import "errors"

// 管线错误分类，调用方使用 errors.Is 判断
var (
	// ErrInput 输入图像无法解码或尺寸非法
	ErrInput = errors.New("invalid input")
	// ErrConfiguration 配置非法或缓冲区无法分配
	ErrConfiguration = errors.New("invalid configuration")
	// ErrModel 分类器调用失败或返回了不支持的张量形状
	ErrModel = errors.New("model error")
)
