package model

// FloorResult 地板检测结果
type FloorResult struct {
	MD5         string `json:"md5"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ModelWidth  int    `json:"model_width"`
	ModelHeight int    `json:"model_height"`
	// Mask 原图尺寸二值掩码，PNG data URL
	Mask string `json:"mask"`
	// FloorMask 软边蒙版（白色 + alpha），PNG data URL，用于 CSS mask-image
	FloorMask string `json:"floor_mask"`
	// DebugOverlay 红色调试叠加层，PNG data URL
	DebugOverlay string  `json:"debug_overlay,omitempty"`
	BoundingBox  BBox    `json:"bounding_box"`
	Coverage     float64 `json:"coverage"`
	TTA          bool    `json:"tta"`
	Preset       string  `json:"preset,omitempty"`
	DurationMs   int64   `json:"duration_ms"`
	Timestamp    int64   `json:"timestamp"`
}

// BBox 边界框
type BBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FloorResponse 检测响应
type FloorResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    *FloorResult `json:"data,omitempty"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
