package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/TIANLI0/FloorKit/config"
	"github.com/TIANLI0/FloorKit/floor"
	"github.com/TIANLI0/FloorKit/model"
	"github.com/TIANLI0/FloorKit/service"
	"github.com/TIANLI0/FloorKit/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type FloorHandler struct {
	cfg          *config.Config
	redisService *service.RedisService
	floorService *service.FloorService
}

func NewFloorHandler(cfg *config.Config, redis *service.RedisService, floorService *service.FloorService) *FloorHandler {
	return &FloorHandler{
		cfg:          cfg,
		redisService: redis,
		floorService: floorService,
	}
}

// Detect 上传房间图片并检测地板
func (h *FloorHandler) Detect(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		utils.Logger.Error("failed to get uploaded file", zap.Error(err))
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "请上传图片文件",
			Error:   err.Error(),
		})
		return
	}

	// 验证文件大小
	if file.Size > h.cfg.Upload.MaxSize {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: fmt.Sprintf("文件大小超过限制 (%d MB)", h.cfg.Upload.MaxSize/(1024*1024)),
		})
		return
	}

	// 验证文件类型
	contentType := file.Header.Get("Content-Type")
	if !h.isAllowedType(contentType) {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "不支持的文件类型，仅支持 JPEG/PNG/WebP",
		})
		return
	}

	opts, preset, err := h.requestOptions(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "参数错误",
			Error:   err.Error(),
		})
		return
	}

	data, err := readUpload(file, h.cfg.Upload.MaxSize)
	if err != nil {
		utils.Logger.Error("failed to read file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Message: "读取文件失败",
			Error:   err.Error(),
		})
		return
	}

	md5 := utils.BytesMD5(data)
	isDefault := opts.Fingerprint() == h.floorService.DefaultOptions().Fingerprint()
	cacheKey := utils.CacheKey(md5, opts.Fingerprint(), isDefault)
	// 与默认参数等价的预设共用默认缓存键，结果里不记录预设名
	if isDefault {
		preset = ""
	}

	utils.Logger.Info("file uploaded",
		zap.String("filename", file.Filename),
		zap.String("md5", md5),
		zap.Int64("size", file.Size),
		zap.String("cache_key", cacheKey))

	// 检查缓存（带参数区分）
	ctx := c.Request.Context()
	cachedResult, err := h.redisService.GetFloorResult(ctx, cacheKey)
	if err != nil {
		utils.Logger.Warn("failed to get cache", zap.Error(err))
	}

	if cachedResult != nil {
		utils.Logger.Info("cache hit", zap.String("cache_key", cacheKey))
		c.JSON(http.StatusOK, model.FloorResponse{
			Success: true,
			Message: "处理成功（来自缓存）",
			Data:    cachedResult,
		})
		return
	}

	result, err := h.floorService.ProcessImage(ctx, data, md5, opts)
	if err != nil {
		status, message := errorStatus(err)
		utils.Logger.Error("failed to process image", zap.String("md5", md5), zap.Error(err))
		c.JSON(status, model.ErrorResponse{
			Success: false,
			Message: message,
			Error:   err.Error(),
		})
		return
	}
	result.Preset = preset

	// 保存到缓存
	if err := h.redisService.SetFloorResult(ctx, cacheKey, result); err != nil {
		utils.Logger.Warn("failed to set cache", zap.Error(err))
	}

	c.JSON(http.StatusOK, model.FloorResponse{
		Success: true,
		Message: "处理成功",
		Data:    result,
	})
}

// GetByMD5 根据MD5获取默认参数下的检测结果
func (h *FloorHandler) GetByMD5(c *gin.Context) {
	md5 := c.Param("md5")
	if md5 == "" {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "MD5参数缺失",
		})
		return
	}

	result, err := h.redisService.GetFloorResult(c.Request.Context(), md5)
	if err != nil {
		utils.Logger.Error("failed to get floor result", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Message: "查询失败",
			Error:   err.Error(),
		})
		return
	}

	if result == nil {
		c.JSON(http.StatusNotFound, model.ErrorResponse{
			Success: false,
			Message: "未找到该图片的检测结果",
		})
		return
	}

	c.JSON(http.StatusOK, model.FloorResponse{
		Success: true,
		Message: "查询成功",
		Data:    result,
	})
}

// requestOptions 在默认参数上叠加表单参数 preset / tta / debug
func (h *FloorHandler) requestOptions(c *gin.Context) (floor.Options, string, error) {
	preset := strings.ToLower(strings.TrimSpace(c.PostForm("preset")))
	opts, err := h.floorService.DefaultOptions().WithPreset(preset)
	if err != nil {
		return floor.Options{}, "", err
	}
	if v := c.PostForm("tta"); v != "" {
		if opts.UseTTA, err = strconv.ParseBool(v); err != nil {
			return floor.Options{}, "", fmt.Errorf("tta: %w", err)
		}
	}
	if v := c.PostForm("debug"); v != "" {
		if opts.DebugOverlay, err = strconv.ParseBool(v); err != nil {
			return floor.Options{}, "", fmt.Errorf("debug: %w", err)
		}
	}
	return opts, preset, nil
}

func (h *FloorHandler) isAllowedType(contentType string) bool {
	for _, allowed := range h.cfg.Upload.AllowedTypes {
		if strings.EqualFold(contentType, allowed) {
			return true
		}
	}
	return false
}

func readUpload(file *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, limit+1))
}

// errorStatus 管线错误类型映射为 HTTP 状态码
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, floor.ErrInput):
		return http.StatusBadRequest, "图片无法解析"
	case errors.Is(err, floor.ErrModel):
		return http.StatusBadGateway, "模型推理失败"
	case errors.Is(err, service.ErrQueueFull):
		return http.StatusServiceUnavailable, "处理队列已满，请稍后重试"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout, "请求已取消"
	default:
		return http.StatusInternalServerError, "图片处理失败"
	}
}
