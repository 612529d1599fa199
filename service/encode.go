package service

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
)

const pngDataURLPrefix = "data:image/png;base64,"

// encodePNGDataURL 将图像编码为 PNG data URL
func encodePNGDataURL(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return pngDataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
