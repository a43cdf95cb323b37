package qrcode

import (
	"encoding/base64"
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	// ErrEmptyContent is returned when content string is empty or only whitespace.
	ErrEmptyContent = errors.New("content cannot be empty")
	// ErrFailedToGenerate is returned when the QR code generation fails.
	ErrFailedToGenerate = errors.New("failed to generate QR code")
)

// DefaultSize is the image side in pixels used when no positive size is given.
const DefaultSize = 256

const dataURLPrefix = "data:image/png;base64,"

// Level is the error-recovery level of the generated code.
type Level = skipqrcode.RecoveryLevel

const (
	LevelLow     Level = skipqrcode.Low
	LevelMedium  Level = skipqrcode.Medium
	LevelHigh    Level = skipqrcode.High
	LevelHighest Level = skipqrcode.Highest
)

// Generate creates a PNG QR code at medium recovery level.
func Generate(content string, size int) ([]byte, error) {
	return GenerateWithLevel(content, size, LevelMedium)
}

// GenerateWithLevel creates a PNG QR code with the given recovery level.
func GenerateWithLevel(content string, size int, level Level) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = DefaultSize
	}
	png, err := skipqrcode.Encode(content, level, size)
	if err != nil {
		return nil, errors.Join(ErrFailedToGenerate, err)
	}
	return png, nil
}

// GenerateDataURL returns the QR code as a "data:image/png;base64,..." string.
func GenerateDataURL(content string, size int) (string, error) {
	return GenerateDataURLWithLevel(content, size, LevelMedium)
}

// GenerateDataURLWithLevel is GenerateDataURL with an explicit recovery level.
func GenerateDataURLWithLevel(content string, size int, level Level) (string, error) {
	png, err := GenerateWithLevel(content, size, level)
	if err != nil {
		return "", err
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(png), nil
}

// DecodeDataURL returns the PNG bytes carried by a data URL produced by
// GenerateDataURL.
func DecodeDataURL(dataURL string) ([]byte, error) {
	if !strings.HasPrefix(dataURL, dataURLPrefix) {
		return nil, errors.New("not a PNG data URL")
	}
	return base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, dataURLPrefix))
}
