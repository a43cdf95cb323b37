// Package qrcode renders QR codes as PNG bytes or as base64 data URLs that a
// browser can drop straight into an <img> tag.
//
// It wraps github.com/skip2/go-qrcode with input validation, a default image
// size, and a configurable error-recovery level:
//
//	url, err := qrcode.GenerateDataURL("2@AbCd...", 256)
//
// Errors are package-level sentinels; compare them with errors.Is.
package qrcode
