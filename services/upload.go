package services

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

const (
	MaxUploadSize = 5 * 1024 * 1024 // 5MB
)

var (
	ErrFileTooLarge    = fmt.Errorf("file size exceeds maximum allowed size of %dMB", MaxUploadSize/(1024*1024))
	ErrFileTypeInvalid = errors.New("file type not allowed")
)

var (
	identityDocumentTypes = map[string][]string{
		".pdf":  {"application/pdf"},
		".jpg":  {"image/jpeg"},
		".jpeg": {"image/jpeg"},
		".png":  {"image/png"},
	}
	photoTypes = map[string][]string{
		".jpg":  {"image/jpeg"},
		".jpeg": {"image/jpeg"},
		".png":  {"image/png"},
		".webp": {"image/webp"},
	}
)

// ValidateIdentityDocument accepts PDF, JPEG and PNG scans up to MaxUploadSize
func ValidateIdentityDocument(fileHeader *multipart.FileHeader) error {
	return validateUpload(fileHeader, identityDocumentTypes)
}

// ValidatePhoto accepts JPEG, PNG and WebP images up to MaxUploadSize
func ValidatePhoto(fileHeader *multipart.FileHeader) error {
	return validateUpload(fileHeader, photoTypes)
}

// validateUpload checks size, extension and sniffed content type
func validateUpload(fileHeader *multipart.FileHeader, allowed map[string][]string) error {
	if fileHeader.Size > MaxUploadSize {
		return ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	types, ok := allowed[ext]
	if !ok {
		return ErrFileTypeInvalid
	}

	file, err := fileHeader.Open()
	if err != nil {
		return fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file content: %w", err)
	}

	detected := http.DetectContentType(buffer[:n])
	for _, t := range types {
		if strings.HasPrefix(detected, t) {
			return nil
		}
	}
	return ErrFileTypeInvalid
}
