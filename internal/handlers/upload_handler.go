package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Допустимые расширения медиафайлов жалобы
var allowedMediaExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".mp4":  true,
	".mov":  true,
}

const maxMediaSize = 25 << 20 // 25 МБ

// UploadMedia сохраняет медиафайл жалобы и возвращает URL для поля
// media_url при ее подаче
func UploadMedia(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is missing"})
		return
	}

	if file.Size > maxMediaSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is too large"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedMediaExtensions[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported file type"})
		return
	}

	newFileName := fmt.Sprintf("%s%s", uuid.New().String(), ext)

	// Поддиректория по дате, чтобы не копить все файлы в одной папке
	now := time.Now()
	dateDir := filepath.Join("uploads", now.Format("2006/01/02"))
	if err := os.MkdirAll(dateDir, 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}

	filePath := filepath.Join(dateDir, newFileName)

	if err := c.SaveUploadedFile(file, filePath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}

	fileURL := fmt.Sprintf("/uploads/%s/%s", now.Format("2006/01/02"), newFileName)
	c.JSON(http.StatusOK, gin.H{
		"url": fileURL,
	})
}
