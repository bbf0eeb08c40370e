package api

import (
	"fmt"
	"mime/multipart"
	"os"

	"github.com/gofiber/fiber/v2"
)

type tempUpload struct {
	path string
}

func (t tempUpload) cleanup() {
	os.Remove(t.path)
}

// saveTemp spools a multipart upload to a temporary file on disk.
func saveTemp(c *fiber.Ctx, fileHeader *multipart.FileHeader) (tempUpload, error) {
	f, err := os.CreateTemp("", "statement-*.pdf")
	if err != nil {
		return tempUpload{}, fmt.Errorf("creating temp file: %w", err)
	}
	path := f.Name()
	f.Close()

	if err := c.SaveFile(fileHeader, path); err != nil {
		os.Remove(path)
		return tempUpload{}, fmt.Errorf("saving upload: %w", err)
	}
	return tempUpload{path: path}, nil
}
