package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"i2cgo/pkg/catalog"
	"i2cgo/pkg/config"
	"i2cgo/pkg/model"
	"i2cgo/pkg/story"
)

// PhotoProcessor turns one stored upload into a record.
type PhotoProcessor interface {
	Process(ctx context.Context, path string) (model.PhotoRecord, error)
}

// StoryWriter generates the story and its hashtags.
type StoryWriter interface {
	CreateStory(ctx context.Context, req story.Request) (text, tone string, err error)
	CreateHashtags(ctx context.Context, text string) string
}

// Handler serves the catalog and pipeline endpoints.
type Handler struct {
	catalog   *catalog.Catalog
	processor PhotoProcessor
	writer    StoryWriter
	uploadDir string
	maxMemory int64
}

// NewHandler creates a Handler.
func NewHandler(cat *catalog.Catalog, p PhotoProcessor, w StoryWriter, cfg config.UploadConfig) *Handler {
	return &Handler{
		catalog:   cat,
		processor: p,
		writer:    w,
		uploadDir: cfg.Dir,
		maxMemory: int64(cfg.MaxMemory),
	}
}

// WritingStyles: GET /writing-styles/
func (h *Handler) WritingStyles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"styles": h.catalog.StyleNames()})
}

// WritingTones: GET /writing-tones/
// Returns key -> display label.
func (h *Handler) WritingTones(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tones": h.catalog.ToneLabels()})
}

// UploadImages: POST /upload-images/
// Multipart field "files". Photos are stored and processed one at a time, in order;
// the first failure aborts the whole batch.
func (h *Handler) UploadImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form: " + err.Error()})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files uploaded"})
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		slog.Error("Failed to create upload directory", "dir", h.uploadDir, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Remote calls run to completion even if the client goes away.
	ctx := context.WithoutCancel(c.Request.Context())

	records := make([]model.PhotoRecord, 0, len(files))
	for _, fh := range files {
		rec, err := h.storeAndProcess(ctx, c, fh)
		if err != nil {
			msg := fmt.Sprintf("이미지 %s 처리 중 오류 발생: %v", fh.Filename, err)
			slog.Error(msg)
			c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
			return
		}
		records = append(records, rec)
	}

	c.JSON(http.StatusOK, gin.H{"image_data": records})
}

func (h *Handler) storeAndProcess(ctx context.Context, c *gin.Context, fh *multipart.FileHeader) (model.PhotoRecord, error) {
	name := uploadName(fh.Filename)
	if name == "" {
		return model.PhotoRecord{}, errors.New("empty file name")
	}

	// Same name, last write wins.
	dst := filepath.Join(h.uploadDir, name)
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		return model.PhotoRecord{}, fmt.Errorf("save upload: %w", err)
	}

	rec, err := h.processor.Process(ctx, dst)
	if err != nil {
		return model.PhotoRecord{}, err
	}
	slog.Debug("Processed upload", "id", c.GetString(requestIDKey), "file", name, "caption_chars", len([]rune(rec.Caption)))
	return rec, nil
}

// uploadName strips any directory part a client sent with the file name.
func uploadName(filename string) string {
	name := filepath.Base(filepath.Clean("/" + filename))
	if name == "/" || name == "." {
		return ""
	}
	return name
}

// generateForm is the form body of POST /generate-content/.
type generateForm struct {
	ImageDataList string   `form:"image_data_list" binding:"required"`
	UserContext   string   `form:"user_context"`
	WritingStyle  string   `form:"writing_style" binding:"required"`
	WritingTone   string   `form:"writing_tone" binding:"required"`
	WritingLength int      `form:"writing_length" binding:"required"`
	Temperature   *float32 `form:"temperature" binding:"required"`
	UserInfo      string   `form:"user_info" binding:"required"`
}

// GenerateContent: POST /generate-content/
// Returns {story, writing_tone, hashtags} or {error}.
func (h *Handler) GenerateContent(c *gin.Context) {
	var form generateForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var records []model.PhotoRecord
	if err := json.Unmarshal([]byte(form.ImageDataList), &records); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image_data_list: " + err.Error()})
		return
	}

	var persona model.Persona
	if err := json.Unmarshal([]byte(form.UserInfo), &persona); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_info: " + err.Error()})
		return
	}

	// The selected tone always overrides whatever the client put in user_info.
	tone, _ := h.catalog.Tone(form.WritingTone)
	persona.WritingTone = form.WritingTone
	persona.WritingToneDescription = tone.Description

	slog.Info("Content generation started", "id", c.GetString(requestIDKey), "style", form.WritingStyle, "tone", form.WritingTone, "length", form.WritingLength, "temperature", *form.Temperature, "images", len(records))

	ctx := context.WithoutCancel(c.Request.Context())
	text, genTone, err := h.writer.CreateStory(ctx, story.Request{
		Records:     records,
		UserContext: form.UserContext,
		Style:       form.WritingStyle,
		Length:      form.WritingLength,
		Temperature: *form.Temperature,
		Persona:     persona,
	})
	if err != nil {
		slog.Error("콘텐츠 생성 중 오류 발생", "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, story.ErrUnknownStyle) || errors.Is(err, story.ErrInvalidLength) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	hashtags := h.writer.CreateHashtags(ctx, text)

	slog.Info("Content generation completed", "id", c.GetString(requestIDKey))
	c.JSON(http.StatusOK, gin.H{
		"story":        text,
		"writing_tone": genTone,
		"hashtags":     hashtags,
	})
}
