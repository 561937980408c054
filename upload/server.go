// Package upload implements the spreadsheet ingestion service: a
// token-guarded endpoint that field laptops post workbook files to, and
// the batch client that walks a local directory and uploads everything
// in size-bounded batches.
package upload

import (
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"eyedash/adapters/excel"
	"eyedash/internal/config"
)

// SkippedFile reports one file the upload endpoint did not save and why.
type SkippedFile struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// Server represents the upload web service
type Server struct {
	router *gin.Engine
	cfg    *config.Config
}

// NewServer creates the upload service around a validated configuration.
func NewServer(cfg *config.Config) *Server {
	s := &Server{
		router: gin.Default(),
		cfg:    cfg,
	}
	s.router.MaxMultipartMemory = cfg.Upload.MaxBytes
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.POST("/upload/:token", s.limitBody, s.handleUpload)
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// Handler exposes the router, used by httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the upload server
func (s *Server) Start() error {
	addr := ":" + s.cfg.Upload.Port
	log.Printf("Starting upload service on %s (dir %s, limit %d bytes)",
		addr, s.cfg.Upload.Dir, s.cfg.Upload.MaxBytes)
	return s.router.Run(addr)
}

// limitBody caps the request body so an oversized upload fails fast with
// 413 instead of filling the disk.
func (s *Server) limitBody(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.Upload.MaxBytes)
	c.Next()
}

// handleUpload receives one or more workbook files under the multipart
// field "files". Files with a disallowed extension are skipped, not
// rejected; the response reports both lists.
func (s *Server) handleUpload(c *gin.Context) {
	if c.Param("token") != s.cfg.Upload.Token {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "invalid token"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"status": "error", "message": "payload too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid multipart form"})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "no files provided"})
		return
	}

	saved := []string{}
	skipped := []SkippedFile{}
	for _, fh := range files {
		name := sanitizeFilename(fh.Filename)
		if name == "" {
			skipped = append(skipped, SkippedFile{Filename: fh.Filename, Reason: "empty filename"})
			continue
		}
		if !excel.AllowedExtensions[strings.ToLower(filepath.Ext(name))] {
			skipped = append(skipped, SkippedFile{Filename: fh.Filename, Reason: "extension not allowed"})
			continue
		}
		if err := s.saveFile(c, fh, name); err != nil {
			log.Printf("[upload] failed to save %s: %v", name, err)
			skipped = append(skipped, SkippedFile{Filename: fh.Filename, Reason: "save/replace failed: " + err.Error()})
			continue
		}
		log.Printf("[upload] saved %s (%d bytes)", name, fh.Size)
		saved = append(saved, name)
	}

	if len(saved) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "no uploadable files in request",
			"saved":   saved,
			"skipped": skipped,
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"status":  "ok",
		"saved":   saved,
		"skipped": skipped,
	})
}

// saveFile writes the upload to a temp file in the target directory and
// renames it into place, so a dashboard reload never sees a half-written
// workbook.
func (s *Server) saveFile(c *gin.Context, fh *multipart.FileHeader, name string) error {
	if err := os.MkdirAll(s.cfg.Upload.Dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.cfg.Upload.Dir, ".upload-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	tmp.Close()

	if err := c.SaveUploadedFile(fh, tmpPath); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, filepath.Join(s.cfg.Upload.Dir, name)); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// sanitizeFilename strips any path components from a client-supplied
// filename.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.TrimSpace(name)
	if name == "." || name == ".." {
		return ""
	}
	return name
}
