package upload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"eyedash/adapters/excel"
)

// FileEntry is one candidate workbook found in the source directory.
type FileEntry struct {
	Path string
	Size int64
}

// UploadResult is the per-file outcome of a client run. Skipped entries
// keep the server's reason alongside the filename.
type UploadResult struct {
	Saved   []string
	Skipped []SkippedFile
	Failed  []string
}

// Client posts workbook batches to an upload service.
type Client struct {
	BaseURL   string // e.g. "http://server:5000"
	Token     string
	BatchSize int64 // max combined bytes per batch
	HTTP      *http.Client
}

// NewClient builds a client with a sensible request timeout.
func NewClient(baseURL, token string, batchSize int64) *Client {
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Token:     token,
		BatchSize: batchSize,
		HTTP:      &http.Client{Timeout: 5 * time.Minute},
	}
}

// ScanDir walks dir recursively for uploadable workbooks, skipping
// Office lock files ("~$" prefix) and anything without an allowed
// extension.
func ScanDir(dir string) ([]FileEntry, error) {
	var files []FileEntry
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), "~$") {
			return nil
		}
		if !excel.AllowedExtensions[strings.ToLower(filepath.Ext(d.Name()))] {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, FileEntry{Path: path, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory %s: %w", dir, err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// PackBatches greedily groups files so each batch stays under maxBytes.
// A single file larger than the limit travels alone in its own batch and
// is left to the server's limit to accept or reject.
func PackBatches(files []FileEntry, maxBytes int64) [][]FileEntry {
	var batches [][]FileEntry
	var current []FileEntry
	var currentSize int64
	for _, f := range files {
		if f.Size > maxBytes {
			if len(current) > 0 {
				batches = append(batches, current)
				current, currentSize = nil, 0
			}
			batches = append(batches, []FileEntry{f})
			continue
		}
		if currentSize+f.Size > maxBytes && len(current) > 0 {
			batches = append(batches, current)
			current, currentSize = nil, 0
		}
		current = append(current, f)
		currentSize += f.Size
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}

// Run uploads everything in dir and returns the combined outcome. A
// failed batch is retried file-by-file so one bad workbook cannot sink
// its batch mates.
func (c *Client) Run(dir string) (*UploadResult, error) {
	files, err := ScanDir(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return &UploadResult{}, nil
	}

	result := &UploadResult{}
	for i, batch := range PackBatches(files, c.BatchSize) {
		log.Printf("[uploader] batch %d: %d file(s)", i+1, len(batch))
		if err := c.postBatch(batch, result); err == nil {
			continue
		} else if len(batch) == 1 {
			log.Printf("[uploader] batch %d failed: %v", i+1, err)
			result.Failed = append(result.Failed, batch[0].Path)
			continue
		} else {
			log.Printf("[uploader] batch %d failed, retrying file-by-file: %v", i+1, err)
		}
		for _, f := range batch {
			if err := c.postBatch([]FileEntry{f}, result); err != nil {
				log.Printf("[uploader] %s failed: %v", f.Path, err)
				result.Failed = append(result.Failed, f.Path)
			}
		}
	}
	return result, nil
}

// serverResponse mirrors the upload endpoint's JSON body.
type serverResponse struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Saved   []string      `json:"saved"`
	Skipped []SkippedFile `json:"skipped"`
}

// postBatch sends one multipart request and folds the server's
// saved/skipped lists into the running result.
func (c *Client) postBatch(batch []FileEntry, result *UploadResult) error {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for _, f := range batch {
		part, err := mw.CreateFormFile("files", filepath.Base(f.Path))
		if err != nil {
			return err
		}
		src, err := os.Open(f.Path)
		if err != nil {
			return err
		}
		_, err = io.Copy(part, src)
		src.Close()
		if err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, c.BaseURL+"/upload/"+c.Token, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var sr serverResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return fmt.Errorf("unreadable server response (HTTP %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("upload rejected (HTTP %d): %s", resp.StatusCode, sr.Message)
	}
	result.Saved = append(result.Saved, sr.Saved...)
	result.Skipped = append(result.Skipped, sr.Skipped...)
	return nil
}
