// Command uploader batch-uploads every workbook under a directory to an
// upload service, packing files into size-bounded batches.
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"eyedash/upload"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	var (
		dir     = flag.String("dir", ".", "directory containing workbook files (walked recursively)")
		url     = flag.String("url", envOr("UPLOAD_SERVER", "http://localhost:5000"), "upload service base URL")
		token   = flag.String("token", os.Getenv("UPLOAD_TOKEN"), "32-character upload token")
		batchMB = flag.Int64("max-batch-mb", 20, "max combined megabytes per batch")
		timeout = flag.Duration("timeout", 5*time.Minute, "per-request timeout")
		dryRun  = flag.Bool("dry-run", false, "list the planned batches without uploading")
	)
	flag.Parse()

	if *dryRun {
		files, err := upload.ScanDir(*dir)
		if err != nil {
			log.Fatalf("Scan failed: %v", err)
		}
		for i, batch := range upload.PackBatches(files, *batchMB<<20) {
			var total int64
			for _, f := range batch {
				total += f.Size
			}
			log.Printf("batch %d (%d bytes):", i+1, total)
			for _, f := range batch {
				log.Printf("  %s (%d bytes)", f.Path, f.Size)
			}
		}
		return
	}

	if len(*token) != 32 {
		log.Fatal("token must be exactly 32 characters (flag -token or env UPLOAD_TOKEN)")
	}

	client := upload.NewClient(*url, *token, *batchMB<<20)
	client.HTTP.Timeout = *timeout
	result, err := client.Run(*dir)
	if err != nil {
		log.Fatalf("Upload run failed: %v", err)
	}

	log.Printf("Upload complete: %d saved, %d skipped, %d failed",
		len(result.Saved), len(result.Skipped), len(result.Failed))
	for _, sk := range result.Skipped {
		log.Printf("  skipped: %s (%s)", sk.Filename, sk.Reason)
	}
	for _, f := range result.Failed {
		log.Printf("  failed: %s", f)
	}
	if len(result.Failed) > 0 {
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
