package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gallerydash/activity-bot/internal/config"
	"github.com/gallerydash/activity-bot/internal/ingest"
	"github.com/gallerydash/activity-bot/internal/models"
	"github.com/gallerydash/activity-bot/internal/source"
	"github.com/gallerydash/activity-bot/internal/storage"
	"github.com/go-resty/resty/v2"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// printNotifier routes reports to stdout instead of Teams/email.
type printNotifier struct{}

func (printNotifier) SendRunReport(report *models.RunReport) error {
	for _, w := range report.Windows {
		fmt.Printf("window %s: %d posts in range [%d, %d], %d identities, %d failures\n",
			w.WindowLabel, w.PostsFound, w.MinID, w.MaxID, w.Identities, w.Failures)
	}
	return nil
}

func (printNotifier) SendAbortAlert(alert *models.AbortAlert) error {
	fmt.Printf("ABORT at %s: %s\n", alert.WindowLabel, alert.Message)
	return nil
}

// Backfill re-ingests specific windows by hand, e.g. after a gate abort or to
// regenerate a corrupted artifact:
//
//	backfill -from 2025-01-01_09h -to 2025-01-01_12h [-upload]
//
// Without -upload, artifacts land in ./artifacts instead of blob storage.
func main() {
	from := flag.String("from", "", "first window label, e.g. 2025-01-01_09h")
	to := flag.String("to", "", "last window label (default: same as -from)")
	upload := flag.Bool("upload", false, "upload artifacts to blob storage instead of ./artifacts")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	logrus.SetLevel(logrus.WarnLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *from == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *to == "" {
		*to = *from
	}

	first, err := models.ParseWindowLabel(*from)
	if err != nil {
		log.Fatalf("Bad -from: %v", err)
	}
	last, err := models.ParseWindowLabel(*to)
	if err != nil {
		log.Fatalf("Bad -to: %v", err)
	}
	if last.Start.Before(first.Start) {
		log.Fatalf("-to is before -from")
	}

	var store storage.ArtifactStore
	if *upload {
		store, err = storage.NewBlobStore(cfg.StorageAccount, cfg.StorageContainer)
		if err != nil {
			log.Fatalf("Failed to initialize storage: %v", err)
		}
	} else {
		store, err = storage.NewDirStore("artifacts")
		if err != nil {
			log.Fatalf("Failed to initialize local store: %v", err)
		}
		fmt.Println("Writing artifacts to ./artifacts (use -upload for blob storage)")
	}

	galleryClient := source.NewClient(cfg.GalleryBaseURL, cfg.GalleryID, resty.New())
	service := ingest.NewService(cfg, galleryClient, store, printNotifier{})

	ctx := context.Background()
	for window := first; !window.Start.After(last.Start); window = window.Next() {
		started := time.Now()
		summary, err := service.RunWindow(ctx, window)
		if err != nil {
			log.Fatalf("Window %s failed: %v", window.Label(), err)
		}
		fmt.Printf("window %s: %d posts in range [%d, %d], %d identities, %d failures (%v)\n",
			summary.WindowLabel, summary.PostsFound, summary.MinID, summary.MaxID,
			summary.Identities, summary.Failures, time.Since(started).Round(time.Second))
	}
}
