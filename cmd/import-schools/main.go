package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/kgadmissions/enquiry-api/internal/repository"
	"github.com/kgadmissions/enquiry-api/internal/service"
	"github.com/kgadmissions/enquiry-api/pkg/config"
	"github.com/kgadmissions/enquiry-api/pkg/database"
	"github.com/kgadmissions/enquiry-api/pkg/logger"
)

// import-schools replaces the school reference directory from a CSV file
// with rows [serial, district, block, school, address, pincode].
func main() {
	file := flag.String("file", "school_blocks.csv", "path to the school directory CSV")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := database.EnsureSchema(ctx, db); err != nil {
		logr.Sugar().Fatalw("failed to prepare schema", "error", err)
	}

	f, err := os.Open(*file)
	if err != nil {
		logr.Sugar().Fatalw("failed to open csv", "file", *file, "error", err)
	}
	defer f.Close()

	svc := service.NewSchoolService(repository.NewSchoolRepository(db), logr)
	result, err := svc.Import(ctx, f)
	if err != nil {
		logr.Sugar().Fatalw("import failed", "error", err)
	}

	logr.Sugar().Infow("import finished",
		"file", *file,
		"read", result.Read,
		"skipped", result.Skipped,
		"inserted", result.Inserted)
}
