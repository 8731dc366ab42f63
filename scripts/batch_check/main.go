package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Boatkungg/teerute-tpat13-checker/internal/models"
	"github.com/Boatkungg/teerute-tpat13-checker/internal/repository"
	"github.com/Boatkungg/teerute-tpat13-checker/internal/service"
	"github.com/Boatkungg/teerute-tpat13-checker/pkg/config"
	"github.com/Boatkungg/teerute-tpat13-checker/pkg/export"
	"github.com/Boatkungg/teerute-tpat13-checker/pkg/logger"
	"github.com/Boatkungg/teerute-tpat13-checker/pkg/spreadsheet"
)

type renderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// batch_check merges answer sheets from disk and optionally scores them without the HTTP server.
//
//	go run ./scripts/batch_check -key key.xlsx -out scores.xlsx room1.csv room2.xlsx
func main() {
	var (
		keyPath    string
		outPath    string
		mergedPath string
		reward     float64
		penalty    float64
	)

	flag.StringVar(&keyPath, "key", "", "Answer key file (csv or xlsx); omit to only merge")
	flag.StringVar(&outPath, "out", "", "Score report path (.csv, .xlsx or .pdf)")
	flag.StringVar(&mergedPath, "merged", "", "Merged table path (.csv, .xlsx or .pdf)")
	flag.Float64Var(&reward, "reward", -1, "Reward per correct selection; negative uses 100 / answer slots")
	flag.Float64Var(&penalty, "penalty", 1, "Penalty per wrong or duplicate selection; positive uses the configured default")
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatal("usage: batch_check [flags] sheet1.csv [sheet2.xlsx ...]")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg.Log.Format = "console"
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx := context.Background()
	store := service.NewCacheService(repository.NewMemoryRepository(), nil, cfg.Results.TTL, logr)

	tables := make([]models.RawTable, 0, flag.NArg())
	for _, path := range flag.Args() {
		table, err := readTable(path)
		if err != nil {
			logr.Fatal("failed to read answer sheet", zap.String("file", path), zap.Error(err))
		}
		tables = append(tables, table)
	}

	mergeSvc := service.NewMergeService(store, nil, cfg.Results.TTL, service.MergeOptions{IDColumn: cfg.Columns.StudentID}, logr)
	merged, err := mergeSvc.Merge(ctx, tables, service.MergeOptions{})
	if err != nil {
		logr.Fatal("merge failed", zap.Error(err))
	}
	fmt.Printf("Merged %d files: %d students, %d questions\n", len(tables), merged.Table.StudentCount(), merged.Table.QuestionCount())

	if mergedPath != "" {
		if err := writeDataset(mergedPath, service.MergeDataset(merged)); err != nil {
			logr.Fatal("failed to write merged table", zap.Error(err))
		}
	}
	if keyPath == "" {
		return
	}

	key, err := readTable(keyPath)
	if err != nil {
		logr.Fatal("failed to read answer key", zap.String("file", keyPath), zap.Error(err))
	}

	codec := service.NewAnswerCodec(service.RangeUnchecked)
	if cfg.Scoring.StrictSelections {
		codec = service.NewAnswerCodec(service.RangeReject)
	}
	duplicates := service.DuplicateOverwrite
	if cfg.Scoring.RejectDuplicateQuestions {
		duplicates = service.DuplicateReject
	}
	scoreSvc := service.NewScoreService(mergeSvc, store, nil, service.ScoringConfig{
		DefaultPenalty: cfg.Scoring.DefaultPenalty,
		Codec:          codec,
		Duplicates:     duplicates,
		QuestionColumn: cfg.Columns.QuestionNumber,
		ResultTTL:      cfg.Results.TTL,
	}, validator.New(), logr)

	req := service.ScoreRequest{MergeID: merged.ID, AnswerKey: key}
	if reward >= 0 {
		req.Reward = &reward
	}
	if penalty <= 0 {
		req.Penalty = &penalty
	}
	scored, err := scoreSvc.Score(ctx, req)
	if err != nil {
		logr.Fatal("scoring failed", zap.Error(err))
	}

	summary := scored.Result.Summary
	fmt.Printf("Scored %d students: mean %.2f, median %.2f, min %.2f, max %.2f\n",
		summary.Count, summary.Mean, summary.Median, summary.Min, summary.Max)
	if n := scored.Result.UnencodedSelections; n > 0 {
		fmt.Printf("Ignored %d selections that could not be encoded\n", n)
	}

	if outPath == "" {
		for _, row := range scored.Result.Rows {
			fmt.Printf("%s\t%g\n", row.StudentID, row.TotalScore)
		}
		return
	}
	if err := writeDataset(outPath, service.ScoreDataset(scored)); err != nil {
		logr.Fatal("failed to write score report", zap.Error(err))
	}
}

func readTable(path string) (models.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.RawTable{}, err
	}
	defer f.Close()
	return spreadsheet.Parse(filepath.Base(path), f)
}

func writeDataset(path string, data export.Dataset) error {
	renderers := map[models.ExportFormat]renderer{
		models.ExportFormatCSV:  export.NewCSVExporter(),
		models.ExportFormatXLSX: export.NewXLSXExporter(),
		models.ExportFormatPDF:  export.NewPDFExporter(),
	}
	format := service.FormatFromFilename(path)
	r, ok := renderers[format]
	if !ok {
		return fmt.Errorf("unsupported output format %q", strings.TrimPrefix(filepath.Ext(path), "."))
	}
	payload, err := r.Render(data)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
