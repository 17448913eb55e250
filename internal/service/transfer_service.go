package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"routine-tracker/internal/model"
	"routine-tracker/internal/routine"
)

// TemplateRecord is a template as written to an export document.
type TemplateRecord struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Category   string   `json:"category"`
	RepeatDays []int    `json:"repeatDays"`
	Hour       *int     `json:"hour,omitempty"`
	Duration   *float64 `json:"duration,omitempty"`
}

// OneOffRecord is a one-off task as written to an export document.
type OneOffRecord struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Date     string   `json:"date"`
	Hour     *int     `json:"hour,omitempty"`
	Duration *float64 `json:"duration,omitempty"`
}

// Document is the full backup format. Missing sections are skipped on import.
type Document struct {
	Templates   []TemplateRecord                  `json:"templates"`
	OneOffs     []OneOffRecord                    `json:"oneoffs"`
	Completions routine.Ledger                    `json:"completions"`
	Categories  map[string]routine.CategoryConfig `json:"categories"`
	ExportDate  string                            `json:"exportDate"`
}

// ImportResult counts what an import wrote.
type ImportResult struct {
	Templates          int
	OneOffs            int
	Categories         int
	Completions        int
	SkippedCompletions int
	Skipped            int
}

// TransferService exports and imports the whole data set as JSON.
type TransferService struct {
	templates  TemplateStore
	oneoffs    OneOffStore
	ledger     LedgerStore
	categories CategoryStore
}

func NewTransferService(templates TemplateStore, oneoffs OneOffStore, ledger LedgerStore, categories CategoryStore) *TransferService {
	return &TransferService{templates: templates, oneoffs: oneoffs, ledger: ledger, categories: categories}
}

// Snapshot collects every collection into a Document stamped with now.
func (s *TransferService) Snapshot(ctx context.Context, now time.Time) (Document, error) {
	tpls, err := s.templates.List(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("export templates: %w", err)
	}
	oneoffs, err := s.oneoffs.List(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("export oneoffs: %w", err)
	}
	ledger, err := s.ledger.ListAll(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("export completions: %w", err)
	}
	custom, err := s.categories.ListCustom(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("export categories: %w", err)
	}

	doc := Document{
		Templates:   make([]TemplateRecord, 0, len(tpls)),
		OneOffs:     make([]OneOffRecord, 0, len(oneoffs)),
		Completions: ledger.Compact(),
		Categories:  custom,
		ExportDate:  now.UTC().Format(time.RFC3339),
	}
	for _, t := range tpls {
		doc.Templates = append(doc.Templates, TemplateRecord{
			ID: t.ID, Title: t.Title, Category: t.Category,
			RepeatDays: t.RepeatDays, Hour: t.Hour, Duration: t.Duration,
		})
	}
	for _, o := range oneoffs {
		doc.OneOffs = append(doc.OneOffs, OneOffRecord{
			ID: o.ID, Title: o.Title, Category: o.Category,
			Date: o.Date, Hour: o.Hour, Duration: o.Duration,
		})
	}
	return doc, nil
}

// Export writes the indented JSON document to w.
func (s *TransferService) Export(ctx context.Context, w io.Writer, now time.Time) error {
	doc, err := s.Snapshot(ctx, now)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	log.Printf("[info] exported templates=%d oneoffs=%d completions=%d categories=%d",
		len(doc.Templates), len(doc.OneOffs), len(doc.Completions), len(doc.Categories))
	return nil
}

// Import reads a document from r and applies it.
func (s *TransferService) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return ImportResult{}, fmt.Errorf("%w: %v", ErrImportFailed, err)
	}
	return s.Apply(ctx, doc)
}

// Apply writes doc section by section. Records keep their ids so ledger keys
// stay bound to their sources. Earlier sections are not rolled back when a
// later one fails.
func (s *TransferService) Apply(ctx context.Context, doc Document) (ImportResult, error) {
	var res ImportResult

	for _, rec := range doc.Templates {
		days := make([]time.Weekday, 0, len(rec.RepeatDays))
		for _, d := range rec.RepeatDays {
			days = append(days, time.Weekday(d))
		}
		row, err := templateRow(TemplateInput{
			Title: rec.Title, Category: rec.Category,
			RepeatDays: days, Hour: rec.Hour, Duration: rec.Duration,
		})
		if err != nil {
			log.Printf("import: skip template %q: %v", rec.ID, err)
			res.Skipped++
			continue
		}
		row.ID = rec.ID
		if err := s.templates.Upsert(ctx, &row); err != nil {
			return res, fmt.Errorf("%w: template %s: %v", ErrImportFailed, rec.ID, err)
		}
		res.Templates++
	}

	for _, rec := range doc.OneOffs {
		title, category, err := cleanTitleCategory(rec.Title, rec.Category)
		if err == nil {
			_, err = routine.ParseDate(rec.Date)
		}
		var hour int
		var duration float64
		if err == nil {
			hour, duration, err = schedule(rec.Hour, rec.Duration)
		}
		if err != nil {
			log.Printf("import: skip oneoff %q: %v", rec.ID, err)
			res.Skipped++
			continue
		}
		row := model.OneOff{ID: rec.ID, Title: title, Category: category, Date: rec.Date, Hour: &hour, Duration: &duration}
		if err := s.oneoffs.Upsert(ctx, &row); err != nil {
			return res, fmt.Errorf("%w: oneoff %s: %v", ErrImportFailed, rec.ID, err)
		}
		res.OneOffs++
	}

	if doc.Completions != nil {
		bulk, err := s.ledger.BulkReplace(ctx, doc.Completions)
		if err != nil {
			return res, fmt.Errorf("%w: %v", ErrImportFailed, err)
		}
		res.Completions = bulk.Imported
		res.SkippedCompletions = bulk.Skipped
	}

	for key, cfg := range doc.Categories {
		if routine.IsDefaultCategory(key) || key == "" {
			res.Skipped++
			continue
		}
		created, err := s.categories.CreateIfMissing(ctx, key, cfg)
		if err != nil {
			return res, fmt.Errorf("%w: category %s: %v", ErrImportFailed, key, err)
		}
		if created {
			res.Categories++
		}
	}

	log.Printf("[info] imported templates=%d oneoffs=%d completions=%d categories=%d skipped=%d",
		res.Templates, res.OneOffs, res.Completions, res.Categories, res.Skipped+res.SkippedCompletions)
	return res, nil
}
