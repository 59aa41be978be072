// Package importer loads curated seed sources from Excel spreadsheets.
package importer

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jonesrussell/gocatalog/internal/logger"
	"github.com/jonesrussell/gocatalog/internal/models"
	"github.com/jonesrussell/gocatalog/internal/promotion"
	"github.com/jonesrussell/gocatalog/internal/urlnorm"
)

// Column indices for the seed spreadsheet (0-based).
const (
	colURL         = 0 // Column A
	colReliability = 1 // Column B
	colDecayClass  = 2 // Column C
	colRole        = 3 // Column D
	colThemes      = 4 // Column E

	sheetName = "Seeds"
)

// SeedRow represents a parsed row from the seed spreadsheet.
type SeedRow struct {
	Row         int // Excel row number (for error reporting)
	URL         string
	Reliability string
	DecayClass  string
	Role        string
	Themes      string // Comma-separated
}

// ImportError represents a validation error for a specific row.
type ImportError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ImportResult summarizes one import run.
type ImportResult struct {
	Seeded  int           `json:"seeded"`
	Updated int           `json:"updated"`
	Errors  []ImportError `json:"errors,omitempty"`
}

// Seeder is the catalog seeding operation the importer drives.
type Seeder interface {
	Seed(ctx context.Context, seed promotion.SeedSource) (*models.CatalogSource, bool, error)
}

type ExcelImporter struct {
	seeder Seeder
	logger logger.Logger
}

func NewExcelImporter(seeder Seeder, log logger.Logger) *ExcelImporter {
	return &ExcelImporter{seeder: seeder, logger: log}
}

// ValidateRow validates a single row and returns an error message or empty string.
func ValidateRow(row SeedRow) string {
	if strings.TrimSpace(row.URL) == "" {
		return "url is required"
	}
	if err := urlnorm.Validate(row.URL); err != nil {
		return fmt.Sprintf("invalid url: %v", err)
	}
	if row.Reliability != "" && !models.Reliability(row.Reliability).Valid() {
		return "reliability must be A, B, or C"
	}
	if row.DecayClass != "" && !models.DecayClass(row.DecayClass).Valid() {
		return "decay_class must be fast, medium, or slow"
	}
	if row.Role != "" && !models.Role(row.Role).Valid() {
		return "role must be hub, authority, or unclassified"
	}
	return ""
}

// ParseSeedFile reads the Seeds sheet into rows. The header row and blank
// lines are skipped.
func ParseSeedFile(r io.Reader) ([]SeedRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheetName, err)
	}

	parsed := make([]SeedRow, 0, len(rows))
	for i, cells := range rows {
		if i == 0 {
			continue // header
		}
		row := SeedRow{
			Row: i + 1,
			URL: strings.TrimSpace(cell(cells, colURL)),
		}
		if row.URL == "" {
			continue
		}
		row.Reliability = strings.ToUpper(strings.TrimSpace(cell(cells, colReliability)))
		row.DecayClass = strings.ToLower(strings.TrimSpace(cell(cells, colDecayClass)))
		row.Role = strings.ToLower(strings.TrimSpace(cell(cells, colRole)))
		row.Themes = strings.TrimSpace(cell(cells, colThemes))
		parsed = append(parsed, row)
	}

	return parsed, nil
}

// Import parses the spreadsheet and seeds every valid row. Invalid rows are
// reported per-row and never abort the run. Rows leave reliability, decay
// class, and role blank to accept the defaults (A, slow, authority): seeds
// are imported as trusted ground truth.
func (im *ExcelImporter) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	rows, err := ParseSeedFile(r)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	for _, row := range rows {
		if msg := ValidateRow(row); msg != "" {
			result.Errors = append(result.Errors, ImportError{Row: row.Row, Error: msg})
			continue
		}

		seed := promotion.SeedSource{
			URL:         row.URL,
			Reliability: reliabilityOrDefault(row.Reliability),
			DecayClass:  decayClassOrDefault(row.DecayClass),
			Role:        roleOrDefault(row.Role),
			Themes:      splitThemes(row.Themes),
		}

		_, created, seedErr := im.seeder.Seed(ctx, seed)
		if seedErr != nil {
			result.Errors = append(result.Errors, ImportError{Row: row.Row, Error: seedErr.Error()})
			continue
		}
		if created {
			result.Seeded++
		} else {
			result.Updated++
		}
	}

	im.logger.Info("Seed import complete",
		logger.Int("seeded", result.Seeded),
		logger.Int("updated", result.Updated),
		logger.Int("errors", len(result.Errors)),
	)

	return result, nil
}

func cell(cells []string, idx int) string {
	if idx < len(cells) {
		return cells[idx]
	}
	return ""
}

func reliabilityOrDefault(raw string) models.Reliability {
	if raw == "" {
		return models.ReliabilityA
	}
	return models.Reliability(raw)
}

func decayClassOrDefault(raw string) models.DecayClass {
	if raw == "" {
		return models.DecaySlow
	}
	return models.DecayClass(raw)
}

func roleOrDefault(raw string) models.Role {
	if raw == "" {
		return models.RoleAuthority
	}
	return models.Role(raw)
}

func splitThemes(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	themes := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.ToLower(strings.TrimSpace(p)); t != "" {
			themes = append(themes, t)
		}
	}
	return themes
}
