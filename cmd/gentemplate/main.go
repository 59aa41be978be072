// Command gentemplate generates the Excel import template for seed sources.
// Usage: go run cmd/gentemplate/main.go
package main

import (
	"log"
	"os"

	"github.com/xuri/excelize/v2"
)

func main() {
	f := excelize.NewFile()

	// Rename Sheet1 to Seeds
	if err := f.SetSheetName("Sheet1", "Seeds"); err != nil {
		log.Fatal(err)
	}

	// Add headers
	headers := []string{"url", "reliability", "decay_class", "role", "themes"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			log.Fatal(err)
		}
		if err := f.SetCellValue("Seeds", cell, h); err != nil {
			log.Fatal(err)
		}
	}

	// Add example row 1
	row1 := []string{
		"https://go.dev/doc",
		"A",
		"slow",
		"authority",
		"golang, documentation",
	}
	for i, v := range row1 {
		cell, err := excelize.CoordinatesToCellName(i+1, 2)
		if err != nil {
			log.Fatal(err)
		}
		if err := f.SetCellValue("Seeds", cell, v); err != nil {
			log.Fatal(err)
		}
	}

	// Add example row 2
	row2 := []string{"https://news.ycombinator.com", "B", "fast", "hub", ""}
	for i, v := range row2 {
		cell, err := excelize.CoordinatesToCellName(i+1, 3)
		if err != nil {
			log.Fatal(err)
		}
		if err := f.SetCellValue("Seeds", cell, v); err != nil {
			log.Fatal(err)
		}
	}

	// Create Instructions sheet
	if _, err := f.NewSheet("Instructions"); err != nil {
		log.Fatal(err)
	}
	instructions := []string{
		"Column Descriptions:",
		"",
		"url - Required. Source URL (must start with http:// or https://)",
		"reliability - Optional. A/B/C (default: A)",
		"decay_class - Optional. fast/medium/slow (default: slow)",
		"role - Optional. hub/authority/unclassified (default: authority)",
		"themes - Optional. Comma-separated theme tags",
	}
	for i, line := range instructions {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			log.Fatal(err)
		}
		if err := f.SetCellValue("Instructions", cell, line); err != nil {
			log.Fatal(err)
		}
	}

	// Ensure examples directory exists
	if err := os.MkdirAll("examples", 0755); err != nil {
		log.Fatal(err)
	}

	// Save the file
	if err := f.SaveAs("examples/seed-import-template.xlsx"); err != nil {
		log.Fatal(err)
	}
	log.Println("Created examples/seed-import-template.xlsx")
}
