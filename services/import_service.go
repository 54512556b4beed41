package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ImportResult counts rows applied and rows skipped as malformed.
type ImportResult struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
}

type importColumns struct {
	name, location, size, count int
}

type ImportService struct {
	db *gorm.DB
}

func NewImportService(db *gorm.DB) *ImportService {
	return &ImportService{db: db}
}

// ImportFile loads restaurants and tables from a .csv or .xlsx file.
// A missing file yields ErrSourceNotFound.
func (s *ImportService) ImportFile(ctx context.Context, path string) (ImportResult, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return ImportResult{}, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
	}
	if err != nil {
		return ImportResult{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if IsWorkbook(path) {
		return s.ImportXLSX(ctx, f)
	}
	return s.ImportCSV(ctx, f)
}

// IsWorkbook reports whether a file name should be read as .xlsx.
func IsWorkbook(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".xlsx")
}

// ImportCSV reads record by record so one unparsable line is skipped
// instead of failing the whole file.
func (s *ImportService) ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	var (
		rows       [][]string
		unparsable int
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			if len(rows) == 0 {
				return ImportResult{}, Validation("Unreadable CSV header", map[string]any{"file": err.Error()})
			}
			utils.InfoLogger.WithField("line", parseErr.StartLine).Warn("Skipping unparsable import row")
			unparsable++
			continue
		}
		if err != nil {
			return ImportResult{}, Validation("Unreadable CSV file", map[string]any{"file": err.Error()})
		}
		rows = append(rows, record)
	}

	result, err := s.importRows(ctx, rows)
	result.Skipped += unparsable
	return result, err
}

func (s *ImportService) ImportXLSX(ctx context.Context, r io.Reader) (ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return ImportResult{}, Validation("Unreadable workbook", map[string]any{"file": err.Error()})
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ImportResult{}, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return ImportResult{}, Validation("Unreadable workbook", map[string]any{"file": err.Error()})
	}
	return s.importRows(ctx, rows)
}

func (s *ImportService) importRows(ctx context.Context, rows [][]string) (ImportResult, error) {
	var result ImportResult
	if len(rows) == 0 {
		return result, nil
	}

	cols := importColumns{
		name:     headerIndex(rows[0], "restaurant_name", "restaurant", "name"),
		location: headerIndex(rows[0], "location"),
		size:     headerIndex(rows[0], "table_size", "size"),
		count:    headerIndex(rows[0], "table_count", "count", "quantity"),
	}
	if cols.name < 0 || cols.location < 0 || cols.size < 0 || cols.count < 0 {
		return result, Validation("Missing columns", map[string]any{
			"required": "restaurant_name, location, table_size, table_count",
		})
	}

	for i, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		line := i + 2
		name := cell(row, cols.name)
		location := cell(row, cols.location)
		if name == "" || location == "" {
			result.Skipped++
			continue
		}
		size, err1 := strconv.Atoi(cell(row, cols.size))
		count, err2 := strconv.Atoi(cell(row, cols.count))
		if err1 != nil || err2 != nil || validateTable(size, count) != nil {
			utils.InfoLogger.WithField("line", line).Warn("Skipping malformed import row")
			result.Skipped++
			continue
		}

		if err := s.upsertRow(ctx, name, location, size, count); err != nil {
			utils.ErrorLogger.WithFields(logrus.Fields{"line": line, "restaurant": name}).Errorf("Error importing row: %v", err)
			result.Skipped++
			continue
		}
		result.Processed++
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"processed": result.Processed,
		"skipped":   result.Skipped,
	}).Info("Import finished")
	return result, nil
}

// upsertRow finds or creates the restaurant by name and raises the table
// quantity to count when it is lower. Quantities never go down here.
func (s *ImportService) upsertRow(ctx context.Context, name, location string, size, count int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var restaurant models.Restaurant
		err := tx.Where("name = ?", name).First(&restaurant).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			restaurant = models.Restaurant{Name: name, Location: location, IsActive: true}
			err = tx.Create(&restaurant).Error
		}
		if err != nil {
			return err
		}

		var table models.Table
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("restaurant_id = ? AND size = ?", restaurant.ID, size).
			First(&table).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			table = models.Table{RestaurantID: restaurant.ID, Size: size, Quantity: count, IsActive: true}
			return tx.Create(&table).Error
		}
		if err != nil {
			return err
		}
		if table.Quantity >= count {
			return nil
		}
		return tx.Model(&table).Update("quantity", count).Error
	})
}

func headerIndex(headers []string, candidates ...string) int {
	for i, h := range headers {
		hl := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		for _, c := range candidates {
			if hl == c {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
