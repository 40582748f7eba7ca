package handlers

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"pricing-service/internal/middleware"
	"pricing-service/internal/models"
	"pricing-service/internal/repository"
)

// ImportTemplateColumn defines a column in the import template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"`
	Example     string `json:"example"`
}

// ImportTemplate defines the structure of an import template
type ImportTemplate struct {
	Entity     string                 `json:"entity"`
	Version    string                 `json:"version"`
	Columns    []ImportTemplateColumn `json:"columns"`
	SampleData []map[string]string    `json:"sampleData,omitempty"`
}

// ImportRowError represents an error for a specific row
type ImportRowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImportResult represents the result of an import operation
type ImportResult struct {
	Success      bool             `json:"success"`
	TotalRows    int              `json:"totalRows"`
	SuccessCount int              `json:"successCount"`
	FailedCount  int              `json:"failedCount"`
	SkippedCount int              `json:"skippedCount"`
	Errors       []ImportRowError `json:"errors,omitempty"`
	CreatedIDs   []string         `json:"createdIds,omitempty"`
}

// SupplierImporter bulk-creates suppliers
type SupplierImporter interface {
	ImportSuppliers(ctx context.Context, tenantID string, suppliers []*models.Supplier, skipDuplicates bool) (*repository.BulkCreateSupplierResult, error)
}

type ImportHandler struct {
	importer SupplierImporter
}

func NewImportHandler(importer SupplierImporter) *ImportHandler {
	return &ImportHandler{importer: importer}
}

// SupplierImportTemplate returns the template for suppliers
func SupplierImportTemplate() ImportTemplate {
	return ImportTemplate{
		Entity:  "suppliers",
		Version: "1.0",
		Columns: []ImportTemplateColumn{
			{Name: "name", Description: "Supplier name, unique per location", Required: true, Type: "string", Example: "Green Valley Farms"},
			{Name: "location", Description: "Store or district the supplier serves", Required: true, Type: "string", Example: "Kathmandu"},
			{Name: "email", Description: "Email address", Required: false, Type: "string", Example: "orders@greenvalley.com"},
			{Name: "phone", Description: "Phone number", Required: false, Type: "string", Example: "+977-1-5550123"},
			{Name: "reliability", Description: "Reliability score between 0 and 1", Required: false, Type: "number", Example: "0.92"},
			{Name: "status", Description: "Status (ACTIVE, INACTIVE)", Required: false, Type: "string", Example: "ACTIVE"},
		},
		SampleData: []map[string]string{
			{
				"name":        "Green Valley Farms",
				"location":    "Kathmandu",
				"email":       "orders@greenvalley.com",
				"phone":       "+977-1-5550123",
				"reliability": "0.92",
				"status":      "ACTIVE",
			},
			{
				"name":        "Daily Dairy Co.",
				"location":    "Lalitpur",
				"email":       "supply@dailydairy.com",
				"phone":       "",
				"reliability": "0.80",
				"status":      "ACTIVE",
			},
		},
	}
}

// GetSupplierImportTemplate returns the supplier import template
// GET /api/v1/stock/suppliers/import/template
func (h *ImportHandler) GetSupplierImportTemplate(c *gin.Context) {
	format := c.DefaultQuery("format", "json")
	template := SupplierImportTemplate()

	switch format {
	case "csv":
		h.generateCSVTemplate(c, template, "suppliers")
	case "xlsx":
		h.generateXLSXTemplate(c, template, "Suppliers")
	default:
		c.JSON(http.StatusOK, gin.H{"success": true, "template": template})
	}
}

func (h *ImportHandler) generateCSVTemplate(c *gin.Context, template ImportTemplate, entity string) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s_import_template.csv", entity))

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	headers := make([]string, len(template.Columns))
	for i, col := range template.Columns {
		headers[i] = col.Name
	}
	writer.Write(headers)

	for _, sample := range template.SampleData {
		row := make([]string, len(template.Columns))
		for i, col := range template.Columns {
			row[i] = sample[col.Name]
		}
		writer.Write(row)
	}
}

func (h *ImportHandler) generateXLSXTemplate(c *gin.Context, template ImportTemplate, sheetName string) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})

	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
	})

	for i, col := range template.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		headerText := col.Name
		if col.Required {
			headerText = col.Name + " *"
		}
		f.SetCellValue(sheetName, cell, headerText)

		if col.Required {
			f.SetCellStyle(sheetName, cell, cell, requiredStyle)
		} else {
			f.SetCellStyle(sheetName, cell, cell, headerStyle)
		}

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 22)
	}

	for rowIdx, sample := range template.SampleData {
		for colIdx, col := range template.Columns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, sample[col.Name])
		}
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s_import_template.xlsx", strings.ToLower(sheetName)))

	f.Write(c.Writer)
}

// ImportSuppliers imports suppliers from a CSV or Excel file
// POST /api/v1/stock/suppliers/import
func (h *ImportHandler) ImportSuppliers(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "FILE_REQUIRED", Message: "Please upload a CSV or Excel file"},
		})
		return
	}
	defer file.Close()

	skipDuplicates := c.DefaultPostForm("skipDuplicates", "false") == "true"
	validateOnly := c.DefaultPostForm("validateOnly", "false") == "true"

	rows, err := parseImportFile(file, header.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "PARSE_ERROR", Message: err.Error()},
		})
		return
	}

	if len(rows) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "EMPTY_FILE", Message: "The file contains no data rows"},
		})
		return
	}

	result := h.processSupplierRows(c.Request.Context(), tenantID, rows, skipDuplicates, validateOnly)
	c.JSON(http.StatusOK, result)
}

func parseImportFile(file io.Reader, filename string) ([]map[string]string, error) {
	name := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(name, ".csv"):
		return parseCSV(file)
	case strings.HasSuffix(name, ".xlsx"):
		return parseXLSX(file)
	}
	return nil, fmt.Errorf("only CSV and XLSX files are supported")
}

func normalizeHeaders(headers []string) {
	for i := range headers {
		headers[i] = strings.TrimSpace(strings.ToLower(headers[i]))
		headers[i] = strings.TrimSuffix(headers[i], " *")
	}
}

func parseCSV(file io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(file)

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	normalizeHeaders(headers)

	var rows []map[string]string
	lineNum := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading line %d: %w", lineNum+1, err)
		}

		row := make(map[string]string)
		for i, value := range record {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(value)
			}
		}
		row["_row"] = strconv.Itoa(lineNum + 1)
		rows = append(rows, row)
		lineNum++
	}

	return rows, nil
}

func parseXLSX(file io.Reader) ([]map[string]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	excelRows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}

	if len(excelRows) < 2 {
		return nil, fmt.Errorf("file must have a header row and at least one data row")
	}

	headers := excelRows[0]
	normalizeHeaders(headers)

	var rows []map[string]string
	for rowIdx, excelRow := range excelRows[1:] {
		row := make(map[string]string)
		for i, value := range excelRow {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(value)
			}
		}
		row["_row"] = strconv.Itoa(rowIdx + 2)
		rows = append(rows, row)
	}

	return rows, nil
}

// supplierFromRow validates one row. Errors are returned per column.
func supplierFromRow(tenantID string, row map[string]string, rowNum int) (*models.Supplier, []ImportRowError) {
	var errs []ImportRowError
	for _, col := range SupplierImportTemplate().Columns {
		if col.Required && row[col.Name] == "" {
			errs = append(errs, ImportRowError{
				Row:     rowNum,
				Column:  col.Name,
				Code:    "REQUIRED_FIELD",
				Message: fmt.Sprintf("Required field '%s' is empty", col.Name),
			})
		}
	}

	supplier := &models.Supplier{
		TenantID: tenantID,
		Name:     row["name"],
		Location: row["location"],
		Status:   models.SupplierStatusActive,
	}

	if row["email"] != "" {
		supplier.Email = strPtr(row["email"])
	}
	if row["phone"] != "" {
		supplier.Phone = strPtr(row["phone"])
	}
	if row["reliability"] != "" {
		val, err := strconv.ParseFloat(row["reliability"], 64)
		if err != nil || val < 0 || val > 1 {
			errs = append(errs, ImportRowError{
				Row:     rowNum,
				Column:  "reliability",
				Code:    "INVALID_VALUE",
				Message: "Reliability must be a number between 0 and 1",
			})
		} else {
			supplier.Reliability = val
		}
	}
	if row["status"] != "" {
		status := models.SupplierStatus(strings.ToUpper(row["status"]))
		if status != models.SupplierStatusActive && status != models.SupplierStatusInactive {
			errs = append(errs, ImportRowError{
				Row:     rowNum,
				Column:  "status",
				Code:    "INVALID_VALUE",
				Message: "Status must be ACTIVE or INACTIVE",
			})
		} else {
			supplier.Status = status
		}
	}

	return supplier, errs
}

func (h *ImportHandler) processSupplierRows(ctx context.Context, tenantID string, rows []map[string]string, skipDuplicates, validateOnly bool) *ImportResult {
	result := &ImportResult{
		TotalRows:  len(rows),
		Errors:     make([]ImportRowError, 0),
		CreatedIDs: make([]string, 0),
	}

	suppliers := make([]*models.Supplier, 0, len(rows))
	// Index into rows for each accepted supplier
	sourceRows := make([]int, 0, len(rows))

	for _, row := range rows {
		rowNum, _ := strconv.Atoi(row["_row"])
		supplier, errs := supplierFromRow(tenantID, row, rowNum)
		if len(errs) > 0 {
			result.Errors = append(result.Errors, errs...)
			continue
		}
		suppliers = append(suppliers, supplier)
		sourceRows = append(sourceRows, rowNum)
	}

	if validateOnly {
		result.Success = len(result.Errors) == 0
		result.SuccessCount = len(suppliers)
		result.FailedCount = result.TotalRows - len(suppliers)
		return result
	}

	if len(suppliers) == 0 {
		result.Success = false
		result.FailedCount = result.TotalRows
		return result
	}

	bulkResult, err := h.importer.ImportSuppliers(ctx, tenantID, suppliers, skipDuplicates)
	if err != nil && (bulkResult == nil || bulkResult.Success == 0) {
		result.Success = false
		if bulkResult != nil {
			appendBulkErrors(result, bulkResult, sourceRows)
		}
		result.Errors = append(result.Errors, ImportRowError{
			Row:     0,
			Code:    "BULK_CREATE_FAILED",
			Message: err.Error(),
		})
		result.FailedCount = result.TotalRows
		return result
	}

	for _, sup := range bulkResult.Created {
		result.CreatedIDs = append(result.CreatedIDs, sup.ID.String())
	}
	appendBulkErrors(result, bulkResult, sourceRows)

	result.Success = bulkResult.Success > 0
	result.SuccessCount = bulkResult.Success
	result.SkippedCount = bulkResult.Skipped
	result.FailedCount = bulkResult.Failed + (result.TotalRows - len(suppliers))

	return result
}

func appendBulkErrors(result *ImportResult, bulkResult *repository.BulkCreateSupplierResult, sourceRows []int) {
	for _, bulkErr := range bulkResult.Errors {
		rowNum := 0
		if bulkErr.Index < len(sourceRows) {
			rowNum = sourceRows[bulkErr.Index]
		}
		result.Errors = append(result.Errors, ImportRowError{
			Row:     rowNum,
			Code:    bulkErr.Code,
			Message: bulkErr.Message,
		})
	}
}

func strPtr(s string) *string {
	return &s
}
