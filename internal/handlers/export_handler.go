package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"pricing-service/internal/middleware"
	"pricing-service/internal/models"
)

var priceHistoryColumns = []string{"#", "Date", "Price", "Reason"}

// ExportPriceHistory downloads a product's price history as XLSX (default) or CSV
// @Summary Export price history
// @Tags dynamic-pricing
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param productId path string true "Product ID"
// @Param format query string false "xlsx or csv" default(xlsx)
// @Success 200 {file} file
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /dynamic-pricing/price-history/{productId}/export [get]
func (h *PricingHandler) ExportPriceHistory(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		invalidID(c, "product")
		return
	}

	format := c.DefaultQuery("format", "xlsx")
	if format != "xlsx" && format != "csv" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "VALIDATION_ERROR", Message: "format must be xlsx or csv"},
		})
		return
	}

	history, err := h.service.GetPriceHistory(c.Request.Context(), tenantID, productID)
	if err != nil {
		respondError(c, err, "Failed to retrieve price history", h.exposeErrors)
		return
	}

	filename := fmt.Sprintf("price_history_%s", productID)
	if format == "csv" {
		writePriceHistoryCSV(c, history, filename)
		return
	}
	if err := writePriceHistoryXLSX(c, history, filename); err != nil {
		respondError(c, err, "Failed to generate export", h.exposeErrors)
	}
}

func priceHistoryRow(i int, e models.PriceHistoryEntry) []string {
	return []string{fmt.Sprint(i + 1), e.Date.UTC().Format(time.RFC3339), e.Price.StringFixed(2), e.Reason}
}

func writePriceHistoryCSV(c *gin.Context, history *models.PriceHistoryResponse, filename string) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", filename))

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write(priceHistoryColumns)
	for i, entry := range history.PriceHistory {
		writer.Write(priceHistoryRow(i, entry))
	}
}

func writePriceHistoryXLSX(c *gin.Context, history *models.PriceHistoryResponse, filename string) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Price History"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	titleStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 13}})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	priceStyle, _ := f.NewStyle(&excelize.Style{NumFmt: 2})

	f.SetCellValue(sheet, "A1", history.ProductName)
	f.SetCellStyle(sheet, "A1", "A1", titleStyle)

	for i, name := range priceHistoryColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 3)
		f.SetCellValue(sheet, cell, name)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}
	f.SetColWidth(sheet, "A", "A", 6)
	f.SetColWidth(sheet, "B", "B", 24)
	f.SetColWidth(sheet, "C", "C", 12)
	f.SetColWidth(sheet, "D", "D", 60)

	for i, entry := range history.PriceHistory {
		row := i + 4
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), i+1)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), entry.Date.UTC().Format(time.RFC3339))
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), entry.Price.InexactFloat64())
		f.SetCellStyle(sheet, fmt.Sprintf("C%d", row), fmt.Sprintf("C%d", row), priceStyle)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), entry.Reason)
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", filename))
	c.Status(http.StatusOK)
	return f.Write(c.Writer)
}
