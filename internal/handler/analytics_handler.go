package handler

import (
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/eduai-api/internal/domain/entity"
	"github.com/yourusername/eduai-api/internal/service"
)

// AnalyticsHandler обрабатывает запросы аналитики и выгрузок
type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
}

// NewAnalyticsHandler создает новый обработчик аналитики
func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// Progress возвращает прогресс пользователя по темам
func (h *AnalyticsHandler) Progress(c *gin.Context) {
	items, err := h.analyticsService.GetProgress(currentUserID(c), c.Query("subject"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": items})
}

// Overall возвращает агрегированный прогресс по всем предметам
func (h *AnalyticsHandler) Overall(c *gin.Context) {
	overall, err := h.analyticsService.GetOverall(currentUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, overall)
}

// Performance возвращает отчет за период daily|weekly|monthly
func (h *AnalyticsHandler) Performance(c *gin.Context) {
	period := c.DefaultQuery("period", service.PeriodWeekly)

	report, err := h.analyticsService.GetPerformance(currentUserID(c), period)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Dashboard возвращает сводку для главного экрана
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.analyticsService.GetDashboard(currentUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// Leaderboard возвращает страницу рейтинга пользователей
func (h *AnalyticsHandler) Leaderboard(c *gin.Context) {
	page, pageSize := parsePagination(c)

	board, err := h.analyticsService.GetLeaderboard(page, pageSize)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

// Recommendations возвращает советы по обучению
func (h *AnalyticsHandler) Recommendations(c *gin.Context) {
	recs, err := h.analyticsService.GetRecommendations(currentUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recs})
}

// StrengthsWeaknesses возвращает сильные и слабые темы
func (h *AnalyticsHandler) StrengthsWeaknesses(c *gin.Context) {
	sw, err := h.analyticsService.GetStrengthsWeaknesses(currentUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sw)
}

// Trends возвращает дневные средние за последние N дней
func (h *AnalyticsHandler) Trends(c *gin.Context) {
	days := queryInt(c, "days", 30)

	points, err := h.analyticsService.GetTrends(currentUserID(c), days)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trends": points, "days": days})
}

// ExportResults выгружает результаты пользователя в CSV или XLSX
func (h *AnalyticsHandler) ExportResults(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "csv"))
	if format != "csv" && format != "xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx"})
		return
	}

	results, err := h.analyticsService.GetResultsForExport(currentUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("results_%s.%s", time.Now().Format("2006-01-02"), format)
	if format == "csv" {
		h.writeCSV(c, filename, results)
		return
	}
	h.writeXLSX(c, filename, results)
}

var exportHeaders = []string{
	"Completed At", "Subject", "Difficulty", "Questions", "Correct",
	"Score", "Max Score", "Percentage", "Time (min)", "Strengths", "Weaknesses",
}

func (h *AnalyticsHandler) writeCSV(c *gin.Context, filename string, results []entity.Result) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	if err := writer.Write(exportHeaders); err != nil {
		log.Printf("[AnalyticsHandler] Ошибка записи CSV: %v", err)
		return
	}
	for _, r := range results {
		record := []string{
			r.CompletedAt.Format(time.RFC3339),
			sanitizeForExport(r.Subject),
			sanitizeForExport(r.Difficulty),
			strconv.Itoa(r.TotalQuestions),
			strconv.Itoa(r.CorrectAnswers),
			fmt.Sprintf("%.2f", r.TotalScore),
			fmt.Sprintf("%.2f", r.MaxScore),
			fmt.Sprintf("%.1f", r.Percentage),
			strconv.Itoa(r.TimeTakenMinutes),
			sanitizeForExport(strings.Join(r.Strengths, "; ")),
			sanitizeForExport(strings.Join(r.Weaknesses, "; ")),
		}
		if err := writer.Write(record); err != nil {
			log.Printf("[AnalyticsHandler] Ошибка записи CSV: %v", err)
			return
		}
	}
}

func (h *AnalyticsHandler) writeXLSX(c *gin.Context, filename string, results []entity.Result) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("[AnalyticsHandler] Ошибка закрытия XLSX: %v", err)
		}
	}()

	sw, err := f.NewStreamWriter("Sheet1")
	if err != nil {
		handleServiceError(c, err)
		return
	}

	headerRow := make([]interface{}, len(exportHeaders))
	for i, head := range exportHeaders {
		headerRow[i] = head
	}
	if err := sw.SetRow("A1", headerRow); err != nil {
		handleServiceError(c, err)
		return
	}

	for i, r := range results {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{
			r.CompletedAt.Format(time.RFC3339),
			sanitizeForExport(r.Subject),
			sanitizeForExport(r.Difficulty),
			r.TotalQuestions,
			r.CorrectAnswers,
			r.TotalScore,
			r.MaxScore,
			r.Percentage,
			r.TimeTakenMinutes,
			sanitizeForExport(strings.Join(r.Strengths, "; ")),
			sanitizeForExport(strings.Join(r.Weaknesses, "; ")),
		}
		if err := sw.SetRow(cell, row); err != nil {
			handleServiceError(c, err)
			return
		}
	}

	if err := sw.Flush(); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[AnalyticsHandler] Ошибка записи XLSX: %v", err)
	}
}

// sanitizeForExport защищает от formula injection в табличных редакторах
func sanitizeForExport(value string) string {
	if value == "" {
		return value
	}
	switch value[0] {
	case '=', '+', '-', '@':
		return "'" + value
	}
	return value
}
