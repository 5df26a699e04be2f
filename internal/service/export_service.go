package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const detectionsSheet = "Detections"

// ExportService writes duplicate detections to a spreadsheet for fraud
// review outside the service.
type ExportService struct {
	detections DetectionStore
	logger     *zap.Logger
}

func NewExportService(detections DetectionStore, logger *zap.Logger) *ExportService {
	return &ExportService{
		detections: detections,
		logger:     logger,
	}
}

// DetectionsXLSX returns an XLSX workbook of detections raised since since.
func (s *ExportService) DetectionsXLSX(ctx context.Context, since time.Time) ([]byte, int, error) {
	start := time.Now()

	detections, err := s.detections.ListSince(ctx, since)
	if err != nil {
		return nil, 0, fmt.Errorf("query detections: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(detectionsSheet); err != nil {
		return nil, 0, err
	}
	index, err := f.GetSheetIndex(detectionsSheet)
	if err != nil {
		return nil, 0, err
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headers := []string{
		"Detected At", "Detection ID", "Status", "Method", "Hamming Distance",
		"Threshold", "User ID", "Transaction ID", "Matched Record ID", "Payment Reference", "Hash",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(detectionsSheet, cell, h)
	}

	for i, d := range detections {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(detectionsSheet, cell, v)
		}

		transactionID := ""
		if d.TransactionID != nil {
			transactionID = d.TransactionID.String()
		}

		write(1, d.DetectedAt.UTC().Format(time.RFC3339))
		write(2, d.ID.String())
		write(3, string(d.Status))
		write(4, string(d.DetectionData.Method))
		write(5, d.DetectionData.HammingDistance)
		write(6, d.DetectionData.Threshold)
		write(7, d.UserID.String())
		write(8, transactionID)
		write(9, d.DetectionData.MatchedRecordID.String())
		write(10, d.DetectionData.PaymentReference)
		write(11, d.Hash)
	}

	_ = f.SetColWidth(detectionsSheet, "A", "A", 22)
	_ = f.SetColWidth(detectionsSheet, "B", "B", 38)
	_ = f.SetColWidth(detectionsSheet, "C", "D", 14)
	_ = f.SetColWidth(detectionsSheet, "E", "F", 10)
	_ = f.SetColWidth(detectionsSheet, "G", "I", 38)
	_ = f.SetColWidth(detectionsSheet, "J", "J", 22)
	_ = f.SetColWidth(detectionsSheet, "K", "K", 66)
	_ = f.AutoFilter(detectionsSheet, "A1:K"+strconv.Itoa(len(detections)+1), nil)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("Detections exported",
		zap.Int("rows", len(detections)),
		zap.Int64("elapsed_ms", time.Since(start).Milliseconds()),
	)

	return buf.Bytes(), len(detections), nil
}
