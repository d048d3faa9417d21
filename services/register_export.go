package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"e_mairie_go/models"
	"e_mairie_go/services/i18n"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ExportCivilRegister builds a workbook of the civil requests created in year,
// one sheet per variant in lookup order.
func ExportCivilRegister(ctx context.Context, db *gorm.DB, year int) (*bytes.Buffer, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.Local)
	to := from.AddDate(1, 0, 0)

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := newHeaderStyle(f)
	if err != nil {
		return nil, err
	}

	headers := []string{
		i18n.T(ctx, "export.reference"),
		i18n.T(ctx, "export.submitted_at"),
		i18n.T(ctx, "export.requester"),
		i18n.T(ctx, "export.phone"),
		i18n.T(ctx, "export.subject"),
		i18n.T(ctx, "export.status"),
		i18n.T(ctx, "export.processed_at"),
		i18n.T(ctx, "export.delivered_at"),
		i18n.T(ctx, "export.comment"),
	}

	for i, variant := range models.AllVariants {
		sheet := variant.Label()
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}

		for col, header := range headers {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			f.SetCellValue(sheet, cell, header)
		}
		f.SetCellStyle(sheet, "A1", "I1", headerStyle)
		f.SetColWidth(sheet, "A", "A", 18)
		f.SetColWidth(sheet, "B", "H", 22)
		f.SetColWidth(sheet, "I", "I", 50)

		var requests []models.CivilRequest
		err := preloadCivilRequest(db).
			Where("variant = ? AND created_at >= ? AND created_at < ?", variant, from, to).
			Order("reference_number ASC").
			Find(&requests).Error
		if err != nil {
			return nil, fmt.Errorf("failed to load %s requests: %w", variant, err)
		}

		for r, req := range requests {
			row := r + 2
			subject := ""
			if d := req.Details(); d != nil {
				subject = d.Subject()
			}
			comment := req.AgentComment
			if req.Status == models.RequestStatusRejected {
				comment = req.RejectionReason
			}
			values := []interface{}{
				req.ReferenceNumber,
				req.CreatedAt.Format("02/01/2006 15:04"),
				req.RequesterName(),
				req.RequesterPhone,
				subject,
				models.RequestStatusLabel(req.Status),
				formatOptionalTime(req.ProcessedAt),
				formatOptionalTime(req.DeliveredAt),
				comment,
			}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row)
				f.SetCellValue(sheet, cell, v)
			}
		}
	}

	f.SetActiveSheet(0)
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, nil
}

// RegisterExportFileName is the download name of the export for a mairie and year
func RegisterExportFileName(schema string, year int) string {
	return fmt.Sprintf("registre_%s_%d.xlsx", schema, year)
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02/01/2006 15:04")
}

// ExportNewsletterSubscribers builds a single-sheet workbook of the active subscribers
func ExportNewsletterSubscribers(ctx context.Context, db *gorm.DB) (*bytes.Buffer, error) {
	subs, err := ListActiveSubscribers(db)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscribers: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := i18n.T(ctx, "export.subscribers_sheet")
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	headerStyle, err := newHeaderStyle(f)
	if err != nil {
		return nil, err
	}

	headers := []string{
		i18n.T(ctx, "export.email"),
		i18n.T(ctx, "export.last_name"),
		i18n.T(ctx, "export.first_name"),
		i18n.T(ctx, "export.subscribed_at"),
	}
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, header)
	}
	f.SetCellStyle(sheet, "A1", "D1", headerStyle)
	f.SetColWidth(sheet, "A", "A", 36)
	f.SetColWidth(sheet, "B", "D", 20)

	for r, sub := range subs {
		values := []interface{}{sub.Email, sub.LastName, sub.FirstName, sub.CreatedAt.Format("02/01/2006")}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, r+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, nil
}

func newHeaderStyle(f *excelize.File) (int, error) {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"1E40AF"}, Pattern: 1},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create header style: %w", err)
	}
	return style, nil
}
