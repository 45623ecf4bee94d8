package pdfexport

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"

	"approval-backend/config"
	dbmodels "approval-backend/models/db"
)

// GenerateApprovalSheet - печатный лист согласования по процессу:
// шапка с данными сущности и таблица этапов с голосами участников.
// Шрифты Arial.ttf и "Arial Bold.ttf" читаются из config.Conf.Export.FontDir,
// без них генерация возвращает ошибку
func GenerateApprovalSheet(rec dbmodels.ApprovalEvent) (pdfFile []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("GenerateApprovalSheet panic recover: %v", r)
		}
	}()
	pdf := fpdf.New("P", "mm", "A4", config.Conf.Export.FontDir)
	pdf.AddPage()
	pdf.AddUTF8Font("Arial", "", "Arial.ttf")
	pdf.AddUTF8Font("Arial", "B", "Arial Bold.ttf")
	pdf.SetFont("Arial", "B", 16)
	if pdf.Error() != nil {
		return nil, pdf.Error()
	}

	pdf.CellFormat(0, 10, "Лист согласования", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 11)
	writeField(pdf, "Тип сущности", rec.RequestableType)
	writeField(pdf, "Идентификатор", rec.RequestableID)
	writeField(pdf, "Режим", rec.RunMode.ToHuman())
	writeField(pdf, "Статус", rec.Status.ToHuman())
	writeField(pdf, "Дата запуска", rec.CreatedAt.Format("02.01.2006 15:04"))
	if rec.ApprovedAt != nil {
		writeField(pdf, "Дата согласования", rec.ApprovedAt.Format("02.01.2006 15:04"))
	}
	if rec.RejectedAt != nil {
		writeField(pdf, "Дата отклонения", rec.RejectedAt.Format("02.01.2006 15:04"))
	}
	pdf.Ln(6)

	for _, component := range rec.Components {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, fmt.Sprintf("Этап: %s (%s)", component.Name, component.Logic), "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)

		pdf.CellFormat(80, 7, "Согласующий", "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, "Решение", "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, "Дата", "1", 1, "L", false, 0, "")

		if len(component.Contributors) == 0 {
			pdf.CellFormat(80, 7, "-", "1", 0, "L", false, 0, "")
			pdf.CellFormat(50, 7, "пройден автоматически", "1", 0, "L", false, 0, "")
			pdf.CellFormat(50, 7, stampValue(component.ApprovedAt), "1", 1, "L", false, 0, "")
		}
		for _, contributor := range component.Contributors {
			name := contributor.UserID
			if contributor.User != nil {
				name = contributor.User.GetDisplayName()
			}
			decision, at := contributorDecision(contributor)
			pdf.CellFormat(80, 7, name, "1", 0, "L", false, 0, "")
			pdf.CellFormat(50, 7, decision, "1", 0, "L", false, 0, "")
			pdf.CellFormat(50, 7, at, "1", 1, "L", false, 0, "")
		}
		pdf.Ln(4)
	}

	buf := new(bytes.Buffer)
	if err = pdf.Output(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeField(pdf *fpdf.Fpdf, name, value string) {
	pdf.CellFormat(50, 7, name+":", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 7, value, "", 1, "L", false, 0, "")
}

func contributorDecision(contributor dbmodels.ApprovalEventContributor) (decision, at string) {
	switch {
	case contributor.ApprovedAt != nil:
		return "согласовано", stampValue(contributor.ApprovedAt)
	case contributor.RejectedAt != nil:
		return "отклонено", stampValue(contributor.RejectedAt)
	case contributor.CancelledAt != nil:
		return "отозвано", stampValue(contributor.CancelledAt)
	}
	return "ожидает решения", ""
}

func stampValue(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.Format("02.01.2006 15:04")
}

// ExportFileName - название файла листа согласования
func ExportFileName(requestableID string) string {
	return fmt.Sprintf("approval_sheet_%s.pdf", requestableID)
}
