package xlsexport

import (
	"bytes"
	"fmt"
	"math/bits"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	dbmodels "approval-backend/models/db"
)

type Provider interface {
	ExportEventList(list []dbmodels.ApprovalEvent) (*bytes.Buffer, error)
}

var Instance Provider

func NewHandler() {
	Instance = impl{}
}

type impl struct{}

var eventHeaders = []string{"Тип сущности", "Идентификатор", "Статус", "Режим", "Пройдено этапов", "Всего этапов", "Текущий этап", "Дата запуска", "Дата решения"}

func (i impl) ExportEventList(list []dbmodels.ApprovalEvent) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.WithError(err).Error("ошибка закрытия файла")
		}
	}()
	sheet := "Sheet1"
	row := 0
	row, err := writeHeader(f, sheet, row, eventHeaders)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка формирования заголовка в xlsx")
	}
	if len(list) != 0 {
		row, err = writeEventData(f, sheet, list, row)
		if err != nil {
			return nil, errors.Wrap(err, "ошибка формирования таблицы с данными в xlsx")
		}
	}
	f.SetSheetName(sheet, "Согласования")
	return f.WriteToBuffer()
}

func writeEventData(f *excelize.File, sheet string, list []dbmodels.ApprovalEvent, row int) (int, error) {
	if err := applyDataCellStyle(f, sheet, 1, row+1, len(eventHeaders), len(list)+1); err != nil {
		return row, err
	}
	for _, item := range list {
		row++
		// "Тип сущности"
		col := 1
		if err := writeColumn(f, sheet, col, row, item.RequestableType); err != nil {
			return row, err
		}

		// "Идентификатор"
		col++
		if err := writeColumn(f, sheet, col, row, item.RequestableID); err != nil {
			return row, err
		}

		// "Статус"
		col++
		if err := writeColumn(f, sheet, col, row, item.Status.ToHuman()); err != nil {
			return row, err
		}

		// "Режим"
		col++
		if err := writeColumn(f, sheet, col, row, item.RunMode.ToHuman()); err != nil {
			return row, err
		}

		// "Пройдено этапов"
		col++
		if err := writeColumn(f, sheet, col, row, bits.OnesCount64(uint64(item.Step&item.Target))); err != nil {
			return row, err
		}

		// "Всего этапов"
		col++
		if err := writeColumn(f, sheet, col, row, bits.OnesCount64(uint64(item.Target))); err != nil {
			return row, err
		}

		// "Текущий этап"
		col++
		if component := item.CurrentComponent(); component != nil && !item.IsFinal() {
			if err := writeColumn(f, sheet, col, row, component.Name); err != nil {
				return row, err
			}
		}

		// "Дата запуска"
		col++
		if err := writeColumn(f, sheet, col, row, item.CreatedAt.Format("02.01.2006 15:04")); err != nil {
			return row, err
		}

		// "Дата решения"
		col++
		if resolvedAt := resolvedAtValue(item); resolvedAt != "" {
			if err := writeColumn(f, sheet, col, row, resolvedAt); err != nil {
				return row, err
			}
		}
	}
	return row, nil
}

func resolvedAtValue(item dbmodels.ApprovalEvent) string {
	switch {
	case item.ApprovedAt != nil:
		return item.ApprovedAt.Format("02.01.2006 15:04")
	case item.RejectedAt != nil:
		return item.RejectedAt.Format("02.01.2006 15:04")
	case item.CancelledAt != nil:
		return item.CancelledAt.Format("02.01.2006 15:04")
	}
	return ""
}

// название файла выгрузки
func ExportFileName() string {
	return fmt.Sprintf("approval_registry_%s.xlsx", time.Now().Format("20060102_150405"))
}
