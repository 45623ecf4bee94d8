package exporthandler

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"approval-backend/config"
	"approval-backend/db"
	eventstore "approval-backend/lib/approval/event-store"
	pdfexport "approval-backend/lib/export/pdf"
	xlsexport "approval-backend/lib/export/xls"
	filestorage "approval-backend/lib/file-storage"
)

type Provider interface {
	// Registry - реестр процессов согласования в xlsx, с фильтром по статусу
	Registry(ctx context.Context, status string) (fileName string, data []byte, err error)
	// ApprovalSheet - печатный лист согласования по сущности в pdf
	ApprovalSheet(ctx context.Context, requestableType, requestableID string) (fileName string, data []byte, err error)
}

var Instance Provider

func NewHandler() {
	Instance = impl{
		events: eventstore.NewInstance(db.DB),
		xls:    xlsexport.Instance,
	}
}

type impl struct {
	events eventstore.Provider
	xls    xlsexport.Provider
}

func (i impl) Registry(ctx context.Context, status string) (string, []byte, error) {
	list, err := i.events.List(status)
	if err != nil {
		log.WithError(err).Error("ошибка получения списка процессов для выгрузки")
		return "", nil, err
	}
	buf, err := i.xls.ExportEventList(list)
	if err != nil {
		return "", nil, err
	}
	fileName := xlsexport.ExportFileName()
	data := buf.Bytes()
	i.archive(ctx, fileName, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	return fileName, data, nil
}

func (i impl) ApprovalSheet(ctx context.Context, requestableType, requestableID string) (string, []byte, error) {
	rec, err := i.events.GetByRequestable(requestableType, requestableID)
	if err != nil {
		log.WithError(err).Error("ошибка получения процесса для выгрузки")
		return "", nil, err
	}
	if rec == nil {
		return "", nil, errors.New("процесс согласования не найден")
	}
	data, err := pdfexport.GenerateApprovalSheet(*rec)
	if err != nil {
		return "", nil, err
	}
	fileName := pdfexport.ExportFileName(requestableID)
	i.archive(ctx, fileName, "application/pdf", data)
	return fileName, data, nil
}

// копия выгрузки складывается в объектное хранилище, сбой не мешает отдаче файла
func (i impl) archive(ctx context.Context, fileName, contentType string, data []byte) {
	if config.Conf.Approval.ArchiveExports == nil || !*config.Conf.Approval.ArchiveExports {
		return
	}
	if filestorage.Instance == nil {
		return
	}
	key, err := filestorage.Instance.UploadExport(ctx, fileName, contentType, data)
	if err != nil {
		log.WithError(err).WithField("file_name", fileName).Error("ошибка архивации выгрузки")
		return
	}
	log.WithField("file_name", fileName).WithField("key", key).Info("выгрузка заархивирована")
}
