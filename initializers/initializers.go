package initializers

import (
	"context"

	"approval-backend/config"
	"approval-backend/fiberlog"
	approvalhandler "approval-backend/lib/approval"
	flowhandler "approval-backend/lib/approval/flow"
	grouphandler "approval-backend/lib/approval/group"
	approvalnotify "approval-backend/lib/approval/notify"
	exporthandler "approval-backend/lib/export"
	xlsexport "approval-backend/lib/export/xls"
	requesthandler "approval-backend/lib/request"
	usershandler "approval-backend/lib/users"
	connectionhub "approval-backend/lib/ws/hub/connection-hub"
)

var LoggerConfig *fiberlog.Config

func InitAllServices(ctx context.Context) {
	LoggerConfig = InitLogger()
	config.InitConfig()
	InitDBConnection()
	InitS3()
	InitSmtp()
	connectionhub.Init()
	usershandler.NewHandler()
	approvalnotify.NewHandler()
	approvalhandler.NewHandler()
	flowhandler.NewHandler()
	grouphandler.NewHandler()
	requesthandler.NewHandler()
	xlsexport.NewHandler()
	exporthandler.NewHandler()
}
