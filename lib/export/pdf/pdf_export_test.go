package pdfexport

import (
	"testing"

	"github.com/stretchr/testify/require"

	"approval-backend/config"
	dbmodels "approval-backend/models/db"
)

func TestGenerateApprovalSheet(t *testing.T) {
	rec := dbmodels.ApprovalEvent{
		RequestableType: "approval_request",
		RequestableID:   "r1",
	}

	t.Run("отсутствие шрифтов дает ошибку, а не панику", func(t *testing.T) {
		conf := new(config.Configuration)
		conf.Export.FontDir = t.TempDir()
		config.Conf = conf

		require.NotPanics(t, func() {
			_, err := GenerateApprovalSheet(rec)
			require.Error(t, err)
		})
	})
}

func TestExportFileName(t *testing.T) {
	name := ExportFileName("r1")
	require.Contains(t, name, "r1")
	require.Contains(t, name, ".pdf")
}
