package tests

import (
	"os"
	"testing"

	"github.com/aspirasi/relawan/assets"
	"github.com/aspirasi/relawan/core"
	logsvc "github.com/aspirasi/relawan/services/logger"
)

func TestMain(m *testing.M) {
	core.ParseEmailTemplates(assets.Templates, assets.EmailTemplatesDir, logsvc.NewTestLogger())
	os.Exit(m.Run())
}
