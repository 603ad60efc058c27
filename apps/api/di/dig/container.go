package dig_container

import (
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/aspirasi/relawan/apps/api/echo"
	"github.com/aspirasi/relawan/core"
	"github.com/aspirasi/relawan/core/application"
	"github.com/aspirasi/relawan/core/complaint"
	"github.com/aspirasi/relawan/core/dispatch"
	"github.com/aspirasi/relawan/core/program"
	emailsvc "github.com/aspirasi/relawan/services/email"
	logsvc "github.com/aspirasi/relawan/services/logger"
	whatsappsvc "github.com/aspirasi/relawan/services/whatsapp"
	"github.com/aspirasi/relawan/storage/database"
	sqlxrepos "github.com/aspirasi/relawan/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type serverParams struct {
	dig.In
	Conf           *core.Config
	Logger         core.Logger
	ProgramSvc     *program.Service
	ApplicationSvc *application.Service
	ComplaintSvc   *complaint.Service
	Validate       *validator.Validate
	Translator     ut.Translator
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db.DB, "up"); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newWhatsappService(conf *core.Config, logger core.Logger) dispatch.MessageSender {
	if conf.Debug || conf.Whatsapp.BridgeURL == "" {
		return whatsappsvc.NewConsoleService(logger)
	}
	return whatsappsvc.NewBridgeService(conf)
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	program.InitValidators(validate, translator)
	application.InitValidators(validate, translator)
	complaint.InitValidators(validate, translator)
	return validate
}

func newForwarder(d *dispatch.Dispatcher) complaint.Forwarder {
	return d
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:           p.Conf,
		Logger:         p.Logger,
		ProgramSvc:     p.ProgramSvc,
		ApplicationSvc: p.ApplicationSvc,
		ComplaintSvc:   p.ComplaintSvc,
		Validate:       p.Validate,
		Translator:     p.Translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newEmailService))
	must(c.Provide(newWhatsappService))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))

	must(c.Provide(sqlxrepos.NewProgramRepository))
	must(c.Provide(sqlxrepos.NewApplicationRepository))
	must(c.Provide(sqlxrepos.NewComplaintRepository))

	must(c.Provide(dispatch.NewConfigSettings))
	must(c.Provide(dispatch.NewDispatcher))
	must(c.Provide(newForwarder))

	must(c.Provide(program.NewLedger))
	must(c.Provide(program.NewService))
	must(c.Provide(application.NewService))
	must(c.Provide(complaint.NewService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
