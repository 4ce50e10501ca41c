package dig_container

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/parishdesk/parishdesk/apps/api/echo"
	"github.com/parishdesk/parishdesk/core"
	"github.com/parishdesk/parishdesk/core/user"
	"github.com/parishdesk/parishdesk/core/wizard"
	emailsvc "github.com/parishdesk/parishdesk/services/email"
	logsvc "github.com/parishdesk/parishdesk/services/logger"
	"github.com/parishdesk/parishdesk/services/memberapi"
	"github.com/parishdesk/parishdesk/storage/database"
	sqlxrepos "github.com/parishdesk/parishdesk/storage/database/sqlx"
	"github.com/parishdesk/parishdesk/storage/session"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger("api", conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger("db", conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) *sql.DB {
	setUp := func() (*sql.DB, error) {
		if err := database.CreateIfNotExist(context.Background(), conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db); err != nil {
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

// newWizardStore keeps wizards in process memory, or in redis when several API instances run.
func newWizardStore(conf *core.Config, logger core.Logger) wizard.Store {
	if conf.Wizard.Store != "redis" {
		return session.NewMemoryStore(conf.Wizard.TTL, conf.Wizard.SubmitLockTTL)
	}

	client, err := session.NewRedisClient(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("connecting to redis: %v", err), err)
	}
	return session.NewRedisStore(client, conf)
}

func newMembersClient(conf *core.Config) echoapi.MembersClient {
	return memberapi.NewClient(conf)
}

func newViewport(conf *core.Config) wizard.Viewport {
	return wizard.NewStepStrip(conf.Wizard.StripWidth, conf.Wizard.ButtonWidth, conf.Wizard.ButtonGap)
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newEmailService))
	must(c.Provide(sqlxrepos.NewUserRepository))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(user.NewService))
	must(c.Provide(newWizardStore))
	must(c.Provide(newMembersClient))
	must(c.Provide(newViewport))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
