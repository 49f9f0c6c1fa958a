package main

import (
	"context"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	"github.com/trezcool/etudes/core"
	"github.com/trezcool/etudes/core/content"
	"github.com/trezcool/etudes/core/principal"
	"github.com/trezcool/etudes/core/session"
	"github.com/trezcool/etudes/core/study"
	logsvc "github.com/trezcool/etudes/services/logger"
	"github.com/trezcool/etudes/storage/credentials"
	"github.com/trezcool/etudes/storage/database"
	inmemdb "github.com/trezcool/etudes/storage/database/inmem"
	sqlxrepos "github.com/trezcool/etudes/storage/database/sqlx"
	"github.com/trezcool/etudes/storage/document"
)

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stderr, "ETUDES : ", log.LstdFlags)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

// newKVStore opens the slot storage selected by storage.driver.
func newKVStore(conf *core.Config) (core.KVStore, error) {
	if conf.Storage.Driver == "memory" {
		return inmemdb.NewKVStore(inmemdb.Open()), nil
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return sqlxrepos.NewKVStore(db), nil
}

func newDocumentStore(conf *core.Config, kv core.KVStore, logger core.Logger) *document.Store {
	return document.NewStore(kv, logger, conf.Storage.Quota)
}

func newRegistry(conf *core.Config) principal.Repository {
	return credentials.NewFileRepository(conf.Path(conf.CredentialsFile))
}

func newValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	principal.InitValidators(validate, translator)
	study.InitValidators(validate, translator)
	return validate, translator
}

// designatedStudent is study.designatedStudent, or else the first registered student.
func designatedStudent(ctx context.Context, conf *core.Config, prinSvc *principal.Service, logger core.Logger) string {
	if conf.Study.DesignatedStudent != "" {
		return conf.Study.DesignatedStudent
	}
	ps, err := prinSvc.QueryAll(ctx)
	if err != nil {
		logger.Error("listing principals", err)
		return ""
	}
	for _, p := range ps {
		if p.IsStudent() {
			return p.ID
		}
	}
	return ""
}

func newStudyService(
	conf *core.Config,
	store *document.Store,
	prinSvc *principal.Service,
	validate *validator.Validate,
	translator ut.Translator,
	logger core.Logger,
) *study.Service {
	ctx := context.Background()
	cfg := study.Config{
		DocumentKey:       conf.Keys.Document,
		DesignatedStudent: designatedStudent(ctx, conf, prinSvc, logger),
		MaxUploadSize:     conf.Study.MaxUploadSize,
	}
	svc := study.NewService(ctx, cfg, store, validate, translator, logger)
	prinSvc.SetNotifier(svc)
	return svc
}

func newSession(conf *core.Config, store *document.Store, prinSvc *principal.Service, logger core.Logger) *session.Context {
	cfg := session.Config{
		AppName:         conf.AppName,
		AuthKey:         conf.Keys.Auth,
		ThemeKey:        conf.Keys.Theme,
		SecretKey:       []byte(conf.SecretKey),
		ExpirationDelta: conf.Session.ExpirationDelta,
	}
	sess := session.New(cfg, store, prinSvc, logger)
	sess.Load(context.Background())
	return sess
}

func newStager(conf *core.Config) *content.Stager {
	return content.NewStager(conf.Study.MaxUploadSize)
}

// newContainer returns the dependency injection dig.Container of the study CLI.
func newContainer(conf *core.Config) *dig.Container {
	c := dig.New()

	must(c.Provide(func() *core.Config { return conf }))
	must(c.Provide(newLogger))
	must(c.Provide(newKVStore))
	must(c.Provide(newDocumentStore))
	must(c.Provide(newRegistry))
	must(c.Provide(newValidator))
	must(c.Provide(principal.NewService))
	must(c.Provide(newStudyService))
	must(c.Provide(newSession))
	must(c.Provide(newStager))
	must(c.Provide(content.NewViewer))
	must(c.Provide(newCommandLine))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
