package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"thinner/internal/catalog"
	"thinner/internal/closure"
	"thinner/internal/config"
	"thinner/internal/errors"
	"thinner/internal/metadata"
	"thinner/internal/model"
	"thinner/internal/slogutil"
	"thinner/internal/storage"
)

// session is the per-command environment: effective configuration after
// profile and flag overlays, and the logger factory built from it.
type session struct {
	root    string
	cfg     *config.Config
	factory *slogutil.LoggerFactory
}

func newSession(cmd *cobra.Command) (*session, error) {
	root := rootDirFlag
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		root = wd
	}

	cfg, err := config.LoadConfig(root)
	if err != nil {
		return nil, errors.New(errors.ConfigInvalid, "failed to load configuration", err)
	}
	profiles, err := config.LoadProfiles(root)
	if err != nil {
		return nil, errors.New(errors.ConfigInvalid, "failed to load build profiles", err)
	}
	name := profileFlag
	if name == "" {
		name = cfg.Model.Profile
	}
	if err := profiles.Apply(name, cfg); err != nil {
		return nil, errors.New(errors.ConfigInvalid, "invalid profile", err)
	}

	if platformFlag != "" {
		cfg.Model.Platform = platformFlag
	}
	if archFlag != "" {
		cfg.Model.Architecture = archFlag
	}
	if flavorFlag != "" {
		cfg.Model.Flavor = flavorFlag
	}
	if len(defineFlags) > 0 {
		cfg.Model.Defines = strings.Join(defineFlags, ";")
	}
	if len(catalogFlags) > 0 {
		cfg.Catalog.Paths = catalogFlags
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.New(errors.ConfigInvalid, "invalid configuration", err)
	}

	var cliLevel *slog.Level
	if verbosity > 0 || quietFlag {
		level := slogutil.LevelFromVerbosity(verbosity, quietFlag)
		cliLevel = &level
	}

	return &session{
		root:    root,
		cfg:     cfg,
		factory: slogutil.NewLoggerFactory(root, cfg, cmd.ErrOrStderr(), cliLevel),
	}, nil
}

func (s *session) Close() { _ = s.factory.Close() }

func (s *session) logger(subsystem string) *slog.Logger { return s.factory.Logger(subsystem) }

func (s *session) readOptions() model.ReadOptions {
	return model.ReadOptions{
		Platform:                s.cfg.Model.Platform,
		Architecture:            s.cfg.Model.Architecture,
		Flavor:                  s.cfg.Model.Flavor,
		Defines:                 s.cfg.Model.Defines,
		TreatFxInternalAsPublic: s.cfg.Model.TreatFxInternalAsPublic,
	}
}

func (s *session) readModel(path string) (*model.Model, error) {
	m, err := model.Read(path, s.readOptions())
	if err != nil {
		return nil, err
	}
	s.logger(slogutil.SubsystemModel).Debug("Model read", "path", path, "elements", m.Stats().Total())
	return m, nil
}

// loadProgram loads the configured catalogs and returns the program with
// the digest of its inputs.
func (s *session) loadProgram() (*metadata.Program, string, error) {
	format, err := catalog.ParseFormat(s.cfg.Catalog.Format)
	if err != nil {
		return nil, "", err
	}
	paths := s.cfg.Catalog.Paths
	p, err := catalog.NewLoader(s.logger(slogutil.SubsystemCatalog), format).Load(paths...)
	if err != nil {
		return nil, "", err
	}
	digest, err := catalog.Digest(paths...)
	if err != nil {
		return nil, "", err
	}
	return p, digest, nil
}

func (s *session) engine(p *metadata.Program) (*closure.Engine, error) {
	fields, err := closure.ParseFieldOptions(s.cfg.Closure.FieldOptions)
	if err != nil {
		return nil, errors.New(errors.ConfigInvalid, "invalid closure.fieldOptions", err)
	}
	opts := closure.Options{
		IncludedAssemblies: s.cfg.Closure.IncludedAssemblies,
		Fields:             fields,
	}
	return closure.NewEngine(p, opts, s.logger(slogutil.SubsystemClosure)), nil
}

func (s *session) openRuns() (*storage.RunRepository, func(), error) {
	db, err := storage.Open(s.root, s.logger(slogutil.SubsystemStorage))
	if err != nil {
		return nil, nil, errors.New(errors.StorageFailed, "failed to open run history", err)
	}
	return storage.NewRunRepository(db), func() { _ = db.Close() }, nil
}

// recordRun stores res in the run history. Failures are logged, not
// returned: the closure output is already written.
func (s *session) recordRun(ctx context.Context, modelPath, outputPath, digest string, res *closure.Result) string {
	if !s.cfg.Storage.Enabled {
		return ""
	}
	logger := s.logger(slogutil.SubsystemStorage)
	runs, done, err := s.openRuns()
	if err != nil {
		logger.Warn("Run not recorded", "error", err)
		return ""
	}
	defer done()

	st := res.Stats
	id, err := runs.Record(ctx, &storage.Run{
		Pass:            st.Pass,
		ModelPath:       modelPath,
		OutputPath:      outputPath,
		CatalogDigest:   digest,
		Profile:         s.cfg.Model.Profile,
		Assemblies:      st.Retained.Assemblies,
		Types:           st.Retained.Types,
		Members:         st.Retained.Members,
		Forwarders:      st.Retained.Forwarders,
		Iterations:      st.Iterations,
		Hidden:          st.Hidden,
		Unconstructible: res.Unconstructible,
		Duration:        st.Duration,
	})
	if err != nil {
		logger.Warn("Run not recorded", "error", err)
		return ""
	}
	return id
}

// newContext returns a context cancelled on interrupt.
func newContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
