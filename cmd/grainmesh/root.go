package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/soypat/grainmesh"
	"github.com/soypat/grainmesh/helpers/meshgen"
	"github.com/soypat/grainmesh/internal/config"
	"github.com/soypat/grainmesh/internal/d3"
	"github.com/soypat/grainmesh/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// app holds state shared by all subcommands of a single invocation.
type app struct {
	cfgPath  string
	logLevel string
	logFile  string

	cfg      *config.Config
	log      *zap.Logger
	closeLog func() error
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "grainmesh",
		Short: "Decimate and repair labeled grain boundary meshes",
		Long: `grainmesh generates a synthetic polycrystal, a BCC tetrahedral mesh
partitioned into Voronoi grains, and runs the volume decimation, surface
decimation, winding repair and node type passes over it.`,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return a.setup(cmd) },
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.closeLog == nil {
				return nil
			}
			return a.closeLog()
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", "", "YAML configuration file")
	pf.StringVar(&a.logLevel, "log-level", "", "log level overriding the configuration (debug, info, warn, error)")
	pf.StringVar(&a.logFile, "log-file", "", "rotated JSON log file overriding the configuration")

	root.AddCommand(
		a.generateCmd(),
		a.volumeCmd(),
		a.surfaceCmd(),
		a.windingCmd(),
		a.nodetypesCmd(),
		a.pipelineCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.logFile != "" {
		cfg.Logging.File = logger.DefaultFileConfig(a.logFile)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.log, a.closeLog, err = logger.New(cfg.Logging.Level, cfg.Logging.File, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.log.Debug("configuration loaded", zap.String("path", a.cfgPath), zap.Any("config", cfg))
	return nil
}

// op returns the operation handed to library calls made by cmd.
func (a *app) op(cmd *cobra.Command, stage string) *grainmesh.Operation {
	log := a.log.With(zap.String("command", cmd.Name()))
	return &grainmesh.Operation{
		Context: cmd.Context(),
		Logger:  log,
		Progress: func(percent int, msg string) {
			log.Debug(msg, zap.String("stage", stage), zap.Int("percent", percent))
		},
	}
}

func (a *app) volumeMesh() (*grainmesh.TetMesh, error) {
	g := a.cfg.Generate
	box := d3.CenteredBox(r3.Vec{}, r3.Vec{X: g.Size, Y: g.Size, Z: g.Size})
	m, err := meshgen.Microstructure(meshgen.Config{
		Box:        r3.Box(box),
		Resolution: g.Resolution,
		Grains:     g.Grains,
		Seed:       g.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("generating microstructure: %w", err)
	}
	a.log.Info("generated microstructure",
		zap.Int("nodes", len(m.Nodes)),
		zap.Int("tetrahedra", len(m.Tetrahedra)),
		zap.Int("grains", g.Grains))
	return m, nil
}

func (a *app) surfaceMesh(tm *grainmesh.TetMesh) (*grainmesh.TriangleMesh, error) {
	m, err := meshgen.BoundarySurface(tm)
	if err != nil {
		return nil, fmt.Errorf("extracting grain boundaries: %w", err)
	}
	a.log.Info("extracted grain boundaries",
		zap.Int("vertices", len(m.Vertices)),
		zap.Int("triangles", len(m.Triangles)))
	return m, nil
}

// writePlot creates name in the report directory and hands it to plot.
// It does nothing when no report directory is configured.
func (a *app) writePlot(name string, plot func(f *os.File) error) error {
	dir := a.cfg.Report.Dir
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := plot(f); err != nil {
		f.Close()
		return fmt.Errorf("plotting %s: %w", path, err)
	}
	a.log.Info("wrote plot", zap.String("path", path))
	return f.Close()
}
