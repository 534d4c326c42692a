package main

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/soypat/grainmesh"
	"github.com/soypat/grainmesh/decimate"
	"github.com/soypat/grainmesh/helpers/meshgen"
	"github.com/soypat/grainmesh/quality"
	"github.com/soypat/grainmesh/winding"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) generateCmd() *cobra.Command {
	var writeConfig string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a microstructure and summarize its grain boundaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if writeConfig != "" {
				if err := a.cfg.Save(writeConfig); err != nil {
					return err
				}
			}
			tm, err := a.volumeMesh()
			if err != nil {
				return err
			}
			m, err := a.surfaceMesh(tm)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "nodes\t%d\ntetrahedra\t%d\n", len(tm.Nodes), len(tm.Tetrahedra))
			return summarize(out, m)
		},
	}
	cmd.Flags().StringVar(&writeConfig, "write-config", "", "write the effective configuration to this file")
	return cmd
}

func (a *app) volumeCmd() *cobra.Command {
	var goal float64
	var nearest bool
	cmd := &cobra.Command{
		Use:   "volume",
		Short: "Decimate the tetrahedral mesh away from grain interfaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			if flags.Changed("goal-fraction") {
				a.cfg.Volume.GoalFraction = goal
			}
			if flags.Changed("nearest") {
				a.cfg.Volume.NearestSibling = nearest
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			tm, err := a.volumeMesh()
			if err != nil {
				return err
			}
			_, err = a.decimateVolume(cmd, tm)
			return err
		},
	}
	cmd.Flags().Float64Var(&goal, "goal-fraction", 0, "fraction of tetrahedra to keep")
	cmd.Flags().BoolVar(&nearest, "nearest", false, "collapse onto the nearest corner instead of the fixed sibling")
	return cmd
}

func (a *app) surfaceCmd() *cobra.Command {
	var keep float64
	cmd := &cobra.Command{
		Use:   "surface",
		Short: "Decimate the grain boundary surface with quadric error metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("keep") {
				a.cfg.Surface.KeepPercent = keep
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			tm, err := a.volumeMesh()
			if err != nil {
				return err
			}
			m, err := a.surfaceMesh(tm)
			if err != nil {
				return err
			}
			if a.cfg.Surface.Repair {
				if _, err := a.repair(cmd, m, a.cfg.Surface.Scramble); err != nil {
					return err
				}
			}
			_, err = a.decimateSurface(cmd, m)
			return err
		},
	}
	cmd.Flags().Float64Var(&keep, "keep", 0, "percentage of triangles to keep")
	return cmd
}

func (a *app) windingCmd() *cobra.Command {
	var scramble bool
	cmd := &cobra.Command{
		Use:   "winding",
		Short: "Scramble and repair the winding of the grain boundary surface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tm, err := a.volumeMesh()
			if err != nil {
				return err
			}
			m, err := a.surfaceMesh(tm)
			if err != nil {
				return err
			}
			_, err = a.repair(cmd, m, scramble)
			return err
		},
	}
	cmd.Flags().BoolVar(&scramble, "scramble", true, "reverse a random subset of triangles before repairing")
	return cmd
}

func (a *app) nodetypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "nodetypes",
		Short: "Classify surface vertices by the number of regions they touch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tm, err := a.volumeMesh()
			if err != nil {
				return err
			}
			m, err := a.surfaceMesh(tm)
			if err != nil {
				return err
			}
			return summarize(cmd.OutOrStdout(), m)
		},
	}
}

func (a *app) pipelineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pipeline",
		Short: "Run volume decimation, boundary extraction, winding repair and surface decimation in turn",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tm, err := a.volumeMesh()
			if err != nil {
				return err
			}
			vr, err := a.decimateVolume(cmd, tm)
			if err != nil {
				return err
			}
			m, err := a.surfaceMesh(vr.Mesh)
			if err != nil {
				return err
			}
			if _, err := a.repair(cmd, m, a.cfg.Surface.Scramble); err != nil {
				return err
			}
			if err := summarize(cmd.OutOrStdout(), m); err != nil {
				return err
			}
			_, err = a.decimateSurface(cmd, m)
			return err
		},
	}
}

func (a *app) decimateVolume(cmd *cobra.Command, tm *grainmesh.TetMesh) (*decimate.TetResult, error) {
	vc := a.cfg.Volume
	goal := int(math.Round(vc.GoalFraction * float64(len(tm.Tetrahedra))))
	res, err := decimate.Tetrahedra(a.op(cmd, "volume"), tm, decimate.TetConfig{
		Goal:           goal,
		NearestSibling: vc.NearestSibling,
	})
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "tetrahedra\t%d -> %d\ncollapses\t%d\nmax distance\t%d\n",
		len(tm.Tetrahedra), len(res.Mesh.Tetrahedra), res.Collapses, res.MaxDistance)
	err = a.writePlot("distance.png", func(f *os.File) error {
		return quality.DistanceHistogram(f, res.Distance)
	})
	return res, err
}

func (a *app) decimateSurface(cmd *cobra.Command, m *grainmesh.TriangleMesh) (*decimate.SurfaceResult, error) {
	res, err := decimate.Surface(a.op(cmd, "surface"), m, a.cfg.Surface.KeepPercent)
	if err != nil {
		return nil, err
	}
	dev, err := quality.VertexDeviation(m.Vertices, res.Mesh.Vertices)
	if err != nil {
		return nil, err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "triangles\t%d -> %d\ncontractions\t%d\ndeviation max\t%g\ndeviation mean\t%g\ndeviation rms\t%g\n",
		len(m.Triangles), len(res.Mesh.Triangles), res.Contractions, dev.Max, dev.Mean, dev.RMS)
	if err := summarize(out, res.Mesh); err != nil {
		return nil, err
	}
	err = a.writePlot("deviation.png", func(f *os.File) error {
		return quality.DeviationHistogram(f, dev, a.cfg.Report.Bins)
	})
	return res, err
}

// repair fixes the winding of m in place, reversing a random subset of its
// triangles first when scramble is set.
func (a *app) repair(cmd *cobra.Command, m *grainmesh.TriangleMesh, scramble bool) (*winding.Result, error) {
	out := cmd.OutOrStdout()
	if scramble {
		n := meshgen.Scramble(m, a.cfg.Generate.Seed)
		fmt.Fprintf(out, "scrambled\t%d\n", n)
	}
	res, err := winding.Repair(a.op(cmd, "winding"), m)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "reversed\t%d\nglobal reversal\t%t\nsplits\t%d\nconflicts\t%d\nvisited labels\t%d\n",
		res.Reversed, res.GlobalReversal, res.Splits, res.Conflicts, res.Visited)
	for _, d := range res.Diagnostics {
		a.log.Warn("winding diagnostic", zap.Stringer("diagnostic", d))
	}
	return res, nil
}

func summarize(w io.Writer, m *grainmesh.TriangleMesh) error {
	s, err := quality.Summarize(m)
	if err != nil {
		return err
	}
	_, err = s.WriteTo(w)
	return err
}
