package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"corview/internal/catalog"
	"corview/internal/config"
	"corview/internal/imaging"
	"corview/internal/render"
	"corview/internal/server"
	"corview/internal/session"

	"github.com/spf13/cobra"
)

type loadVolumeFunc func(path string) (*imaging.Volume, error)
type loadSliceFunc func(path string, position float64, frameCount int) (*imaging.Slice, error)
type probeFunc func(path string) (imaging.Info, error)
type serveFunc func(ctx context.Context, addr, artifactDir string, sess *session.Session, cat *catalog.Store, log *slog.Logger) error

// Root carries the wiring every command shares. The decode and serve
// functions are fields so tests can run commands without ImageMagick or a
// listening socket.
type Root struct {
	cfg *config.Config
	log *slog.Logger
	cat *catalog.Store

	loadVolume loadVolumeFunc
	loadSlice  loadSliceFunc
	probe      probeFunc
	serveFn    serveFunc
}

// NewRoot constructs the command wiring with production decoders.
func NewRoot(cfg *config.Config, log *slog.Logger, cat *catalog.Store) *Root {
	return &Root{
		cfg:        cfg,
		log:        log,
		cat:        cat,
		loadVolume: imaging.LoadVolume,
		loadSlice:  imaging.LoadSlice,
		probe:      imaging.Probe,
		serveFn:    defaultServe,
	}
}

func defaultServe(ctx context.Context, addr, artifactDir string, sess *session.Session, cat *catalog.Store, log *slog.Logger) error {
	return server.NewServer(addr, artifactDir, sess, cat, log).Start(ctx)
}

// NewRootCmd creates the root Cobra command.
func NewRootCmd(cfg *config.Config, log *slog.Logger, cat *catalog.Store) *cobra.Command {
	root := NewRoot(cfg, log, cat)
	return root.Command()
}

// Command builds the cobra tree over this Root.
func (r *Root) Command() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "corview",
		Short: "Corview compares micro-CT volumes against histology sections",
		Long: `Corview loads a 3D grayscale image stack and 2D color section images,
registers the sections at positions along the stack, and renders linked
two-panel comparison pages for visual inspection.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newRenderCmd(r))
	rootCmd.AddCommand(newInspectCmd(r))
	rootCmd.AddCommand(newServeCmd(r))
	rootCmd.AddCommand(newHistoryCmd(r))
	rootCmd.AddCommand(newConfigCmd(r))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func (r *Root) newRenderer(alpha int, window bool) *render.Renderer {
	return render.New(render.Options{
		PanelWidth:  r.cfg.Render.PanelWidth,
		PanelHeight: r.cfg.Render.PanelHeight,
		Alpha:       uint8(alpha),
		Window:      window,
		WindowLow:   r.cfg.Render.WindowLow,
		WindowHigh:  r.cfg.Render.WindowHigh,
	}, r.log)
}

func newRenderCmd(root *Root) *cobra.Command {
	var (
		volumePath string
		slicePath  string
		position   float64
		frame      int
		output     string
		alpha      int
		window     bool
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a comparison page for one volume frame and one section",
		Long: `Load a 3D stack and a 2D section image, register the section at the
given position, and write a linked two-panel HTML page.

Examples:
  corview render --volume scan.tif --slice section.png --position 41
  corview render --volume scan.tif --slice section.png --position 41 --frame 45 --output cmp.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if alpha < 0 || alpha > 255 {
				return fmt.Errorf("alpha must be in [0, 255], got %d", alpha)
			}

			vol, err := root.loadVolume(volumePath)
			if err != nil {
				return err
			}
			sl, err := root.loadSlice(slicePath, position, vol.FrameCount())
			if err != nil {
				return err
			}

			sess := session.New(root.newRenderer(alpha, window), root.cat, root.log)
			sess.AttachVolume(vol)
			id, err := sess.AddSlice(sl)
			if err != nil {
				return err
			}

			if output == "" {
				output = filepath.Join(root.cfg.Paths.DefaultOutput,
					render.ArtifactName(filepath.Base(slicePath)))
			}

			out, err := sess.Render(id, frame, output)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&volumePath, "volume", "", "3D image stack (multi-frame TIFF or similar)")
	cmd.Flags().StringVar(&slicePath, "slice", "", "2D color section image")
	cmd.Flags().Float64Var(&position, "position", 0, "section position along the stack, in frames")
	cmd.Flags().IntVar(&frame, "frame", -1, "volume frame to show (default: the section's position)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default: output dir + section name)")
	cmd.Flags().IntVar(&alpha, "alpha", 255, "alpha applied to the section image (0-255)")
	cmd.Flags().BoolVar(&window, "window", false, "stretch volume frame contrast by percentile window")
	cmd.MarkFlagRequired("volume")
	cmd.MarkFlagRequired("slice")

	return cmd
}

func newInspectCmd(root *Root) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <path>",
		Short: "Show format and geometry of an image file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := root.probe(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Path:   %s\n", info.Path)
			fmt.Fprintf(out, "Format: %s\n", info.Format)
			fmt.Fprintf(out, "Frames: %d\n", info.Frames)
			fmt.Fprintf(out, "Size:   %dx%d\n", info.Width, info.Height)
			return nil
		},
	}
}

func newServeCmd(root *Root) *cobra.Command {
	var (
		addr        string
		artifactDir string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the interactive session server",
		Long: `Start an HTTP server holding one interactive session: load a volume,
register sections and trigger renders over the API. Finished artifacts are
served under /artifacts/ and announced on the /ws websocket feed.

Examples:
  corview serve
  corview serve --addr :9090 --artifacts /data/corview-out`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sess := session.New(root.newRenderer(root.cfg.Render.Alpha, false), root.cat, root.log)
			return root.serveFn(ctx, addr, artifactDir, sess, root.cat, root.log)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", root.cfg.Server.Addr, "listen address (host:port)")
	cmd.Flags().StringVar(&artifactDir, "artifacts", root.cfg.Server.ArtifactDir, "directory for rendered artifacts")

	return cmd
}

func newHistoryCmd(root *Root) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent render jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := root.cat.RecentRenders(limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(recs) == 0 {
				fmt.Fprintln(out, "no render jobs recorded")
				return nil
			}
			for _, rec := range recs {
				fmt.Fprintf(out, "%s  %-9s  frame %-4d  %s\n",
					rec.CreatedAt.Format("2006-01-02 15:04:05"), rec.Status, rec.Frame, rec.OutputPath)
				if rec.Error != "" {
					fmt.Fprintf(out, "  error: %s\n", rec.Error)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of jobs to show")

	return cmd
}

func newConfigCmd(root *Root) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cfgPath := os.Getenv("CORVIEW_CONFIG")
			if cfgPath == "" {
				cfgPath = "(default) ~/.config/corview/config.json"
			}
			fmt.Fprintf(out, "Config file: %s\n\n", cfgPath)
			fmt.Fprintf(out, "Default output:  %s\n", root.cfg.Paths.DefaultOutput)
			fmt.Fprintf(out, "Catalog path:    %s\n", root.cfg.Paths.CatalogPath)
			fmt.Fprintf(out, "Panel size:      %dx%d\n", root.cfg.Render.PanelWidth, root.cfg.Render.PanelHeight)
			fmt.Fprintf(out, "Section alpha:   %d\n", root.cfg.Render.Alpha)
			fmt.Fprintf(out, "Window:          %.2f - %.2f\n", root.cfg.Render.WindowLow, root.cfg.Render.WindowHigh)
			fmt.Fprintf(out, "Server address:  %s\n", root.cfg.Server.Addr)
			fmt.Fprintf(out, "Artifact dir:    %s\n", root.cfg.Server.ArtifactDir)
			fmt.Fprintf(out, "Log level:       %s\n", root.cfg.Logging.Level)
			fmt.Fprintf(out, "Log format:      %s\n", root.cfg.Logging.Format)
			return nil
		},
	}

	cmd.AddCommand(showCmd)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "corview v1.0.0\n")
			fmt.Fprintf(cmd.OutOrStdout(), "built with %s\n", runtime.Version())
		},
	}
}
