package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/objstore/internal/version"
	"github.com/arthur-debert/objstore/pkg/config"
	"github.com/arthur-debert/objstore/pkg/errors"
	"github.com/arthur-debert/objstore/pkg/logging"
	"github.com/arthur-debert/objstore/pkg/paths"
	"github.com/arthur-debert/objstore/pkg/store"
	"github.com/arthur-debert/objstore/pkg/ui"
)

// app holds the global flags and what PersistentPreRunE builds from them.
type app struct {
	verbosity  int
	configPath string
	root       string
	cacheDir   string
	format     string
	cached     bool
	timeoutMs  int

	manager  *store.Manager
	renderer *ui.Renderer
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "objstore",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Setup logging based on verbosity
			logging.SetupLogger(a.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
			return a.setup(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		DisableAutoGenTag: true,
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.CountVarP(&a.verbosity, "verbose", "v", MsgFlagVerbose)
	flags.StringVar(&a.configPath, "config", "", MsgFlagConfig)
	flags.StringVar(&a.root, "root", "", MsgFlagRoot)
	flags.StringVar(&a.cacheDir, "cache-dir", "", MsgFlagCacheDir)
	flags.StringVar(&a.format, "format", "auto", MsgFlagFormat)
	flags.BoolVar(&a.cached, "cached", false, MsgFlagCached)
	flags.IntVar(&a.timeoutMs, "timeout", 0, MsgFlagTimeout)

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCreateCmd(a))
	rootCmd.AddCommand(newPutCmd(a))
	rootCmd.AddCommand(newGetCmd(a))
	rootCmd.AddCommand(newLsCmd(a))
	rootCmd.AddCommand(newInfoCmd(a))
	rootCmd.AddCommand(newRmStoreCmd(a))
	rootCmd.AddCommand(newCacheDirCmd(a))
	rootCmd.AddCommand(newServeCmd(a))

	return rootCmd
}

// setup loads the configuration, applies flag overrides and builds the
// store manager and renderer used by every subcommand.
func (a *app) setup(cmd *cobra.Command) error {
	overrides := map[string]interface{}{}
	if a.root != "" {
		overrides["store.root"] = a.root
	}
	if a.cacheDir != "" {
		overrides["cache.dir"] = a.cacheDir
	}
	if codec, _ := cmd.Flags().GetString("codec"); codec != "" {
		overrides["store.codec"] = codec
	}

	cfg, err := config.LoadWithOverrides(a.configFile(), overrides)
	if err != nil {
		return errors.Wrap(err, errors.ErrConfigLoad, MsgErrLoadConfig)
	}
	if a.verbosity == 0 && cfg.Log.Verbosity > 0 {
		logging.SetupLogger(cfg.Log.Verbosity)
	}

	format, err := ui.ParseFormat(a.format)
	if err != nil {
		return err
	}
	a.renderer = ui.NewRenderer(cmd.OutOrStdout(), resolveFormat(format, cmd.OutOrStdout()))

	a.manager, err = store.NewManager(cfg)
	if err != nil {
		return errors.Wrap(err, errors.GetErrorCode(err), MsgErrManager)
	}

	log.Debug().
		Str("config", a.configFile()).
		Str("cache_dir", a.manager.CacheDir()).
		Msg("Store manager ready")
	return nil
}

func (a *app) configFile() string {
	if a.configPath != "" {
		return a.configPath
	}
	p, err := paths.New(a.root)
	if err != nil {
		return ""
	}
	return p.ConfigFile()
}

func (a *app) options() store.Options {
	return store.Options{
		AsynchronousOpen: a.timeoutMs > 0,
		AsyncTimeoutMs:   a.timeoutMs,
		CachedRead:       a.cached,
	}
}

// resolveFormat picks a concrete format. Writers that are not terminals
// get plain text.
func resolveFormat(f ui.Format, out io.Writer) ui.Format {
	if file, ok := out.(*os.File); ok {
		return f.Resolve(file)
	}
	if f == ui.FormatAuto {
		return ui.FormatText
	}
	return f
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: MsgVersionShort,
		Long:  MsgVersionLong,
		// no store manager needed
		PersistentPreRun: func(cmd *cobra.Command, args []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, MsgVersionFormat, version.Version)
			if version.Commit != "" {
				fmt.Fprintf(out, MsgCommitFormat, version.Commit)
			}
			if version.Date != "" {
				fmt.Fprintf(out, MsgBuiltFormat, version.Date)
			}
		},
	}
}
