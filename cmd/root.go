// Package cmd wires the command-line interface to the validation
// engine.
package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/epubtools/opfcheck/pkg/opf"
	"github.com/epubtools/opfcheck/pkg/report"
	"github.com/epubtools/opfcheck/pkg/validate"
)

var (
	version = "dev"
	cfgFile string
	logger  *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "opfcheck <package.opf>",
	Short: "Validate EPUB package documents",
	Long: `Validates EPUB package (OPF) documents: vocabulary and prefix
resolution, metadata refinement, manifest and spine consistency,
collection shapes, and optional conformance profiles.`,
	Version: version,
	Args:    cobra.ExactArgs(1),
	RunE:    runCheck,

	// Errors are printed by Execute so exit-code errors stay silent.
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/opfcheck/config.yaml)")
	rootCmd.Flags().String("epub-version", "3.0",
		"package document version (2.0 or 3.0)")
	rootCmd.Flags().StringP("profile", "p", "",
		"conformance profile (dict, edupub, idx, preview)")
	rootCmd.Flags().String("severity", "usage",
		"minimum severity to report (fatal, error, warning, usage)")
	rootCmd.Flags().Bool("json", false,
		"write the report as JSON to stdout")
	rootCmd.Flags().BoolP("verbose", "v", false,
		"enable debug logging")

	_ = viper.BindPFlag("epub_version", rootCmd.Flags().Lookup("epub-version"))
	_ = viper.BindPFlag("profile", rootCmd.Flags().Lookup("profile"))
	_ = viper.BindPFlag("severity", rootCmd.Flags().Lookup("severity"))
	_ = viper.BindPFlag("json", rootCmd.Flags().Lookup("json"))
}

func initConfig() {
	viper.SetDefault("epub_version", "3.0")
	viper.SetDefault("severity", "usage")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, _ := os.UserHomeDir()
		viper.AddConfigPath(home + "/.config/opfcheck")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}
	viper.SetEnvPrefix("OPFCHECK")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "reading config: %v\n", err)
		}
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger = log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "opfcheck",
	})
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logger.SetLevel(log.DebugLevel)
	}

	threshold, err := report.ParseSeverity(viper.GetString("severity"))
	if err != nil {
		return err
	}

	opts := validate.Options{
		Version:   validate.Version(viper.GetString("epub_version")),
		Profile:   validate.Profile(viper.GetString("profile")),
		Threshold: threshold,
	}
	if opts.Version != validate.Version2 && opts.Version != validate.Version3 {
		return fmt.Errorf("unknown version %q (want 2.0 or 3.0)", opts.Version)
	}
	switch opts.Profile {
	case validate.ProfileDefault, validate.ProfileDict, validate.ProfileEdupub,
		validate.ProfileIdx, validate.ProfilePreview:
	default:
		return fmt.Errorf("unknown profile %q (want dict, edupub, idx, or preview)", opts.Profile)
	}

	path := args[0]
	logger.Debug("validating package document", "path", path,
		"version", opts.Version, "profile", opts.Profile)

	data, err := opf.FileFetcher{}.Fetch(path)
	if err != nil {
		return err
	}

	r := validate.ValidateSource(data, opts)
	logger.Debug("validation complete",
		"fatal", r.FatalCount(), "errors", r.ErrorCount(),
		"warnings", r.WarningCount(), "usage", r.UsageCount())

	if viper.GetBool("json") {
		if err := r.WriteJSON(os.Stdout); err != nil {
			return fmt.Errorf("writing JSON report: %w", err)
		}
	} else {
		r.WriteText(os.Stdout)
	}

	// Exit codes: 0=valid, 1=errors, 2=fatal. The report has already
	// been written, so the error only carries the code.
	cmd.SilenceUsage = true
	if r.HasFatal() {
		return exitError{code: 2}
	}
	if r.ErrorCount() > 0 {
		return exitError{code: 1}
	}
	return nil
}

type exitError struct{ code int }

func (e exitError) Error() string {
	return fmt.Sprintf("validation finished with exit code %d", e.code)
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		if ee, ok := err.(exitError); ok {
			return ee.code
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	return 0
}

// SetVersion sets the version string (called from main with ldflags).
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
