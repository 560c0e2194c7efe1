package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/posttranslate/internal"
)

// Runner executes the subcommands. The cmd package wires it to the real
// stores and providers.
type Runner interface {
	Serve(ctx context.Context, addr string) error
	Translate(ctx context.Context, text, from, to string) error
	Detect(ctx context.Context, text string) error
	Check(ctx context.Context) error
	ListModels(ctx context.Context) error
	DetectPending(ctx context.Context) error
}

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags, runner Runner) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "posttranslate",
		Short: "Machine translation for forum posts and topics",
		Long: `posttranslate detects the language of forum posts and translates them
through Microsoft, Google, Yandex, LibreTranslate, Amazon or an AI backend.

Examples:
  posttranslate serve                     # Run the HTTP API
  posttranslate translate "Guten Tag"     # Translate text into the default locale
  posttranslate detect "Bonjour"          # Detect the language of text
  posttranslate check                     # Show translator problems`,
		Version:       internal.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	setupFlags(rootCmd, flags)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runner.Serve(cmd.Context(), viper.GetString("server.addr"))
		},
	}
	serveCmd.Flags().StringVar(&flags.Addr, "addr", flags.Addr, "HTTP listen address")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	translateCmd := &cobra.Command{
		Use:   "translate [text]",
		Short: "Translate text into --locale",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runner.Translate(cmd.Context(), args[0], flags.From, viper.GetString("translator.default_locale"))
		},
	}
	translateCmd.Flags().StringVar(&flags.From, "from", "", "Source locale (default: detected)")

	detectCmd := &cobra.Command{
		Use:   "detect [text]",
		Short: "Detect the language of text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runner.Detect(cmd.Context(), args[0])
		},
	}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Report translator configuration problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runner.Check(cmd.Context())
		},
	}

	listModelsCmd := &cobra.Command{
		Use:   "list-models",
		Short: "List chat models available to the AI backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runner.ListModels(cmd.Context())
		},
	}

	detectPendingCmd := &cobra.Command{
		Use:   "detect-pending",
		Short: "Detect the language of queued posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runner.DetectPending(cmd.Context())
		},
	}

	rootCmd.AddCommand(serveCmd, translateCmd, detectCmd, checkCmd, listModelsCmd, detectPendingCmd)
	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.posttranslate.yaml)")
	cmd.PersistentFlags().StringVarP(&flags.Provider, "provider", "p", flags.Provider, "Translation provider: Microsoft, Google, Yandex, LibreTranslate, Amazon, DiscourseAi")
	cmd.PersistentFlags().StringVarP(&flags.Locale, "locale", "l", flags.Locale, "Target locale")
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Log provider requests")

	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	viper.BindPFlag("translator.provider", cmd.PersistentFlags().Lookup("provider"))
	viper.BindPFlag("translator.default_locale", cmd.PersistentFlags().Lookup("locale"))
	viper.BindPFlag("translator.verbose_logs", cmd.PersistentFlags().Lookup("verbose"))
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	// A missing .env is fine
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".posttranslate" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".posttranslate")
	}

	// POSTTRANSLATE_TRANSLATOR_ENABLED maps to translator.enabled
	viper.SetEnvPrefix("POSTTRANSLATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
