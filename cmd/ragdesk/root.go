// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/sigil-dev/ragdesk/internal/config"
	"github.com/sigil-dev/ragdesk/internal/secrets"
	ragerr "github.com/sigil-dev/ragdesk/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const dotEnvFile = ".env"

// NewRootCmd creates the root ragdesk command with all subcommands
// registered. Without a subcommand it opens the terminal UI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ragdesk",
		Short:         "ragdesk: manage Gemini file search stores and ask grounded questions",
		Long:          "ragdesk manages remote file search stores, uploads documents to them and answers questions grounded on their contents.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initViper(cmd); err != nil {
				return err
			}
			return setupLogging(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			closeLogFile()
		},
		RunE: runTUI,
	}

	// Global flags. initViper maps them to viper keys.
	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	root.PersistentFlags().String("log-file", "", "write logs to this file instead of stderr")
	root.PersistentFlags().String("model", "", "model used to answer queries")

	root.AddCommand(
		newTUICmd(),
		newServeCmd(),
		newStatusCmd(),
		newStoreCmd(),
		newDocCmd(),
		newQueryCmd(),
		newSecretCmd(),
		newDoctorCmd(),
		newVersionCmd(),
	)

	return root
}

// initViper loads .env, then sets up the global Viper with defaults, env
// bindings, flag bindings and the optional config file so the precedence
// flag > env > file > defaults is handled uniformly. keyring:// values are
// resolved last.
func initViper(cmd *cobra.Command) error {
	if err := godotenv.Load(dotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ragerr.Errorf(ragerr.CodeConfigLoadReadFailure, "reading %s: %w", dotEnvFile, err)
	}

	v := viper.GetViper()
	config.SetDefaults(v)
	config.SetupEnv(v)

	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return ragerr.Errorf(ragerr.CodeConfigLoadReadFailure, "reading config file: %w", err)
		}
	} else {
		// SetConfigType is omitted: with it Viper also tries the bare name,
		// which collides with a ./ragdesk binary.
		v.SetConfigName("ragdesk")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/ragdesk")
		v.AddConfigPath("/etc/ragdesk")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return ragerr.Errorf(ragerr.CodeConfigLoadReadFailure, "reading config: %w", err)
			}
			if path := config.BootstrapConfig(); path != "" {
				v.SetConfigFile(path)
				if err := v.ReadInConfig(); err != nil {
					return ragerr.Errorf(ragerr.CodeConfigLoadReadFailure, "reading bootstrapped config: %w", err)
				}
			}
		}
	}

	flags := cmd.Root().PersistentFlags()
	for key, flag := range map[string]string{
		"verbose":  "verbose",
		"log_file": "log-file",
		"model":    "model",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return ragerr.Errorf(ragerr.CodeCLISetupFailure, "binding %s flag: %w", flag, err)
		}
	}

	config.WarnInsecurePermissions(v.ConfigFileUsed(), dotEnvFile)
	secrets.ResolveViperSecrets(v, secretStoreFactory())
	return nil
}

var logFile *os.File

// setupLogging installs the default slog handler. Logs go to --log-file
// when set, else to stderr; the terminal UI discards them instead so the
// alternate screen stays intact.
func setupLogging(cmd *cobra.Command) error {
	level := slog.LevelInfo
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}

	var w io.Writer = cmd.ErrOrStderr()
	if path := viper.GetString("log_file"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return ragerr.Errorf(ragerr.CodeCLISetupFailure, "opening log file: %w", err)
		}
		closeLogFile()
		logFile = f
		w = f
	} else if isTUI(cmd) {
		w = io.Discard
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return nil
}

func closeLogFile() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}
