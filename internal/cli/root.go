// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/chetna-wellness/chetna/internal/commands"
	"github.com/chetna-wellness/chetna/internal/config"
	"github.com/chetna-wellness/chetna/internal/export"
	"github.com/chetna-wellness/chetna/internal/settings"
	"github.com/chetna-wellness/chetna/internal/storage"
	"github.com/chetna-wellness/chetna/internal/suggest"
	uichat "github.com/chetna-wellness/chetna/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// ROOT COMMAND
// =============================================================================

// rootOptions hold the persistent flags.
type rootOptions struct {
	configPath string
	storage    string
	language   string
	logLevel   string
	mode       string

	// logger replaces logging.Setup. Tests set it.
	logger *zerolog.Logger
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand(&rootOptions{})
	if err := root.ExecuteContext(ctx); err != nil {
		DisplayError(os.Stderr, err)
		return GetExitCode(err)
	}
	return ExitSuccess
}

// NewRootCommand builds the chetna command tree.
func NewRootCommand(opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:   "chetna",
		Short: "Chetna - a mental wellness companion for your terminal",
		Long: `Chetna is a supportive chat companion. Talk about how you feel,
get follow-up ideas, and listen to replies read aloud.

Start chatting:        chetna
Plain line mode:       chetna chat --mode line
Playback settings:     chetna settings speed 1.0
Configuration:         chetna config show`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, opts)
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "config file path (default ~/.chetna/config.toml)")
	pf.StringVar(&opts.storage, "storage", "", "local storage backend: file, pebble or memory")
	pf.StringVar(&opts.language, "lang", "", "interface language (e.g. en, hi)")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	root.AddCommand(
		chatCmd(opts),
		historyCmd(opts),
		clearCmd(opts),
		exportCmd(opts),
		settingsCmd(opts),
		suggestCmd(),
		configCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "chetna %s\n", root.Version)
			},
		},
	)
	return root
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFromPath(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if opts.storage != "" {
		cfg.Storage.Backend = opts.storage
	}
	if opts.language != "" {
		cfg.Chat.Language = opts.language
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.mode != "" {
		cfg.UI.Mode = opts.mode
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configPath returns the file the running config came from.
func configPath(opts *rootOptions) string {
	if opts.configPath != "" {
		return opts.configPath
	}
	if p, err := config.ConfigPathTOML(); err == nil {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	if p, err := config.ConfigPathJSON(); err == nil {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// openApp builds the app for a one-shot command. Logs go to the log file
// so they do not mix with command output.
func openApp(opts *rootOptions) (*App, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	return Build(cfg, Options{Quiet: true, Logger: opts.logger})
}

// =============================================================================
// CHAT
// =============================================================================

func chatCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start a conversation",
		Long: `Start a conversation. The full-screen interface is used on a terminal,
line mode otherwise. Type /help inside the chat for commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.mode, "mode", "", "interface: auto, tui or line")
	return cmd
}

func runChat(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	mode := cfg.UI.Mode
	if mode == "" || mode == "auto" {
		mode = "line"
		if Interactive() {
			mode = "tui"
		}
	}

	app, err := Build(cfg, Options{
		Quiet:      mode == "tui",
		Stderr:     cmd.ErrOrStderr(),
		ConfigPath: configPath(opts),
		Watch:      true,
		Logger:     opts.logger,
	})
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := app.Start(ctx); err != nil {
		return err
	}

	if mode == "tui" {
		return runTUI(ctx, app)
	}
	return runLine(ctx, app, cmd.OutOrStdout())
}

func runTUI(ctx context.Context, app *App) error {
	m := uichat.New(uichat.Deps{
		Chat:           app.Chat,
		Commands:       app.Commands,
		Env:            app.Env,
		Notes:          app.Notes.C(),
		ShowTimestamps: app.Config.UI.ShowTimestamps,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if fm, ok := final.(uichat.Model); ok {
		fm.Close()
	} else {
		m.Close()
	}
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("chat interface failed: %w", err)
	}
	return nil
}

func runLine(ctx context.Context, app *App, out io.Writer) error {
	ui := NewLineUI(LineDeps{
		Chat:     app.Chat,
		Commands: app.Commands,
		Env:      app.Env,
		Notes:    app.Notes.C(),
		Prompter: NewChatCLI(commands.NewCompleter(app.Commands)),
		Out:      out,
		Markdown: ColorsEnabled(),
	})
	return ui.Run(ctx)
}

// =============================================================================
// HISTORY
// =============================================================================

func historyCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show your recorded messages",
		Long:  "Show the messages recorded for the signed-in user, oldest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp(opts)
			if err != nil {
				return err
			}
			defer app.Close()

			u := app.Auth.CurrentUser()
			if u == nil {
				return &CommandError{Command: "history", Action: "show", Reason: "not signed in (use /login in chat or set [user] name)"}
			}
			if app.Records == nil {
				return &NotFoundError{Resource: "record store"}
			}
			recs, err := app.Records.Conversations(cmd.Context(), u.ID, limit)
			if err != nil {
				return &CommandError{Command: "history", Action: "show", Reason: "query failed", Err: err}
			}

			out := cmd.OutOrStdout()
			if len(recs) == 0 {
				fmt.Fprintln(out, "No recorded messages.")
				return nil
			}
			you, bot := app.Localizer.T("chat.you", nil), app.Localizer.T("chat.assistant", nil)
			for i := len(recs) - 1; i >= 0; i-- {
				r := recs[i]
				who := you
				if r.IsBot {
					who = bot
				}
				fmt.Fprintf(out, "%s %s %s\n",
					RenderConditional(DimStyle, humanize.Time(r.CreatedAt)),
					RenderConditional(AssistantStyle, who+":"),
					r.Message)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of messages to show")
	return cmd
}

// =============================================================================
// CLEAR
// =============================================================================

func clearCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the saved conversation",
		Long:  "Delete the locally saved conversation. The next chat starts with a fresh welcome.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp(opts)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := storage.NewMessageStore(app.KV, app.Logger).Remove(); err != nil {
				return &CommandError{Command: "clear", Action: "remove", Reason: "could not delete the saved conversation", Err: err}
			}
			fmt.Fprintln(cmd.OutOrStdout(), RenderConditional(SuccessStyle, "Conversation cleared."))
			return nil
		},
	}
}

// =============================================================================
// EXPORT
// =============================================================================

func exportCmd(opts *rootOptions) *cobra.Command {
	var (
		format     string
		outputDir  string
		timestamps bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Save the current conversation as Markdown or JSON",
		Long: `Write the locally saved conversation to a file readable only by you.

Formats: markdown (default), json`,
		Example: `  chetna export
  chetna export --format json -o ~/journal`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp(opts)
			if err != nil {
				return err
			}
			defer app.Close()

			tr, ok := storage.NewMessageStore(app.KV, app.Logger).Load()
			if !ok {
				return &NotFoundError{Resource: "saved conversation"}
			}
			eo := &export.Options{
				OutputDir:         outputDir,
				UserLabel:         app.Localizer.T("chat.you", nil),
				AssistantLabel:    app.Localizer.T("chat.assistant", nil),
				IncludeTimestamps: timestamps,
			}
			exporter, err := export.ForFormat(format, eo)
			if err != nil {
				return &UsageError{Arg: format, Reason: err.Error()}
			}
			path, err := export.ExportToFile(tr, exporter, eo)
			if err != nil {
				return &CommandError{Command: "export", Action: "write", Reason: "could not export the conversation", Err: err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", RenderConditional(SuccessStyle, "[OK]"), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "output format: markdown or json")
	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "directory for the exported file")
	cmd.Flags().BoolVar(&timestamps, "timestamps", true, "include message times")
	return cmd
}

// =============================================================================
// SETTINGS
// =============================================================================

var settingKeys = []string{"autoplay", "speed", "muted"}

func settingsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "settings [key [value]]",
		Short: "Show or change playback settings",
		Long: `Show or change the playback settings shared by every conversation.

Keys:
  autoplay   read new replies aloud (on/off)
  speed      playback speed, 0.5 to 1.5
  muted      silence playback (on/off)`,
		Example: `  chetna settings
  chetna settings speed 1.1
  chetna settings autoplay on`,
		Args:      cobra.MaximumNArgs(2),
		ValidArgs: settingKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(opts)
			if err != nil {
				return err
			}
			defer app.Close()

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				p := app.Settings.Get()
				fmt.Fprintln(out, RenderConditional(TitleStyle, "Playback settings"))
				fmt.Fprintf(out, "%s%s\n", RenderLabel("autoplay"), onOff(p.AutoPlay))
				fmt.Fprintf(out, "%s%.2f\n", RenderLabel("speed"), p.Speed)
				fmt.Fprintf(out, "%s%s\n", RenderLabel("muted"), onOff(p.Muted))
				return nil
			}
			if len(args) == 1 {
				v, err := settingValue(app.Settings.Get(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(out, v)
				return nil
			}
			if err := applySetting(app.Settings, args[0], args[1]); err != nil {
				return err
			}
			v, _ := settingValue(app.Settings.Get(), args[0])
			fmt.Fprintf(out, "%s = %s\n", args[0], v)
			return nil
		},
	}
}

func settingValue(p settings.Playback, key string) (string, error) {
	switch strings.ToLower(key) {
	case "autoplay":
		return onOff(p.AutoPlay), nil
	case "speed":
		return strconv.FormatFloat(p.Speed, 'f', 2, 64), nil
	case "muted":
		return onOff(p.Muted), nil
	}
	return "", &UsageError{Arg: key, Reason: "unknown setting (want " + strings.Join(settingKeys, ", ") + ")"}
}

func applySetting(s *settings.Store, key, value string) error {
	switch strings.ToLower(key) {
	case "autoplay":
		on, err := parseOnOff(value)
		if err != nil {
			return err
		}
		s.SetAutoPlay(on)
	case "muted":
		on, err := parseOnOff(value)
		if err != nil {
			return err
		}
		s.SetMuted(on)
	case "speed":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return &UsageError{Arg: value, Reason: "speed must be a number"}
		}
		s.SetSpeed(f)
	default:
		return &UsageError{Arg: key, Reason: "unknown setting (want " + strings.Join(settingKeys, ", ") + ")"}
	}
	return nil
}

func parseOnOff(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, &UsageError{Arg: v, Reason: "want on or off"}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// =============================================================================
// SUGGEST
// =============================================================================

func suggestCmd() *cobra.Command {
	var topic string
	cmd := &cobra.Command{
		Use:   "suggest <reply text>",
		Short: "Show the follow-up questions offered after a reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for i, s := range suggest.Generate(strings.Join(args, " "), topic) {
				fmt.Fprintf(out, "%d. %s\n", i+1, s)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&topic, "topic", "", "topic hint that takes priority over the reply text")
	return cmd
}

// =============================================================================
// CONFIG
// =============================================================================

func configCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and modify configuration",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Display the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := loadConfig(opts)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cfg.String())
				return nil
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print one value (e.g. chat.guest_message_limit)",
			Args:  cobra.ExactArgs(1),
			ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
				return config.GetAllKeys(), cobra.ShellCompDirectiveNoFileComp
			},
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig(opts)
				if err != nil {
					return err
				}
				v, err := cfg.Get(args[0])
				if err != nil {
					return &UsageError{Arg: args[0], Reason: err.Error()}
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change one value and save the config file",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig(opts)
				if err != nil {
					return err
				}
				if err := cfg.Set(args[0], args[1]); err != nil {
					return &UsageError{Arg: args[0], Reason: err.Error()}
				}
				if err := cfg.Validate(); err != nil {
					return err
				}
				if err := saveConfig(opts, cfg); err != nil {
					return &CommandError{Command: "config", Action: "set", Reason: "could not save", Err: err}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s\n", RenderConditional(SuccessStyle, "[OK]"), args[0], args[1])
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Show the configuration file location",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				p := opts.configPath
				if p == "" {
					var err error
					if p, err = config.ConfigPathTOML(); err != nil {
						return err
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), p)
				return nil
			},
		},
	)
	return cmd
}

func saveConfig(opts *rootOptions, cfg *config.Config) error {
	if opts.configPath == "" {
		return config.Save(cfg)
	}
	if strings.HasSuffix(strings.ToLower(opts.configPath), ".json") {
		return config.SaveJSON(cfg, opts.configPath)
	}
	return config.SaveTOML(cfg, opts.configPath)
}
