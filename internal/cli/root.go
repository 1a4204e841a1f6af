// Package cli implements the dailycode command line.
//
// Every command loads the configuration, opens the configured storage
// backend, runs one EditorController action and prints its notice. The
// serve command exposes the same controller over HTTP instead.
package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/daily-code/internal/config"
	"github.com/sakif/daily-code/internal/model"
	"github.com/sakif/daily-code/internal/server"
	"github.com/sakif/daily-code/internal/service"
)

// NewRootCommand returns the dailycode command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "dailycode",
		Short:         "Generate, save and browse short educational code snippets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCommand(),
		newInitCommand(),
		newKeyCommand(),
		newSaveCommand(),
		newLoadCommand(),
		newListCommand(),
		newDeleteCommand(),
		newGenerateCommand(),
	)
	return root
}

// withApp loads the configuration, opens the app for the duration of fn and
// closes it afterwards.
func withApp(cmd *cobra.Command, fn func(a *app) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := cfg.NewLogger()

	a, err := openApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(a)
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the editor API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				srv := server.New(server.Config{
					Addr:         a.config.Addr(),
					WriteTimeout: a.config.GenerationTimeout + 30*time.Second,
				}, a.controller, a.logger)
				return srv.Start(cmd.Context())
			})
		},
	}
}

func newInitCommand() *cobra.Command {
	var language string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Ask for an API key if none is stored, then generate a first snippet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				prompter := newLinePrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
				out := a.controller.Init(cmd.Context(), language, prompter)
				return report(cmd, out, true)
			})
		},
	}
	cmd.Flags().StringVarP(&language, "language", "l", model.DefaultLanguage, "language of the generated snippet")
	return cmd
}

func newKeyCommand() *cobra.Command {
	keyCmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the stored API key",
	}

	keyCmd.AddCommand(&cobra.Command{
		Use:   "set [api-key]",
		Short: "Store an API key, replacing any previous one (prompts when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				var key string
				if len(args) == 1 {
					key = args[0]
				} else {
					var err error
					key, err = newLinePrompter(cmd.InOrStdin(), cmd.ErrOrStderr()).PromptCredential(cmd.Context())
					if err != nil {
						return err
					}
				}
				return report(cmd, a.controller.SetCredential(cmd.Context(), key), false)
			})
		},
	})

	keyCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Report whether an API key is stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				if a.controller.HasCredential(cmd.Context()) {
					fmt.Fprintln(cmd.OutOrStdout(), "API key: stored")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "API key: not set")
				}
				return nil
			})
		},
	})

	return keyCmd
}

func newSaveCommand() *cobra.Command {
	var language, file string
	cmd := &cobra.Command{
		Use:   "save <filename>",
		Short: "Save code under a filename (code is read from --file or stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := readCode(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			return withApp(cmd, func(a *app) error {
				return report(cmd, a.controller.Save(cmd.Context(), args[0], language, code), false)
			})
		},
	}
	cmd.Flags().StringVarP(&language, "language", "l", model.DefaultLanguage, "language of the snippet")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the code from this file instead of stdin")
	return cmd
}

func newLoadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "load <filename>",
		Short: "Print a saved snippet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				return report(cmd, a.controller.Load(cmd.Context(), args[0]), true)
			})
		},
	}
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved snippets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				out := a.controller.List(cmd.Context())
				printSnippets(cmd.OutOrStdout(), out.Snippets)
				return nil
			})
		},
	}
}

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <filename>",
		Short: "Delete a saved snippet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				out := a.controller.Delete(cmd.Context(), args[0])
				if err := report(cmd, out, false); err != nil {
					return err
				}
				printSnippets(cmd.OutOrStdout(), out.Snippets)
				return nil
			})
		},
	}
}

func newGenerateCommand() *cobra.Command {
	var language, prompt, saveAs string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a snippet and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				out := a.controller.Regenerate(cmd.Context(), language, prompt)
				if err := report(cmd, out, true); err != nil {
					return err
				}
				if saveAs == "" {
					return nil
				}
				return report(cmd, a.controller.Save(cmd.Context(), saveAs, out.State.Language, out.State.Code), false)
			})
		},
	}
	cmd.Flags().StringVarP(&language, "language", "l", model.DefaultLanguage, "language of the generated snippet")
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "custom prompt (defaults to a general educational request)")
	cmd.Flags().StringVarP(&saveAs, "save", "s", "", "also save the result under this filename")
	return cmd
}

// ---------- Output ----------

// report prints the outcome's notice to stderr and, when withCode is set
// and the action succeeded, the buffer's code to stdout. A failed outcome
// becomes the command's error so the exit status is non-zero.
func report(cmd *cobra.Command, out service.Outcome, withCode bool) error {
	if out.Err != nil {
		if out.Notice != nil {
			return &noticeError{message: out.Notice.Message, err: out.Err}
		}
		return out.Err
	}
	if out.Notice != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", out.State.LanguageTag, out.Notice.Message)
	}
	if withCode {
		fmt.Fprintln(cmd.OutOrStdout(), out.State.Code)
	}
	return nil
}

// noticeError shows the user-facing notice but keeps the underlying error
// reachable for errors.Is.
type noticeError struct {
	message string
	err     error
}

func (e *noticeError) Error() string { return e.message }
func (e *noticeError) Unwrap() error { return e.err }

func printSnippets(w io.Writer, snippets []model.SnippetSummary) {
	if len(snippets) == 0 {
		fmt.Fprintln(w, "No saved snippets.")
		return
	}
	for _, s := range snippets {
		fmt.Fprintf(w, "%-30s %-12s %s\n", s.Filename, s.Language, s.LastModified.Local().Format(time.DateTime))
	}
}

func readCode(stdin io.Reader, file string) (string, error) {
	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", file, err)
		}
		return string(b), nil
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(b), nil
}
