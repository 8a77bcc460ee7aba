package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/judge0/llm-companion/internal/companion"
	"github.com/judge0/llm-companion/internal/config"
	"github.com/judge0/llm-companion/internal/credential"
	"github.com/judge0/llm-companion/internal/relayclient"
	"github.com/judge0/llm-companion/internal/storage/backend"
)

const companionHelp = `Commands:
  /providers           list providers and stored keys
  /model <id>          select a provider
  /key <id> <api-key>  store an API key
  /forget <id>         delete a stored API key
  /fix [error text]    ask for a fix of the current file
  /explain             explain the current file
  /optimize            suggest optimizations for the current file
  /help                show this help
  /quit                exit
Anything else is sent as a chat message.`

func companionCmd() *cobra.Command {
	var (
		relayURL string
		filePath string
		language string
		model    string
	)
	cmd := &cobra.Command{
		Use:   "companion",
		Short: "Chat with the relay about a source file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if relayURL == "" {
				relayURL = cfg.Client.RelayURL
			}

			// Logs go to stderr so they do not interleave with the conversation.
			logger := newLogger(os.Stderr, slog.LevelWarn)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			kv, err := backend.Open(ctx, cfg.Storage)
			if err != nil {
				return err
			}
			defer kv.Close()

			session := credential.NewSession()
			defer session.End()
			store := credential.NewStore(kv, credential.NewCipher(session), credential.WithLogger(logger))

			var editor companion.Editor = companion.StaticEditor{}
			if filePath != "" {
				editor = companion.FileEditor{Path: filePath, Lang: language}
			}

			out := cmd.OutOrStdout()
			c := companion.New(store, relayclient.NewClient(relayURL), newTerminalView(out),
				companion.WithEditor(editor),
				companion.WithModel(model),
				companion.WithLogger(logger),
			)
			return runREPL(ctx, c, cmd.InOrStdin(), out)
		},
	}
	cmd.Flags().StringVar(&relayURL, "relay", "", "relay base URL (default client.relay_url)")
	cmd.Flags().StringVarP(&filePath, "file", "f", "", "source file sent with code requests")
	cmd.Flags().StringVarP(&language, "language", "l", "", "language of --file (default from extension)")
	cmd.Flags().StringVarP(&model, "model", "m", companion.DefaultModel, "provider id")
	return cmd
}

type replAction int

const (
	actionNone replAction = iota
	actionDispatch
	actionProviders
	actionHelp
	actionQuit
)

// parseLine turns one line of input into an action and, for actionDispatch, the
// command to run.
func parseLine(line string) (replAction, companion.Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return actionNone, nil, nil
	}
	if !strings.HasPrefix(line, "/") {
		return actionDispatch, companion.SendChatMessage{Text: line}, nil
	}

	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	fields := strings.Fields(rest)

	switch name {
	case "/quit", "/exit":
		return actionQuit, nil, nil
	case "/help":
		return actionHelp, nil, nil
	case "/providers":
		return actionProviders, nil, nil
	case "/model":
		if len(fields) != 1 {
			return actionNone, nil, errors.New("usage: /model <id>")
		}
		return actionDispatch, companion.SelectModel{ProviderID: fields[0]}, nil
	case "/key":
		if len(fields) != 2 {
			return actionNone, nil, errors.New("usage: /key <id> <api-key>")
		}
		return actionDispatch, companion.SaveCredential{ProviderID: fields[0], APIKey: fields[1]}, nil
	case "/forget":
		if len(fields) != 1 {
			return actionNone, nil, errors.New("usage: /forget <id>")
		}
		return actionDispatch, companion.DeleteCredential{ProviderID: fields[0]}, nil
	case "/fix":
		return actionDispatch, companion.FixCode{ErrorText: rest}, nil
	case "/explain":
		return actionDispatch, companion.ExplainCode{}, nil
	case "/optimize":
		return actionDispatch, companion.OptimizeCode{}, nil
	default:
		return actionNone, nil, fmt.Errorf("unknown command %s (try /help)", name)
	}
}

func runREPL(ctx context.Context, c *companion.Companion, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "judge0-llm companion (%s). Type /help for commands.\n", c.Model())

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		action, cmd, err := parseLine(scanner.Text())
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}

		switch action {
		case actionQuit:
			return nil
		case actionHelp:
			fmt.Fprintln(out, companionHelp)
		case actionProviders:
			printProviders(ctx, c, out)
		case actionDispatch:
			// Failures were already shown by the view.
			_ = c.Dispatch(ctx, cmd)
		}
	}
}

func printProviders(ctx context.Context, c *companion.Companion, out io.Writer) {
	list, err := c.Providers(ctx)
	if err != nil {
		fmt.Fprintf(out, "error: unable to read stored keys: %s\n", err)
		return
	}
	for _, p := range list {
		marker := " "
		if p.Selected {
			marker = "*"
		}
		key := "no key"
		if p.Configured {
			key = "key stored"
		}
		fmt.Fprintf(out, "%s %-20s %-20s %-10s %s\n", marker, p.ID, p.DisplayName, p.Vendor, key)
	}
}

// terminalView renders companion output as plain text.
type terminalView struct {
	out io.Writer
}

func newTerminalView(out io.Writer) *terminalView {
	return &terminalView{out: out}
}

func (v *terminalView) SetBusy(busy bool) {
	if busy {
		fmt.Fprintln(v.out, "... thinking")
	}
}

func (v *terminalView) ShowUserMessage(text string) {}

func (v *terminalView) ShowAssistantMessage(text string) {
	fmt.Fprintf(v.out, "\nassistant:\n%s\n\n", text)
}

func (v *terminalView) ShowNotice(text string) {
	fmt.Fprintln(v.out, text)
}

func (v *terminalView) ShowError(text string) {
	fmt.Fprintf(v.out, "error: %s\n", text)
}
