package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/soyeahso/docent/internal/agent"
	"github.com/soyeahso/docent/internal/config"
	"github.com/soyeahso/docent/internal/extract"
	"github.com/spf13/cobra"
)

// loadDocument reads a local file the way POST /files/ reads an upload.
func loadDocument(path string, server config.ServerConfig) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := extract.ReadLimited(f, server.MaxUploadBytes)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	text, err := extract.Text(data, contentType)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	text = extract.Truncate(text, server.DocumentChars)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%s: %w", path, errNoDocument)
	}
	return text, nil
}

// prepare loads config, logging, the app and the document for chat and ask.
func prepare(ctx context.Context, file string) (*app, string, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, "", nil, err
	}
	closeLog, err := openLogger(cfg)
	if err != nil {
		return nil, "", nil, err
	}
	doc, err := loadDocument(file, cfg.Server)
	if err != nil {
		closeLog()
		return nil, "", nil, err
	}
	a, err := buildApp(ctx, cfg, paths, log)
	if err != nil {
		closeLog()
		return nil, "", nil, err
	}
	return a, doc, func() { a.Close(); closeLog() }, nil
}

// toolPrinter reports tool calls on w as they start.
func toolPrinter(w io.Writer) agent.EventFunc {
	return func(e agent.Event) {
		if e.Type == agent.EventToolStart {
			fmt.Fprintf(w, "  [%s]\n", e.Tool)
		}
	}
}

func newChatCmd() *cobra.Command {
	var (
		file      string
		showTools bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat interactively about a local document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, doc, cleanup, err := prepare(ctx, file)
			if err != nil {
				return err
			}
			defer cleanup()

			return chatLoop(ctx, a, doc, cmd.InOrStdin(), cmd.OutOrStdout(), showTools)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "document to chat about (text or PDF)")
	cmd.Flags().BoolVar(&showTools, "show-tools", false, "print each tool call")
	cmd.MarkFlagRequired("file")
	return cmd
}

// chatLoop answers one question per input line until EOF, "exit" or "quit".
func chatLoop(ctx context.Context, a *app, doc string, in io.Reader, out io.Writer, showTools bool) error {
	userID := uuid.New().String()
	var cb agent.EventFunc
	if showTools {
		cb = toolPrinter(out)
	}

	fmt.Fprintf(out, "Loaded %d characters. Type \"exit\" to quit.\n", len([]rune(doc)))
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		result, err := a.ask(ctx, userID, doc, line, cb)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, result.Response)
	}
}

func newAskCmd() *cobra.Command {
	var (
		file      string
		showTools bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a single question about a local document",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, doc, cleanup, err := prepare(ctx, file)
			if err != nil {
				return err
			}
			defer cleanup()

			var cb agent.EventFunc
			if showTools {
				cb = toolPrinter(cmd.ErrOrStderr())
			}
			result, err := a.ask(ctx, uuid.New().String(), doc, strings.Join(args, " "), cb)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Response)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "document to ask about (text or PDF)")
	cmd.Flags().BoolVar(&showTools, "show-tools", false, "print each tool call on stderr")
	cmd.MarkFlagRequired("file")
	return cmd
}
