// Command redline edits a single document with an LLM. The document
// reference is a file path, a wiki page (wiki:Page_Title), or a GitHub
// issue (issue:owner/repo#123). The human describes the change, the model
// edits through occurrence-exact search/replace tool calls, and the result
// is saved back only if the document actually changed.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/martinemde/redline/config"
	"github.com/martinemde/redline/docsource"
	"github.com/martinemde/redline/editloop"
	"github.com/martinemde/redline/render"
	"github.com/martinemde/redline/unifiedllm"
)

var (
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

func main() {
	provider := flag.String("provider", "", "Model provider: openai or google (overrides REDLINE_PROVIDER)")
	model := flag.String("model", "", "Model identifier (overrides REDLINE_MODEL)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: redline [flags] <document-ref>\n\n")
		fmt.Fprintf(os.Stderr, "Document references: a file path, wiki:Page_Title, or issue:owner/repo#123.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *provider, *model); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("redline: "+err.Error()))
		os.Exit(1)
	}
}

func run(docRef, providerFlag, modelFlag string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if providerFlag != "" {
		cfg.Provider = providerFlag
	}
	if modelFlag != "" {
		cfg.Model = modelFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	source, err := docsource.Resolve(docRef, docsource.Options{
		WikiBaseURL: cfg.WikiBaseURL,
		WikiToken:   cfg.WikiToken,
		GitHubToken: cfg.GitHubToken,
	})
	if err != nil {
		return err
	}

	text, err := source.Load(ctx)
	if err != nil {
		return err
	}

	client, err := unifiedllm.NewClientForProvider(ctx, cfg.Provider, cfg.Model, cfg.APIKey())
	if err != nil {
		return err
	}
	defer client.Close()

	buf := editloop.NewBuffer(text)
	session := editloop.NewSession(buf, client, &editloop.SessionConfig{
		Provider:              cfg.Provider,
		Model:                 cfg.Model,
		MaxToolRoundsPerInput: cfg.MaxToolRounds,
		ToolOutputLimit:       cfg.ToolOutputLimit,
		EnableRepeatDetection: true,
		RepeatDetectionWindow: 6,
	})
	defer session.Close()

	turnDone := make(chan struct{}, 1)
	go renderEvents(session.Events(), source.String(), turnDone)

	fmt.Println(statusStyle.Render(fmt.Sprintf("Editing %s (%d bytes) with %s", source, len(buf.Contents()), cfg.Provider)))

	input := newInputReader()

	request, err := input.read("What should I change? ")
	if err != nil {
		// Prompt cancellation is a graceful abort; nothing is saved.
		fmt.Println(warnStyle.Render("Cancelled. Nothing saved."))
		return nil
	}
	if request == "" {
		fmt.Println(warnStyle.Render("No request given. Nothing saved."))
		return nil
	}

	if err := session.Submit(ctx, request); err != nil {
		return err
	}
	<-turnDone

	for {
		feedback, err := input.read("Feedback (empty to finish): ")
		if err != nil {
			fmt.Println(warnStyle.Render("Cancelled. Nothing saved."))
			return nil
		}
		if feedback == "" {
			break
		}
		if err := session.Feedback(ctx, feedback); err != nil {
			return err
		}
		<-turnDone
	}

	return finish(ctx, source, buf)
}

// finish saves the document if it changed, or warns and saves nothing.
func finish(ctx context.Context, source docsource.Source, buf *editloop.Buffer) error {
	if !buf.Modified() {
		fmt.Println(warnStyle.Render("Document unchanged; nothing saved."))
		return nil
	}

	fmt.Println(render.Diff(source.String(), buf.OriginalContents(), buf.Contents()))

	if err := source.Save(ctx, buf.Contents()); err != nil {
		// The save failed but the edits are not lost: show the final text
		// so the human can recover it before the process exits.
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		fmt.Println(statusStyle.Render("Final document contents:"))
		fmt.Println(buf.Contents())
		return fmt.Errorf("document was not saved")
	}

	fmt.Println(statusStyle.Render("Saved " + source.String()))
	return nil
}

// renderEvents consumes session events: assistant text streams through
// verbatim, tool activity becomes status lines, and every successful edit
// is shown as a colored diff. It signals turnDone when the loop goes idle.
func renderEvents(events <-chan editloop.SessionEvent, docName string, turnDone chan<- struct{}) {
	for event := range events {
		switch event.Kind {
		case editloop.EventAssistantTextDelta:
			if delta, ok := event.Data["delta"].(string); ok {
				fmt.Print(delta)
			}
		case editloop.EventAssistantTextEnd:
			fmt.Println()
		case editloop.EventToolCallStart:
			if name, ok := event.Data["tool_name"].(string); ok {
				fmt.Println(statusStyle.Render("· " + name))
			}
		case editloop.EventToolCallEnd:
			if msg, ok := event.Data["error"].(string); ok {
				fmt.Println(warnStyle.Render("  " + msg))
			}
		case editloop.EventDocumentEdited:
			before, _ := event.Data["before"].(string)
			after, _ := event.Data["after"].(string)
			fmt.Print(render.Diff(docName, before, after))
		case editloop.EventRepeatWarning, editloop.EventWarning:
			if msg, ok := event.Data["message"].(string); ok {
				fmt.Println(warnStyle.Render(msg))
			}
		case editloop.EventTurnLimit:
			fmt.Println(warnStyle.Render("Tool round limit reached; returning control."))
		case editloop.EventSessionEnd:
			select {
			case turnDone <- struct{}{}:
			default:
			}
		}
	}
}

// inputReader reads human prompts from the terminal, falling back to plain
// buffered reads when stdin is not a TTY.
type inputReader struct {
	terminal *term.Terminal
	scanner  *bufio.Scanner
}

func newInputReader() *inputReader {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		screen := struct {
			io.Reader
			io.Writer
		}{os.Stdin, os.Stdout}
		return &inputReader{terminal: term.NewTerminal(screen, "")}
	}
	return &inputReader{scanner: bufio.NewScanner(os.Stdin)}
}

// read prompts for one line. io.EOF (and any other read failure) is the
// explicit cancellation signal.
func (r *inputReader) read(label string) (string, error) {
	if r.terminal == nil {
		fmt.Print(label)
		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		return strings.TrimSpace(r.scanner.Text()), nil
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return "", err
	}
	r.terminal.SetPrompt(label)
	line, err := r.terminal.ReadLine()
	restoreErr := term.Restore(fd, oldState)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", err
		}
		return "", io.EOF
	}
	if restoreErr != nil {
		return "", restoreErr
	}
	return strings.TrimSpace(line), nil
}
