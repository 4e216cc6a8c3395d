package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/flashfusion/forge/pkg/model"
	"github.com/flashfusion/forge/pkg/usecase/generation"
	"github.com/flashfusion/forge/pkg/usecase/history"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func generateCommand(logCfg *logConfig) *cli.Command {
	var (
		cfg         config
		genType     string
		prompt      string
		generator   string
		interactive bool
		stepDelay   time.Duration
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "type",
			Aliases:     []string{"t"},
			Usage:       "Generation type, e.g. fullstack-app, content-pack, brand-kit, code-snippets",
			Value:       "fullstack-app",
			Sources:     cli.EnvVars("FORGE_GENERATION_TYPE"),
			Destination: &genType,
		},
		&cli.StringFlag{
			Name:        "prompt",
			Usage:       "What to generate",
			Destination: &prompt,
		},
		&cli.StringFlag{
			Name:        "generator",
			Aliases:     []string{"g"},
			Usage:       "Generator backend (template, gemini)",
			Value:       "template",
			Sources:     cli.EnvVars("FORGE_GENERATOR"),
			Destination: &generator,
		},
		&cli.BoolFlag{
			Name:        "interactive",
			Aliases:     []string{"i"},
			Usage:       "Read prompts from an interactive shell",
			Destination: &interactive,
		},
		&cli.DurationFlag{
			Name:        "step-delay",
			Usage:       "Pause between progress steps",
			Value:       400 * time.Millisecond,
			Sources:     cli.EnvVars("FORGE_STEP_DELAY"),
			Destination: &stepDelay,
		},
	}
	flags = append(flags, storeFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "generate",
		Usage: "Run a generation and save it to history",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = logCfg.withLogger(ctx)

			if !interactive && strings.TrimSpace(prompt) == "" {
				return goerr.New("prompt is required unless --interactive is set")
			}

			kv, closeKV, err := cfg.newKVStore(ctx)
			if err != nil {
				return err
			}
			defer closeKV()

			gen, modelName, err := newGenerator(ctx, &cfg, generator)
			if err != nil {
				return err
			}

			w := c.Root().Writer
			spin := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
			ctrl := generation.NewController(gen, generation.WithStepDelay(stepDelay), generation.WithProgressHook(func(s generation.Status) {
				spin.Lock()
				spin.Suffix = fmt.Sprintf(" %s (%d%%)", s.Step, s.Progress)
				spin.Unlock()
			}))
			uc := generation.New(ctrl, history.New(ctx, kv))

			run := func(ctx context.Context, p string) error {
				ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
				defer stop()

				spin.Start()
				rec, err := uc.Run(ctx, model.GenerationConfig{Type: genType, Prompt: p, Model: modelName})
				spin.Stop()

				if generation.IsCancelled(err) {
					fmt.Fprintln(w, "Generation cancelled")
					return nil
				}
				if err != nil {
					return err
				}
				printRecord(w, rec)
				return nil
			}

			if !interactive {
				return run(ctx, prompt)
			}
			return generateShell(ctx, w, &genType, run)
		},
	}
}

func newGenerator(ctx context.Context, cfg *config, name string) (generation.Generator, string, error) {
	switch name {
	case "template", "":
		return generation.NewTemplateGenerator(), "template", nil

	case "gemini":
		client, err := cfg.newGemini(ctx)
		if err != nil {
			return nil, "", err
		}
		gen, err := generation.NewGeminiGenerator(client)
		if err != nil {
			return nil, "", err
		}
		return gen, client.Model(), nil
	}

	return nil, "", goerr.New("unknown generator", goerr.V("generator", name))
}

// generateShell reads prompts until EOF or "exit". "/type <name>" switches
// the generation type.
func generateShell(ctx context.Context, w io.Writer, genType *string, run func(context.Context, string) error) error {
	historyFile := ""
	if dir, err := os.UserCacheDir(); err == nil {
		historyFile = filepath.Join(dir, "forge_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "forge> ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return goerr.Wrap(err, "failed to start interactive shell")
	}
	defer rl.Close()

	fmt.Fprintf(w, "Generating %s. Type '/type <name>' to switch, 'exit' to quit.\n", *genType)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return goerr.Wrap(err, "failed to read input")
		}

		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case line == "exit":
			return nil
		case strings.HasPrefix(line, "/type "):
			*genType = strings.TrimSpace(strings.TrimPrefix(line, "/type "))
			fmt.Fprintf(w, "Generation type set to %s\n", *genType)
			continue
		}

		if err := run(ctx, line); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
		}
	}
}

func printRecord(w io.Writer, rec *model.GenerationRecord) {
	fmt.Fprintf(w, "%s\t%s\n", rec.ID, rec.Title)
	if rec.Description != "" {
		fmt.Fprintf(w, "  %s\n", rec.Description)
	}
	for _, f := range rec.Files {
		if f == nil {
			continue
		}
		fmt.Fprintf(w, "  %-6s %-28s %s\n", f.Kind, f.Name, f.SizeLabel)
	}
}
