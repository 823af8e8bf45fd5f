package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mandi-setu/parchi-cli/internal/agent"
	"github.com/mandi-setu/parchi-cli/internal/model"
	"github.com/mandi-setu/parchi-cli/internal/store"
)

var (
	negotiateLanguage string
	negotiateTexts    []string
	negotiateFiles    []string
	negotiateVendor   string
)

var negotiateCmd = &cobra.Command{
	Use:   "negotiate",
	Short: "Run a negotiation session and issue a parchi",
	Long: `Runs a negotiation session against the extraction model. With --text the
given utterances are replayed in order; with --from-file each file is one
conversation (one utterance per line) and files run concurrently. Without
either, utterances are read interactively from stdin.`,
	RunE: runNegotiate,
}

func init() {
	negotiateCmd.Flags().StringVarP(&negotiateLanguage, "language", "l", "", "starting language code (e.g. hi, ta, en)")
	negotiateCmd.Flags().StringArrayVarP(&negotiateTexts, "text", "t", nil, "utterance to replay (repeatable)")
	negotiateCmd.Flags().StringSliceVar(&negotiateFiles, "from-file", nil, "conversation file, one utterance per line (repeatable)")
	negotiateCmd.Flags().StringVar(&negotiateVendor, "vendor", "", "vendor ID to stamp on the issued parchi")
	rootCmd.AddCommand(negotiateCmd)
}

func runNegotiate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	ag, err := initAgent()
	if err != nil {
		return err
	}

	if len(negotiateFiles) > 0 {
		return negotiateFromFiles(ctx, ag, st, negotiateFiles)
	}
	if len(negotiateTexts) > 0 {
		return negotiateScripted(ctx, ag, st, negotiateTexts)
	}
	return negotiateInteractive(ctx, ag, st)
}

// negotiateScripted replays the utterances in order and finalizes if the
// conversation ends without a parchi.
func negotiateScripted(ctx context.Context, ag *agent.Agent, st store.Store, texts []string) error {
	session := ag.StartSession(negotiateLanguage)

	for _, text := range texts {
		result, err := ag.Turn(ctx, session, text)
		if err != nil {
			return err
		}
		fmt.Printf("> %s\n%s\n", text, result.ResponseText)

		if done, err := handleResult(ctx, st, session, result); done || err != nil {
			return err
		}
	}

	if session.State.Terminal() {
		return nil
	}
	result, err := ag.Finalize(ctx, session)
	if err != nil {
		return err
	}
	fmt.Println(result.ResponseText)
	_, err = handleResult(ctx, st, session, result)
	return err
}

// negotiateFromFiles runs one session per file, concurrently.
func negotiateFromFiles(ctx context.Context, ag *agent.Agent, st store.Store, files []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, file := range files {
		file := file
		g.Go(func() error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}

			session := ag.StartSession(negotiateLanguage)
			var last *model.ExtractionResult
			for _, line := range strings.Split(string(data), "\n") {
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				last, err = ag.Turn(ctx, session, line)
				if err != nil {
					return fmt.Errorf("%s: %w", file, err)
				}
				if session.State.Terminal() {
					break
				}
			}

			if last != nil && !session.State.Terminal() {
				last, err = ag.Finalize(ctx, session)
				if err != nil {
					return fmt.Errorf("%s: %w", file, err)
				}
			}
			if last == nil {
				zap.L().Warn("conversation file had no utterances", zap.String("file", file))
				return nil
			}

			fmt.Printf("%s: %s\n", file, last.ResponseText)
			_, err = handleResult(ctx, st, session, last)
			return err
		})
	}

	return g.Wait()
}

// negotiateInteractive reads utterances from stdin until the session closes
// or input ends. A bare "done" finalizes from whatever has been gathered.
func negotiateInteractive(ctx context.Context, ag *agent.Agent, st store.Store) error {
	session := ag.StartSession(negotiateLanguage)
	fmt.Println("Speak your trade (blank line or Ctrl-D to stop, \"done\" to finalize):")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			break
		}

		var (
			result *model.ExtractionResult
			err    error
		)
		if line == "done" {
			result, err = ag.Finalize(ctx, session)
		} else {
			result, err = ag.Turn(ctx, session, line)
		}
		if err != nil {
			return err
		}
		fmt.Println(result.ResponseText)

		if done, err := handleResult(ctx, st, session, result); done || err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	if !session.State.Terminal() {
		ag.Abandon(session)
		fmt.Println("Session abandoned; no parchi issued.")
	}
	return nil
}

// handleResult persists an issued parchi and reports whether the session is
// finished.
func handleResult(ctx context.Context, st store.Store, session *model.ConversationContext, result *model.ExtractionResult) (bool, error) {
	if result.Parchi == nil {
		return session.State.Terminal(), nil
	}

	if negotiateVendor != "" {
		result.Parchi.VendorID = negotiateVendor
	}
	id, err := st.SaveParchi(ctx, result.Parchi)
	if err != nil {
		return true, err
	}
	fmt.Printf("Parchi %s issued.\n", id)
	return true, nil
}
