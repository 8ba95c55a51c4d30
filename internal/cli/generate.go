package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jimdaga/nextrend/internal/apperr"
	"github.com/jimdaga/nextrend/internal/catalog"
	"github.com/jimdaga/nextrend/internal/generation"
	"github.com/jimdaga/nextrend/internal/sources"
	"github.com/jimdaga/nextrend/internal/tui"
	"github.com/spf13/cobra"
)

var (
	flagText   string
	flagFile   string
	flagSource uint
	flagPlain  bool
	flagTypes  []string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a batch of content",
	Long: `Generate one variant per content type from a cached source item (--source),
free-form text (--text) or a document (--file).

Opens the terminal studio unless --plain is given.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&flagText, "text", "", "free-form text to generate from")
	generateCmd.Flags().StringVar(&flagFile, "file", "", "PDF, DOCX or text file to generate from")
	generateCmd.Flags().UintVar(&flagSource, "source", 0, "id of a cached source item (see sources list)")
	generateCmd.Flags().BoolVar(&flagPlain, "plain", false, "print results instead of opening the studio")
	generateCmd.Flags().StringSliceVar(&flagTypes, "types", nil, "content type keys to generate (default all)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	inputs := 0
	for _, set := range []bool{flagText != "", flagFile != "", flagSource != 0} {
		if set {
			inputs++
		}
	}
	if inputs != 1 {
		return errors.New("give exactly one of --text, --file or --source")
	}

	ws, err := openWorkspace(ctx, true)
	if err != nil {
		return err
	}
	defer ws.Close()

	src, err := ws.source(ctx)
	if err != nil {
		return err
	}
	types, err := ws.resolveTypes(flagTypes)
	if err != nil {
		return err
	}
	summary, err := ws.voiceSummary(ctx)
	if err != nil {
		return fmt.Errorf("brand voice: %s", apperr.UserMessage(err))
	}

	if flagPlain {
		return printBatch(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), ws.pipeline, generation.Request{Source: src, VoiceSummary: summary, Types: types})
	}

	_, err = tui.Run(tui.RunOpts{
		Generator:    ws.pipeline,
		Types:        types,
		Source:       src,
		VoiceSummary: summary,
	})
	return err
}

func (w *workspace) source(ctx context.Context) (generation.Source, error) {
	switch {
	case flagSource != 0:
		s, err := w.sources.Get(ctx, flagSource)
		if err != nil {
			return generation.Source{}, fmt.Errorf("source %d: %s", flagSource, apperr.UserMessage(err))
		}
		return sources.Input(s), nil
	case flagFile != "":
		text, err := readDocument(flagFile)
		if err != nil {
			return generation.Source{}, err
		}
		return sources.CustomInput(text), nil
	default:
		return sources.CustomInput(flagText), nil
	}
}

// printBatch runs a batch and writes each finished slot as a markdown
// section. Warnings and failures go to errOut.
func printBatch(ctx context.Context, out, errOut io.Writer, gen tui.Generator, req generation.Request) error {
	batch := gen.GenerateAll(ctx, req)
	labels := make(map[int]catalog.ContentType, len(req.Types))
	for i, ct := range req.Types {
		labels[i] = ct
	}

	first := true
	for u := range batch.Updates() {
		switch u.Status {
		case generation.StatusDone:
			if !first {
				fmt.Fprintln(out)
			}
			first = false
			fmt.Fprintf(out, "## %s\n\n%s\n", u.Type, u.Content)
			if u.Warning != "" {
				fmt.Fprintf(errOut, "[warn] %s: %s\n", u.Type, u.Warning)
			}
		case generation.StatusFailed:
			fmt.Fprintf(errOut, "[fail] %s: %s\n", u.Type, u.Error)
		case generation.StatusSkipped:
			fmt.Fprintf(errOut, "[skip] %s\n", labels[u.Index].Label)
		}
	}

	if err := batch.Wait(); err != nil {
		return errors.New(apperr.UserMessage(err))
	}
	return nil
}
