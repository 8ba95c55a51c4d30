package cli

import (
	"errors"
	"fmt"

	"github.com/jimdaga/nextrend/internal/apperr"
	"github.com/spf13/cobra"
)

var voiceCmd = &cobra.Command{
	Use:   "voice",
	Short: "Manage your brand voice",
}

var voiceSummarizeCmd = &cobra.Command{
	Use:   "summarize <file>",
	Short: "Summarize a PDF, DOCX or text file into your brand voice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		ws, err := openWorkspace(ctx, true)
		if err != nil {
			return err
		}
		defer ws.Close()

		text, err := readDocument(args[0])
		if err != nil {
			return errors.New(apperr.UserMessage(err))
		}
		p, err := ws.voices.Save(ctx, ws.userID, text)
		if err != nil {
			return errors.New(apperr.UserMessage(err))
		}
		fmt.Fprintln(cmd.OutOrStdout(), p.Summary)
		return nil
	},
}

var voiceShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored brand voice summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		ws, err := openWorkspace(ctx, false)
		if err != nil {
			return err
		}
		defer ws.Close()

		summary, err := ws.voices.SummaryFor(ctx, ws.userID)
		if err != nil {
			return err
		}
		if summary == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No brand voice yet. Run: nextrend voice summarize <file>")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), summary)
		return nil
	},
}

func init() {
	voiceCmd.AddCommand(voiceSummarizeCmd)
	voiceCmd.AddCommand(voiceShowCmd)
}
