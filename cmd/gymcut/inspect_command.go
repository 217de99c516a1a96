package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"gymcut/internal/captions"
	"gymcut/internal/language"
	"gymcut/internal/transcript"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var showWords bool

	cmd := &cobra.Command{
		Use:         "inspect <transcript.json>",
		Short:       "Show the segments (and optionally words) of a transcript",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := transcript.Load(args[0])
			if err != nil {
				return err
			}
			if err := transcript.Validate(t); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Warning: %v\n", err)
			}
			printTranscript(cmd.OutOrStdout(), t, showWords)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&showWords, "words", "w", false, "List every word instead of segments")
	return cmd
}

func printTranscript(out io.Writer, t *transcript.Transcript, showWords bool) {
	words := transcript.Words(t)
	lang := "unknown"
	if t.Language != "" {
		lang = fmt.Sprintf("%s (%s)", language.DisplayName(t.Language), t.Language)
	}
	fmt.Fprintf(out, "Language: %s\n", lang)
	fmt.Fprintf(out, "Segments: %d  Words: %d  Duration: %s\n", len(t.Segments), len(words), captions.FormatASSTime(transcript.Duration(t)))

	if showWords {
		rows := make([][]string, 0, len(words))
		for i, w := range words {
			prob := ""
			if w.Probability != nil {
				prob = strconv.FormatFloat(*w.Probability, 'f', 2, 64)
			}
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				captions.FormatASSTime(w.Start),
				captions.FormatASSTime(w.End),
				strings.TrimSpace(w.Text),
				prob,
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"#", "Start", "End", "Word", "Prob"},
			rows,
			[]columnAlignment{alignRight, alignRight, alignRight, alignLeft, alignRight},
		))
		return
	}

	rows := make([][]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		rows = append(rows, []string{
			strconv.Itoa(seg.ID),
			captions.FormatASSTime(seg.Start),
			captions.FormatASSTime(seg.End),
			strconv.Itoa(len(seg.Words)),
			strings.TrimSpace(seg.Text),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "Start", "End", "Words", "Text"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignLeft},
	))
}
