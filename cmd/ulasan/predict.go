package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pbaille/ulasan/internal/domain"
	"github.com/pbaille/ulasan/internal/predictor"
	"github.com/pbaille/ulasan/internal/textprep"
)

var sampleReviews = []string{
	"Aplikasi gojek sangat membantu, driver ramah dan cepat sampai tujuan",
	"Aplikasi jelek, tidak recommended",
	"Biasa aja sih, tidak ada yang spesial",
	"MANTAP BANGET! Gojek emang terbaik, pelayanan cepat dan harga terjangkau",
	"Aplikasi lemot banget, mau order susah, driver juga lama datangnya",
}

type classifier interface {
	Predict(ctx context.Context, text string, withProbabilities bool) (*predictor.Result, error)
}

func loadPredictor(ctx context.Context) (*predictor.Predictor, error) {
	pc, err := cfg.PredictorConfig()
	if err != nil {
		return nil, err
	}
	p, err := predictor.New(ctx, pc, textprep.NewIndonesian())
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	return p, nil
}

func predictCmd() *cobra.Command {
	var (
		text      string
		noSamples bool
		noProbs   bool
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Classify review sentiment interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, rule)
			fmt.Fprintln(out, "SENTIMENT ANALYSIS - GOJEK REVIEWS")
			fmt.Fprintln(out, rule)

			p, err := loadPredictor(ctx)
			if err != nil {
				return err
			}
			defer p.Close()
			fmt.Fprintf(out, "Model loaded on %s\n", p.Device())

			if text != "" {
				res, err := p.Predict(ctx, text, !noProbs)
				if err != nil {
					return err
				}
				printResult(out, res)
				return nil
			}

			if !noSamples {
				if err := runSamples(ctx, out, p, !noProbs); err != nil {
					return err
				}
			}
			return interactive(ctx, cmd.InOrStdin(), out, p, !noProbs)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "classify this text and exit")
	cmd.Flags().BoolVar(&noSamples, "no-samples", false, "skip the sample reviews")
	cmd.Flags().BoolVar(&noProbs, "no-probs", false, "hide per-class probabilities")
	cfg.BindPredictorFlags(cmd.Flags())
	return cmd
}

func runSamples(ctx context.Context, out io.Writer, c classifier, withProbs bool) error {
	fmt.Fprintf(out, "\nTesting with %d sample reviews:\n", len(sampleReviews))
	for i, review := range sampleReviews {
		res, err := c.Predict(ctx, review, withProbs)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n--- REVIEW %d ---\n", i+1)
		printResult(out, res)
	}
	return nil
}

// interactive classifies one line at a time until "exit" or end of input
func interactive(ctx context.Context, in io.Reader, out io.Writer, c classifier, withProbs bool) error {
	fmt.Fprintf(out, "\n%s\nINTERACTIVE MODE\n%s\n", rule, rule)
	fmt.Fprintln(out, "Type a review to analyze.")
	fmt.Fprintln(out, "Type 'exit' to quit.")

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\nReview: ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}

		line := strings.TrimSpace(sc.Text())
		if strings.EqualFold(line, "exit") {
			fmt.Fprintln(out, "\nBye!")
			return nil
		}
		if line == "" {
			fmt.Fprintln(out, "Review must not be empty!")
			continue
		}

		res, err := c.Predict(ctx, line, withProbs)
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		printResult(out, res)
	}
}

func printResult(out io.Writer, res *predictor.Result) {
	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "Review: %s\n", res.Text)
	fmt.Fprintf(out, "Sentiment: %s\n", strings.ToUpper(string(res.Sentiment)))
	fmt.Fprintf(out, "Confidence: %.2f%%\n", res.Confidence*100)

	if len(res.Probabilities) > 0 {
		fmt.Fprintln(out, "\nProbabilities:")
		for _, s := range domain.Sentiments {
			p := res.Probabilities[s]
			label := strings.ToUpper(string(s[:1])) + string(s[1:])
			fmt.Fprintf(out, "   %-8s | %s %.1f%%\n", label, strings.Repeat("█", int(p*50)), p*100)
		}
	}
	fmt.Fprintln(out, rule)
}
