package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/ulasan/internal/dataset"
	"github.com/pbaille/ulasan/internal/domain"
	"github.com/pbaille/ulasan/internal/predictor"
)

type echoClassifier struct {
	texts []string
}

func (e *echoClassifier) Predict(ctx context.Context, text string, withProbs bool) (*predictor.Result, error) {
	e.texts = append(e.texts, text)
	res := &predictor.Result{Text: text, Sentiment: domain.Positive, Confidence: 0.8}
	if withProbs {
		res.Probabilities = map[domain.Sentiment]float64{
			domain.Negative: 0.1,
			domain.Neutral:  0.1,
			domain.Positive: 0.8,
		}
	}
	return res, nil
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	printResult(&buf, &predictor.Result{
		Text:       "Aplikasi jelek, tidak recommended",
		Sentiment:  domain.Negative,
		Confidence: 0.9312,
		Probabilities: map[domain.Sentiment]float64{
			domain.Negative: 0.9312,
			domain.Neutral:  0.0388,
			domain.Positive: 0.03,
		},
	})

	out := buf.String()
	assert.Contains(t, out, "Sentiment: NEGATIVE\n")
	assert.Contains(t, out, "Confidence: 93.12%\n")
	assert.Contains(t, out, "   Negative | "+strings.Repeat("█", 46)+" 93.1%\n")
	assert.Contains(t, out, "   Neutral  | "+strings.Repeat("█", 1)+" 3.9%\n")
	assert.Contains(t, out, "   Positive | "+strings.Repeat("█", 1)+" 3.0%\n")

	// probabilities are listed negative, neutral, positive
	assert.Less(t, strings.Index(out, "Negative"), strings.Index(out, "Neutral"))
	assert.Less(t, strings.Index(out, "Neutral"), strings.Index(out, "Positive"))
}

func TestPrintResultWithoutProbabilities(t *testing.T) {
	var buf bytes.Buffer
	printResult(&buf, &predictor.Result{Text: "ok", Sentiment: domain.Neutral, Confidence: 0.5})
	assert.NotContains(t, buf.String(), "Probabilities")
}

func TestInteractive(t *testing.T) {
	c := &echoClassifier{}
	in := strings.NewReader("mantap\n\n   \nlemot banget\nEXIT\nnever read\n")
	var out bytes.Buffer

	require.NoError(t, interactive(context.Background(), in, &out, c, false))
	assert.Equal(t, []string{"mantap", "lemot banget"}, c.texts)
	assert.Equal(t, 2, strings.Count(out.String(), "Review must not be empty!"))
	assert.Contains(t, out.String(), "Bye!")
}

func TestInteractiveEndOfInput(t *testing.T) {
	c := &echoClassifier{}
	var out bytes.Buffer

	require.NoError(t, interactive(context.Background(), strings.NewReader("bagus"), &out, c, true))
	assert.Equal(t, []string{"bagus"}, c.texts)
}

func TestRunSamples(t *testing.T) {
	c := &echoClassifier{}
	var out bytes.Buffer

	require.NoError(t, runSamples(context.Background(), &out, c, true))
	assert.Equal(t, sampleReviews, c.texts)
	assert.Contains(t, out.String(), "--- REVIEW 5 ---")
}

func TestBalanceAndSave(t *testing.T) {
	var d domain.Dataset
	for i := 0; i < 30; i++ {
		d = append(d, domain.LabeledReview{Username: "u", Rating: 1 + i%5, Review: strings.Repeat("x", 10+i), Date: "2024-01-01"})
		d[i].Sentiment = domain.Label(d[i].Rating)
	}
	path := filepath.Join(t.TempDir(), "reviews_balanced.csv")
	var out bytes.Buffer

	balanced, err := balanceAndSave(&out, d, path, 10, 42)
	require.NoError(t, err)
	assert.Len(t, balanced, 30)

	back, err := dataset.ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, balanced, back)
	assert.Contains(t, out.String(), "Total after balancing: 30")
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	paths := dataset.Paths{
		CSV:  filepath.Join(dir, "r.csv"),
		JSON: filepath.Join(dir, "r.json"),
		XLSX: filepath.Join(dir, "r.xlsx"),
	}
	d := domain.Dataset{{Username: "a", Rating: 5, Review: "sangat membantu sekali", Date: "2024-03-01", Sentiment: domain.Positive}}
	var out bytes.Buffer

	require.NoError(t, save(&out, d, paths, true))
	assert.FileExists(t, paths.CSV)
	assert.FileExists(t, paths.JSON)
	assert.FileExists(t, paths.XLSX)
	assert.Contains(t, out.String(), "Saved XLSX")
}
