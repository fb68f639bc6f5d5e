package predictor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/pbaille/ulasan/internal/domain"
	"github.com/pbaille/ulasan/internal/textprep"
)

// ErrClosed is returned by Predict after Close
var ErrClosed = errors.New("predictor closed")

// State tracks the lifecycle of a Predictor
type State int32

const (
	StateUninitialized State = iota
	StateLoaded
	StateReady
)

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateReady:
		return "ready"
	}
	return "uninitialized"
}

// Result is the outcome of a single prediction
type Result struct {
	Text          string                       `json:"text"`
	Sentiment     domain.Sentiment             `json:"sentiment"`
	Confidence    float64                      `json:"confidence"`
	Probabilities map[domain.Sentiment]float64 `json:"probabilities,omitempty"`
}

// Predictor classifies review text with a fine-tuned 3-class model. It is
// read-only once ready and may be shared between goroutines.
type Predictor struct {
	pipeline *textprep.Pipeline
	encoder  Encoder
	labels   []domain.Sentiment
	client   *inferenceClient
	device   Device

	state  atomic.Int32
	closed atomic.Bool
}

// New loads the tokenizer and model config from cfg.ModelDir, picks an
// inference endpoint and waits for the model to report ready. Missing
// artifacts are an error.
func New(ctx context.Context, cfg Config, pipeline *textprep.Pipeline) (*Predictor, error) {
	p := &Predictor{pipeline: pipeline}

	for _, name := range []string{tokenizerFile, modelConfigFile} {
		if _, err := os.Stat(filepath.Join(cfg.ModelDir, name)); err != nil {
			return nil, fmt.Errorf("model artifact %s: %w", name, err)
		}
	}

	mc, err := loadModelConfig(filepath.Join(cfg.ModelDir, modelConfigFile))
	if err != nil {
		return nil, err
	}
	p.labels, err = mc.classLabels()
	if err != nil {
		return nil, fmt.Errorf("model config: %w", err)
	}

	maxLen := cfg.MaxLength
	if maxLen <= 0 {
		maxLen = DefaultConfig().MaxLength
	}
	p.encoder, err = loadTokenizer(filepath.Join(cfg.ModelDir, tokenizerFile), maxLen, mc.PadTokenID)
	if err != nil {
		return nil, err
	}
	p.state.Store(int32(StateLoaded))

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultConfig().Timeout
	}
	h := &http.Client{Timeout: timeout}

	device, endpoint, err := selectDevice(ctx, h, cfg)
	if err != nil {
		return nil, err
	}
	p.device = device
	p.client = newInferenceClient(endpoint, cfg.ModelName, h)

	if err := p.client.modelReady(ctx); err != nil {
		return nil, fmt.Errorf("model %s not ready on %s: %w", cfg.ModelName, device, err)
	}
	p.state.Store(int32(StateReady))

	log.WithFields(log.Fields{
		"device":   device,
		"endpoint": endpoint,
		"model":    cfg.ModelName,
	}).Info("model loaded")

	return p, nil
}

// selectDevice returns the accelerated endpoint when requested or, in auto
// mode, when it reports healthy; otherwise the CPU endpoint
func selectDevice(ctx context.Context, h *http.Client, cfg Config) (Device, string, error) {
	switch cfg.Device {
	case DeviceGPU:
		if cfg.AcceleratedURL == "" {
			return "", "", fmt.Errorf("device gpu requires an accelerated endpoint")
		}
		return DeviceGPU, cfg.AcceleratedURL, nil
	case DeviceCPU:
		if cfg.CPUURL == "" {
			return "", "", fmt.Errorf("device cpu requires a cpu endpoint")
		}
		return DeviceCPU, cfg.CPUURL, nil
	case DeviceAuto, "":
		if cfg.AcceleratedURL != "" {
			err := serverReady(ctx, h, cfg.AcceleratedURL)
			if err == nil {
				return DeviceGPU, cfg.AcceleratedURL, nil
			}
			log.WithError(err).Debug("accelerated endpoint unavailable")
		}
		if cfg.CPUURL == "" {
			return "", "", fmt.Errorf("no inference endpoint available")
		}
		return DeviceCPU, cfg.CPUURL, nil
	}
	return "", "", fmt.Errorf("unknown device %q", cfg.Device)
}

func newPredictor(pipeline *textprep.Pipeline, enc Encoder, labels []domain.Sentiment, client *inferenceClient, device Device) *Predictor {
	p := &Predictor{
		pipeline: pipeline,
		encoder:  enc,
		labels:   labels,
		client:   client,
		device:   device,
	}
	p.state.Store(int32(StateReady))
	return p
}

// State reports the lifecycle stage
func (p *Predictor) State() State {
	return State(p.state.Load())
}

// Device reports where the forward pass runs
func (p *Predictor) Device() Device {
	return p.device
}

// Predict classifies text. Text that normalizes to nothing is still
// classified; the model sees only special tokens.
func (p *Predictor) Predict(ctx context.Context, text string, withProbabilities bool) (*Result, error) {
	if p.closed.Load() {
		return nil, ErrClosed
	}
	start := time.Now()

	ids, mask, err := p.encoder.Encode(p.pipeline.Preprocess(text))
	if err != nil {
		inferenceErrors.Inc()
		return nil, err
	}

	logits, err := p.client.infer(ctx, ids, mask)
	if err != nil {
		inferenceErrors.Inc()
		return nil, fmt.Errorf("forward pass: %w", err)
	}
	if len(logits) != len(p.labels) {
		inferenceErrors.Inc()
		return nil, fmt.Errorf("model returned %d logits, want %d", len(logits), len(p.labels))
	}

	probs := Softmax(logits)
	best := argmax(probs)

	res := &Result{
		Text:       text,
		Sentiment:  p.labels[best],
		Confidence: probs[best],
	}
	if withProbabilities {
		res.Probabilities = make(map[domain.Sentiment]float64, len(probs))
		for i, prob := range probs {
			res.Probabilities[p.labels[i]] = prob
		}
	}

	predictions.WithLabelValues(string(res.Sentiment)).Inc()
	predictionDuration.Observe(time.Since(start).Seconds())

	return res, nil
}

// Close releases idle connections to the inference server
func (p *Predictor) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	if p.client != nil {
		p.client.close()
	}
	return nil
}

// Softmax converts logits to probabilities
func Softmax(logits []float64) []float64 {
	probs := make([]float64, len(logits))
	if len(logits) == 0 {
		return probs
	}

	max := logits[0]
	for _, l := range logits[1:] {
		if l > max {
			max = l
		}
	}

	var sum float64
	for i, l := range logits {
		probs[i] = math.Exp(l - max)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

func argmax(xs []float64) int {
	best := 0
	for i, x := range xs {
		if x > xs[best] {
			best = i
		}
	}
	return best
}
