package predictor

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pbaille/ulasan/internal/domain"
)

// Device selects where the forward pass runs
type Device string

const (
	DeviceAuto Device = "auto"
	DeviceGPU  Device = "gpu"
	DeviceCPU  Device = "cpu"
)

const (
	tokenizerFile   = "tokenizer.json"
	modelConfigFile = "config.json"
)

// Config locates the model artifacts and the inference endpoints
type Config struct {
	// ModelDir holds tokenizer.json and config.json
	ModelDir string

	// ModelName is the name the classifier is served under
	ModelName string

	Device         Device
	AcceleratedURL string
	CPUURL         string

	MaxLength int
	Timeout   time.Duration
}

// DefaultConfig matches the layout of the fine-tuned DistilBERT export
func DefaultConfig() Config {
	return Config{
		ModelDir:       "./sentiment_model_distilbert",
		ModelName:      "sentiment_distilbert",
		Device:         DeviceAuto,
		AcceleratedURL: "http://localhost:8000",
		CPUURL:         "http://localhost:8001",
		MaxLength:      128,
		Timeout:        30 * time.Second,
	}
}

// modelConfig is the part of a Hugging Face config.json the predictor reads
type modelConfig struct {
	ID2Label   map[string]string `json:"id2label"`
	PadTokenID int               `json:"pad_token_id"`
}

func loadModelConfig(path string) (*modelConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model config: %w", err)
	}

	var cfg modelConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse model config: %w", err)
	}
	return &cfg, nil
}

// classLabels orders the model's output classes. The classifier head must
// have exactly one output per sentiment.
func (m *modelConfig) classLabels() ([]domain.Sentiment, error) {
	if len(m.ID2Label) != len(domain.Sentiments) {
		return nil, fmt.Errorf("model has %d labels, want %d", len(m.ID2Label), len(domain.Sentiments))
	}

	ids := make([]int, 0, len(m.ID2Label))
	byID := make(map[int]string, len(m.ID2Label))
	for k, v := range m.ID2Label {
		id, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("invalid label id %q", k)
		}
		ids = append(ids, id)
		byID[id] = v
	}
	sort.Ints(ids)

	labels := make([]domain.Sentiment, len(ids))
	seen := make(map[domain.Sentiment]bool, len(ids))
	for i, id := range ids {
		if id != i {
			return nil, fmt.Errorf("label ids must be 0..%d, got %d", len(ids)-1, id)
		}
		s, ok := parseLabel(byID[id], i)
		if !ok {
			return nil, fmt.Errorf("unknown label %q", byID[id])
		}
		if seen[s] {
			return nil, fmt.Errorf("duplicate label %q", s)
		}
		seen[s] = true
		labels[i] = s
	}
	return labels, nil
}

// parseLabel accepts English and Indonesian names as well as the generic
// LABEL_n names, which follow the negative/neutral/positive order
func parseLabel(name string, index int) (domain.Sentiment, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "negative", "negatif":
		return domain.Negative, true
	case "neutral", "netral":
		return domain.Neutral, true
	case "positive", "positif":
		return domain.Positive, true
	}
	if strings.EqualFold(name, fmt.Sprintf("LABEL_%d", index)) {
		return domain.Sentiments[index], true
	}
	return "", false
}
