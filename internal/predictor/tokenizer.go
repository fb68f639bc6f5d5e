package predictor

import (
	"fmt"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// Encoder turns normalized text into fixed-length model inputs
type Encoder interface {
	Encode(text string) (ids, mask []int64, err error)
}

// hfEncoder wraps a Hugging Face tokenizer.json
type hfEncoder struct {
	// sugarme tokenizers keep mutable state between encodes
	mu     sync.Mutex
	tk     *tokenizer.Tokenizer
	maxLen int
	padID  int
}

func loadTokenizer(path string, maxLen, padID int) (*hfEncoder, error) {
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	tk.WithTruncation(&tokenizer.TruncationParams{
		MaxLength: maxLen,
		Strategy:  tokenizer.LongestFirst,
		Stride:    0,
	})
	tk.WithPadding(&tokenizer.PaddingParams{
		Strategy:  *tokenizer.NewPaddingStrategy(tokenizer.WithFixed(maxLen)),
		Direction: tokenizer.Right,
		PadId:     padID,
		PadTypeId: 0,
		PadToken:  "[PAD]",
	})

	return &hfEncoder{tk: tk, maxLen: maxLen, padID: padID}, nil
}

func (e *hfEncoder) Encode(text string) ([]int64, []int64, error) {
	e.mu.Lock()
	en, err := e.tk.EncodeSingle(text, true)
	e.mu.Unlock()
	if err != nil {
		return nil, nil, fmt.Errorf("encode: %w", err)
	}

	ids, mask := fit(en.GetIds(), en.GetAttentionMask(), e.maxLen, e.padID)
	return ids, mask, nil
}

// fit truncates or pads ids and mask to exactly n entries
func fit(ids, mask []int, n, padID int) ([]int64, []int64) {
	outIDs := make([]int64, n)
	outMask := make([]int64, n)
	for i := 0; i < n; i++ {
		if i < len(ids) {
			outIDs[i] = int64(ids[i])
			if i < len(mask) {
				outMask[i] = int64(mask[i])
			} else {
				outMask[i] = 1
			}
			continue
		}
		outIDs[i] = int64(padID)
	}
	return outIDs, outMask
}
