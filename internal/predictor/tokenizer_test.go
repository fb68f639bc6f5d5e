package predictor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/ulasan/internal/textprep"
)

const (
	clsID = 2
	sepID = 3
	unkID = 1
)

func sum(xs []int64) int64 {
	var n int64
	for _, x := range xs {
		n += x
	}
	return n
}

func TestHFEncoderFixedLength(t *testing.T) {
	enc, err := loadTokenizer(filepath.Join("testdata", "tokenizer.json"), 128, 0)
	require.NoError(t, err)

	tests := []struct {
		name     string
		text     string
		tokens   int64
		wantHead []int64
	}{
		{"empty", "", 2, []int64{clsID, sepID, 0}},
		{"short", "aplikasi bagus sekali", 5, []int64{clsID, 4, 5, 6, sepID, 0}},
		{"unknown word", "aplikasi jelek", 4, []int64{clsID, 4, unkID, sepID, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, mask, err := enc.Encode(tt.text)
			require.NoError(t, err)
			require.Len(t, ids, 128)
			require.Len(t, mask, 128)

			assert.Equal(t, tt.wantHead, ids[:len(tt.wantHead)])
			assert.Equal(t, tt.tokens, sum(mask))
			// padding follows the real tokens and is masked out
			for i := int(tt.tokens); i < 128; i++ {
				assert.Equal(t, int64(0), ids[i], "id %d", i)
				assert.Equal(t, int64(0), mask[i], "mask %d", i)
			}
		})
	}
}

func TestHFEncoderTruncatesLongInput(t *testing.T) {
	enc, err := loadTokenizer(filepath.Join("testdata", "tokenizer.json"), 128, 0)
	require.NoError(t, err)

	ids, mask, err := enc.Encode(strings.Repeat("ramah cepat ", 200))
	require.NoError(t, err)
	require.Len(t, ids, 128)
	require.Len(t, mask, 128)

	assert.Equal(t, int64(128), sum(mask))
	assert.Equal(t, int64(clsID), ids[0])
	assert.Equal(t, int64(sepID), ids[127])
	assert.Equal(t, []int64{8, 9}, ids[125:127])
}

func TestLoadTokenizerMissingFile(t *testing.T) {
	_, err := loadTokenizer(filepath.Join(t.TempDir(), "tokenizer.json"), 128, 0)
	assert.ErrorContains(t, err, "load tokenizer")
}

func TestNewLoadsArtifacts(t *testing.T) {
	dir := t.TempDir()
	raw, err := os.ReadFile(filepath.Join("testdata", "tokenizer.json"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tokenizer.json"), raw, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"),
		[]byte(`{"id2label":{"0":"negatif","1":"netral","2":"positif"},"pad_token_id":0}`), 0o644))

	srv := tritonFake(t, []float64{0, 0, 1})
	cfg := DefaultConfig()
	cfg.ModelDir = dir
	cfg.ModelName = "clf"
	cfg.Device = DeviceAuto
	cfg.AcceleratedURL = ""
	cfg.CPUURL = srv.URL

	p, err := New(context.Background(), cfg, textprep.New(nil, nil))
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, StateReady, p.State())
	assert.Equal(t, DeviceCPU, p.Device())

	ids, mask, err := p.encoder.Encode("driver ramah")
	require.NoError(t, err)
	assert.Len(t, ids, 128)
	assert.Equal(t, int64(4), sum(mask))
}
