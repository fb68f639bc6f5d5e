package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// tensor is a KServe v2 / Triton input tensor
type tensor struct {
	Name     string      `json:"name"`
	Shape    []int       `json:"shape"`
	DataType string      `json:"datatype"`
	Data     interface{} `json:"data"`
}

type requestedOutput struct {
	Name string `json:"name"`
}

type inferRequest struct {
	Inputs  []tensor          `json:"inputs"`
	Outputs []requestedOutput `json:"outputs,omitempty"`
}

type inferResponse struct {
	ModelName string `json:"model_name"`
	Outputs   []struct {
		Name     string    `json:"name"`
		Shape    []int     `json:"shape"`
		DataType string    `json:"datatype"`
		Data     []float64 `json:"data"`
	} `json:"outputs"`
	Error string `json:"error,omitempty"`
}

// inferenceClient talks to a model server that only serves forward passes
type inferenceClient struct {
	baseURL string
	model   string
	http    *http.Client
}

func newInferenceClient(baseURL, model string, h *http.Client) *inferenceClient {
	return &inferenceClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    h,
	}
}

// serverReady checks the server health endpoint
func serverReady(ctx context.Context, h *http.Client, baseURL string) error {
	return getOK(ctx, h, strings.TrimRight(baseURL, "/")+"/v2/health/ready")
}

func (c *inferenceClient) modelReady(ctx context.Context) error {
	return getOK(ctx, c.http, fmt.Sprintf("%s/v2/models/%s/ready", c.baseURL, c.model))
}

func getOK(ctx context.Context, h *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := h.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: status %d", url, resp.StatusCode)
	}
	return nil
}

// infer runs one forward pass and returns the logits of the single input
func (c *inferenceClient) infer(ctx context.Context, ids, mask []int64) ([]float64, error) {
	shape := []int{1, len(ids)}
	body, err := json.Marshal(inferRequest{
		Inputs: []tensor{
			{Name: "input_ids", Shape: shape, DataType: "INT64", Data: ids},
			{Name: "attention_mask", Shape: shape, DataType: "INT64", Data: mask},
		},
		Outputs: []requestedOutput{{Name: "logits"}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v2/models/%s/infer", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference error (status %d): %s", resp.StatusCode, string(raw))
	}

	var out inferResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("inference error: %s", out.Error)
	}
	if len(out.Outputs) == 0 {
		return nil, fmt.Errorf("empty response")
	}

	logits := out.Outputs[0].Data
	for _, o := range out.Outputs {
		if o.Name == "logits" {
			logits = o.Data
			break
		}
	}
	return logits, nil
}

func (c *inferenceClient) close() {
	c.http.CloseIdleConnections()
}
