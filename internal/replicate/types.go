package replicate

import (
	"encoding/json"
	"fmt"

	"github.com/tryonlabs/tryonkit/internal/provider"
)

// predictionRequest is the body of POST /v1/predictions.
type predictionRequest struct {
	Version string          `json:"version"`
	Input   predictionInput `json:"input"`
}

// predictionInput carries the IDM-VTON parameters.
type predictionInput struct {
	HumanImg   string `json:"human_img"`
	GarmImg    string `json:"garm_img"`
	GarmentDes string `json:"garment_des"`
	Category   string `json:"category"`
	Steps      int    `json:"steps"`
	Seed       int    `json:"seed"`
	Crop       bool   `json:"crop"`
	ForceDC    bool   `json:"force_dc"`
	MaskOnly   bool   `json:"mask_only"`
}

// predictionResponse is returned by both the create and status endpoints.
type predictionResponse struct {
	ID      string          `json:"id"`
	Status  string          `json:"status"`
	Output  json.RawMessage `json:"output,omitempty"`
	Error   string          `json:"error,omitempty"`
	Metrics struct {
		PredictTime float64 `json:"predict_time,omitempty"`
	} `json:"metrics,omitempty"`
}

// OutputURLs decodes the output field, which is a bare URL string for some
// model versions and an array of URLs for others.
func (r predictionResponse) OutputURLs() ([]string, error) {
	if len(r.Output) == 0 {
		return nil, nil
	}
	var single string
	if err := json.Unmarshal(r.Output, &single); err == nil {
		return []string{single}, nil
	}
	var many []string
	if err := json.Unmarshal(r.Output, &many); err == nil {
		return many, nil
	}
	return nil, fmt.Errorf("unrecognized output shape: %s", string(r.Output))
}

// Schema declares the options validated before submission.
func Schema() provider.Schema {
	return provider.Schema{
		Options: map[string]provider.Option{
			"category": provider.Enum("upper_body", "lower_body", "full_body"),
			"steps":    provider.Range(1, 40),
		},
		Defaults: map[string]any{
			"category": "upper_body",
			"steps":    30,
			"seed":     42,
		},
	}
}
