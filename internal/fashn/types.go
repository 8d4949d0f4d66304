package fashn

import "github.com/tryonlabs/tryonkit/internal/provider"

// runRequest is the body of POST /v1/run. Images are base64 data URIs.
type runRequest struct {
	ModelImage        string `json:"model_image"`
	GarmentImage      string `json:"garment_image"`
	Category          string `json:"category"`
	Mode              string `json:"mode"`
	GarmentPhotoType  string `json:"garment_photo_type"`
	NSFWFilter        bool   `json:"nsfw_filter"`
	CoverFeet         bool   `json:"cover_feet"`
	AdjustHands       bool   `json:"adjust_hands"`
	RestoreBackground bool   `json:"restore_background"`
	RestoreClothes    bool   `json:"restore_clothes"`
	LongTop           bool   `json:"long_top"`
	Seed              int    `json:"seed"`
	NumSamples        int    `json:"num_samples"`
}

// runResponse is the body returned by POST /v1/run.
type runResponse struct {
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
}

// statusResponse is the body returned by GET /v1/status/{id}.
type statusResponse struct {
	ID     string   `json:"id"`
	Status string   `json:"status"`
	Output []string `json:"output,omitempty"`
	Error  any      `json:"error,omitempty"`
}

// ErrorMessage renders the error field, which Fashn returns either as a
// string or as a {name,message} object.
func (r statusResponse) ErrorMessage() string {
	switch e := r.Error.(type) {
	case string:
		return e
	case map[string]any:
		if m, ok := e["message"].(string); ok {
			return m
		}
	}
	return "prediction failed"
}

// Schema declares the options Fashn validates before submission.
func Schema() provider.Schema {
	return provider.Schema{
		Options: map[string]provider.Option{
			"category":           provider.Enum("tops", "bottoms", "one-pieces"),
			"mode":               provider.Enum("performance", "balanced", "quality"),
			"garment_photo_type": provider.Enum("auto", "flat-lay", "model"),
			"num_samples":        provider.Range(1, 4),
		},
		Defaults: map[string]any{
			"category": "tops",
			"mode":     "balanced",
		},
	}
}
