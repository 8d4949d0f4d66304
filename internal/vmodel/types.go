package vmodel

import "github.com/tryonlabs/tryonkit/internal/provider"

// jobResponse is the envelope shared by create-job and get-job.
type jobResponse struct {
	Code    int `json:"code"`
	Message struct {
		En string `json:"en"`
	} `json:"message"`
	Result struct {
		JobID          string   `json:"job_id"`
		OutputImageURL []string `json:"output_image_url"`
	} `json:"result"`
}

// Text returns the English message, or a generic fallback.
func (r jobResponse) Text() string {
	if r.Message.En != "" {
		return r.Message.En
	}
	return "image generation failed"
}

// Schema declares the options VModel validates before submission.
func Schema() provider.Schema {
	return provider.Schema{
		Options: map[string]provider.Option{
			"clothes_type": provider.Enum("upper_body", "lower_body", "full_body"),
		},
		Defaults: map[string]any{
			"clothes_type": "upper_body",
		},
	}
}
