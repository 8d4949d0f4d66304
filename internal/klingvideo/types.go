package klingvideo

import "github.com/tryonlabs/tryonkit/internal/provider"

// createRequest is the body of POST /v1/videos/image2video.
type createRequest struct {
	ModelName      string  `json:"model_name"`
	Mode           string  `json:"mode"`
	Duration       string  `json:"duration"`
	Image          string  `json:"image"`
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt,omitempty"`
	CfgScale       float64 `json:"cfg_scale"`
	Seed           *int    `json:"seed,omitempty"`
}

// createResponse is the envelope returned on task creation.
type createResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		TaskID string `json:"task_id"`
	} `json:"data"`
}

// taskResponse is the envelope returned by the task status endpoint.
type taskResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		TaskID        string `json:"task_id"`
		TaskStatus    string `json:"task_status"`
		TaskStatusMsg string `json:"task_status_msg"`
		TaskResult    struct {
			Videos []struct {
				ID       string `json:"id"`
				URL      string `json:"url"`
				Duration string `json:"duration"`
			} `json:"videos"`
		} `json:"task_result"`
	} `json:"data"`
}

// Schema declares the closed enumerations validated before submission.
// Anything outside them raises a validation error, not a network call.
func Schema() provider.Schema {
	return provider.Schema{
		Options: map[string]provider.Option{
			"model_version": provider.Enum("kling-v1", "kling-v1-5"),
			"mode":          provider.Enum("std", "pro"),
			"duration":      provider.Enum("5", "10"),
			"cfg_scale":     provider.Range(0, 1),
		},
		Defaults: map[string]any{
			"model_version": "kling-v1-5",
			"mode":          "std",
			"duration":      "5",
		},
	}
}
