package kolors

import "github.com/tryonlabs/tryonkit/internal/provider"

// createRequest is the body of POST /v1/images/kolors-virtual-try-on.
// Images are plain base64, no data-URI prefix.
type createRequest struct {
	ModelName   string `json:"model_name"`
	HumanImage  string `json:"human_image"`
	ClothImage  string `json:"cloth_image"`
	CallbackURL string `json:"callback_url"`
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
			Images []struct {
				Index int    `json:"index"`
				URL   string `json:"url"`
			} `json:"images"`
		} `json:"task_result"`
	} `json:"data"`
}

// Schema declares the options Kolors validates before submission.
func Schema() provider.Schema {
	return provider.Schema{
		Options: map[string]provider.Option{
			"model_name": provider.Enum("kolors-virtual-try-on-v1", "kolors-virtual-try-on-v1-5"),
		},
		Defaults: map[string]any{
			"model_name": "kolors-virtual-try-on-v1",
		},
	}
}
