package engine

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// WebhookInput is the typed input for the webhook service function.
type WebhookInput struct {
	URL     string            `json:"url" validate:"required,url"`
	Method  string            `json:"method" validate:"omitempty,oneof=GET POST PUT PATCH DELETE"`
	Headers map[string]string `json:"headers"`
	Body    map[string]any    `json:"body"`
	Timeout time.Duration     `json:"timeout"`
}

var webhookClient = resty.New().
	SetTimeout(10 * time.Second).
	SetRetryCount(2).
	SetRetryWaitTime(100 * time.Millisecond)

// svcWebhook posts a payload to an external URL, used to mirror in-game
// events to out-of-process listeners. Returns the response status code and
// decoded body.
func svcWebhook(fx *FlowExecution, kwargs map[string]any) (any, error) {
	input := WebhookInput{Method: "POST"}
	if err := decodeParams(kwargs, &input); err != nil {
		return nil, configError(CodeBadParameter, "malformed webhook kwargs: %v", err)
	}
	if err := validateStruct(input); err != nil {
		return nil, configError(CodeBadParameter, "invalid webhook kwargs: %v", err)
	}

	client := webhookClient
	if input.Timeout > 0 {
		client = resty.New().SetTimeout(input.Timeout)
	}

	response := map[string]any{}
	resp, err := client.R().
		SetHeaders(input.Headers).
		SetBody(input.Body).
		SetResult(&response).
		Execute(input.Method, input.URL)
	if err != nil {
		return nil, configError(CodeBadParameter, "webhook request failed: %v", err)
	}

	return map[string]any{
		"status_code": resp.StatusCode(),
		"is_error":    resp.IsError(),
		"body":        response,
	}, nil
}
