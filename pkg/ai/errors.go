package ai

import (
	"errors"
	"net/http"

	"github.com/shouni/go-series-kit/pkg/apperr"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// classifyGenAIError は genai のエラーを apperr の分類に変換します。
func classifyGenAIError(op, model string, err error) error {
	var (
		apiErr  genai.APIError
		apiErrP *genai.APIError
	)
	switch {
	case errors.As(err, &apiErr):
		return newProviderError(op, model, apiErr.Code, apiErr.Status, apiErr.Message, err)
	case errors.As(err, &apiErrP) && apiErrP != nil:
		return newProviderError(op, model, apiErrP.Code, apiErrP.Status, apiErrP.Message, err)
	default:
		return &apperr.Error{Kind: apperr.KindBackend, Op: op, Model: model, Err: err}
	}
}

// classifyOpenAIError は go-openai のエラーを apperr の分類に変換します。
func classifyOpenAIError(op, model string, err error) error {
	var (
		apiErr *openai.APIError
		reqErr *openai.RequestError
	)
	switch {
	case errors.As(err, &apiErr):
		return newProviderError(op, model, apiErr.HTTPStatusCode, http.StatusText(apiErr.HTTPStatusCode), apiErr.Message, err)
	case errors.As(err, &reqErr):
		return newProviderError(op, model, reqErr.HTTPStatusCode, http.StatusText(reqErr.HTTPStatusCode), "", err)
	default:
		return &apperr.Error{Kind: apperr.KindBackend, Op: op, Model: model, Err: err}
	}
}

func newProviderError(op, model string, code int, status, message string, err error) error {
	kind := apperr.ClassifyStatus(code, status)
	if kind == apperr.KindPermission {
		message = "モデル " + model + " を利用する権限がありません"
	}
	return &apperr.Error{
		Kind:    kind,
		Op:      op,
		Message: message,
		Status:  code,
		Model:   model,
		Err:     err,
	}
}
