package api

import (
	"context"
	"errors"
	"net/http"

	"ecomindsx/internal/domain"
)

const authSuggestion = "確認してください: 1) 認証情報 2) 権限 3) リージョン"

// ErrorEnvelope は、ブラウザに返すエラー応答です
type ErrorEnvelope struct {
	Error      string           `json:"error"`
	Kind       domain.ErrorKind `json:"kind"`
	Details    string           `json:"details,omitempty"`
	Suggestion string           `json:"suggestion,omitempty"`
	Example    string           `json:"example,omitempty"`
}

// envelopeFor は、エラーを HTTP ステータスとエラー応答に変換します
func envelopeFor(err error) (int, ErrorEnvelope) {
	env := ErrorEnvelope{Error: err.Error(), Kind: domain.KindOf(err)}

	var validationErr *domain.ValidationError
	var upstreamErr *domain.UpstreamError

	switch env.Kind {
	case domain.ErrorKindValidation:
		errors.As(err, &validationErr)
		env.Error = validationErr.Error()
		env.Example = domain.ExamplePrompt
		return http.StatusBadRequest, env

	case domain.ErrorKindAuth:
		env.Suggestion = authSuggestion
		return http.StatusInternalServerError, env

	case domain.ErrorKindUpstream:
		errors.As(err, &upstreamErr)
		env.Details = upstreamErr.Body
		return upstreamStatus(upstreamErr), env

	default:
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout, env
		}
		return http.StatusInternalServerError, env
	}
}

// upstreamStatus は、上流エラーに対応する HTTP ステータスを返します
func upstreamStatus(err *domain.UpstreamError) int {
	switch {
	case err.Malformed:
		return http.StatusInternalServerError
	case err.Status == 0 && errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case err.Status == 0:
		return http.StatusBadGateway
	default:
		return err.Status
	}
}
