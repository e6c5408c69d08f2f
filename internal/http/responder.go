package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/speeddate-scheduler/internal/application"
)

var (
	errBadRequestBody       = errors.New("無効なリクエスト形式です。")
	errInvalidEventID       = errors.New("無効なイベント ID です。")
	errInvalidParticipantID = errors.New("無効な参加者 ID です。")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	return responder{logger: defaultLogger(logger)}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "指定されたリソースが見つかりません。"})
	case errors.Is(err, application.ErrTimerNotActive):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "TIMER_NOT_ACTIVE",
			Message:   "タイマーは実行中ではありません。",
		})
	case errors.Is(err, application.ErrTimerNotPaused):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "TIMER_NOT_PAUSED",
			Message:   "タイマーは一時停止中ではありません。",
		})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			details := localizeValidationErrors(vErr)
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "入力内容に誤りがあります。",
				Errors:  details,
			})
			return
		}

		r.loggerFor(ctx).ErrorContext(ctx, "service call failed", "error", err, "error_kind", application.ErrorKind(err))
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "サーバー内部でエラーが発生しました。"})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "リクエスト内容が正しくありません。"
	case http.StatusNotFound:
		return "指定されたリソースが見つかりません。"
	case http.StatusConflict:
		return "要求はリソースの現在の状態と競合しています。"
	case http.StatusUnprocessableEntity:
		return "入力内容に誤りがあります。"
	default:
		return "サーバー内部でエラーが発生しました。"
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

func translateValidationMessage(message string) string {
	switch message {
	case "event id is required":
		return "イベント ID は必須です。"
	case "name is required":
		return "氏名は必須です。"
	case "category must be male or female":
		return "区分は male または female を指定してください。"
	case "age must be non-negative":
		return "年齢は 0 以上で指定してください。"
	case "table count must be positive":
		return "テーブル数は正の整数で指定してください。"
	case "round count must be positive":
		return "ラウンド数は正の整数で指定してください。"
	case "a schedule must be generated before starting the timer":
		return "タイマーを開始する前にスケジュールを生成してください。"
	case "record rejected by storage constraints":
		return "保存に失敗しました。入力内容を確認してください。"
	default:
		if strings.HasPrefix(message, "round must be between") {
			return "指定されたラウンド番号が範囲外です。"
		}
		if strings.HasPrefix(message, "round duration must be between") {
			return "ラウンド時間は 30〜900 秒で指定してください。"
		}
		if strings.HasPrefix(message, "break duration must be between") {
			return "休憩時間は 15〜600 秒で指定してください。"
		}
		return message
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
