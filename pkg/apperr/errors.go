package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind はエラーの分類です。
type Kind string

const (
	// KindConfiguration は認証情報の欠落など、リトライしても解決しない設定エラーです。
	KindConfiguration Kind = "configuration"
	// KindTransient はサーバー側の一時的な障害（500/503 相当）です。
	KindTransient Kind = "transient"
	// KindPermission は 403 相当の権限エラーです。
	KindPermission Kind = "permission"
	// KindMalformedOutput はモデルの出力が JSON として解釈できない、または必須項目を欠く場合です。
	KindMalformedOutput Kind = "malformed_output"
	// KindValidation はバックエンド呼び出し前に検出された入力不備です。
	KindValidation Kind = "validation"
	// KindNotFound は対象のプロジェクトやエピソードが存在しない場合です。
	KindNotFound Kind = "not_found"
	// KindBackend は上記以外のバックエンドエラーです。
	KindBackend Kind = "backend"
)

// Error はアプリケーション全体で共通のエラー型です。
type Error struct {
	Kind    Kind
	Op      string // 失敗した操作名
	Message string
	Status  int    // プロバイダが返した HTTP ステータス（不明な場合は 0）
	Model   string // 呼び出し対象のモデルID
	Err     error
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Op != "" {
		sb.WriteString(e.Op)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Message)
	if e.Status != 0 {
		fmt.Fprintf(&sb, " (status %d)", e.Status)
	}
	if e.Err != nil {
		if e.Message != "" {
			sb.WriteString(": ")
		}
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New は指定した種別のエラーを生成します。
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap は既存のエラーを指定した種別で包みます。
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Validation は入力検証エラーを生成します。
func Validation(op, message string) *Error {
	return New(KindValidation, op, message)
}

// NotFound は対象が見つからないことを表すエラーを生成します。
func NotFound(op, format string, args ...any) *Error {
	return New(KindNotFound, op, fmt.Sprintf(format, args...))
}

// Malformed はモデル出力の解析エラーを生成します。
func Malformed(op string, err error) *Error {
	return Wrap(KindMalformedOutput, op, err)
}

// KindOf はエラーチェーンから種別を取り出します。apperr.Error を含まない場合は空文字を返します。
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// Is はエラーチェーンが指定した種別を含むかを判定します。
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func IsTransient(err error) bool     { return Is(err, KindTransient) }
func IsPermission(err error) bool    { return Is(err, KindPermission) }
func IsValidation(err error) bool    { return Is(err, KindValidation) }
func IsConfiguration(err error) bool { return Is(err, KindConfiguration) }
func IsNotFound(err error) bool      { return Is(err, KindNotFound) }
func IsMalformed(err error) bool     { return Is(err, KindMalformedOutput) }

// ClassifyStatus は HTTP ステータスとステータス文字列からエラー種別を決定します。
func ClassifyStatus(code int, status string) Kind {
	switch {
	case code == 500 || code == 503:
		return KindTransient
	case strings.EqualFold(status, "INTERNAL"), strings.EqualFold(status, "UNAVAILABLE"):
		return KindTransient
	case code == 403, strings.EqualFold(status, "PERMISSION_DENIED"):
		return KindPermission
	default:
		return KindBackend
	}
}
