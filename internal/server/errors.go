package server

import (
	"net/http"

	"github.com/shouni/go-series-kit/pkg/apperr"

	"github.com/gin-gonic/gin"
)

// statusFor はエラーの種別を HTTP ステータスに対応付けるのだ。
func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindPermission:
		return http.StatusForbidden
	case apperr.KindConfiguration:
		return http.StatusServiceUnavailable
	case apperr.KindTransient, apperr.KindMalformedOutput, apperr.KindBackend:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), gin.H{
		"error": err.Error(),
		"kind":  apperr.KindOf(err),
	})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error": err.Error(),
		"kind":  apperr.KindValidation,
	})
}

// writePartial は保存済みの結果と後続処理のエラーをまとめて返すのだ。
// 結果が保存されていれば err があっても 200 系で返すのだ。
func writePartial(c *gin.Context, status int, body gin.H, err error) {
	if err != nil {
		body["error"] = err.Error()
		body["kind"] = apperr.KindOf(err)
	}
	c.JSON(status, body)
}
