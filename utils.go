package redrovr

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sndcds/redrovr/api"
)

// ParamInt extracts a positive integer path parameter.
// If conversion fails, it writes a 400 response and returns (0, false).
func ParamInt(gc *gin.Context, responseType, name string) (int, bool) {
	val, err := strconv.Atoi(gc.Param(name))
	if err != nil || val <= 0 {
		api.JSONError(gc, responseType, http.StatusBadRequest, "invalid "+name+" parameter")
		return 0, false
	}
	return val, true
}

// GetQueryIntDefault returns def if the query parameter is absent and false
// if it is present but not an integer.
func GetQueryIntDefault(gc *gin.Context, name string, def int) (int, bool) {
	s, ok := gc.GetQuery(name)
	if !ok || s == "" {
		return def, true
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return val, true
}

// GetQueryFloatDefault is GetQueryIntDefault for floating point values.
func GetQueryFloatDefault(gc *gin.Context, name string, def float64) (float64, bool) {
	s, ok := gc.GetQuery(name)
	if !ok || s == "" {
		return def, true
	}
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return val, true
}
