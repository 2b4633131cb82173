package handler

import (
	"log"
	"net/http"

	"github.com/kiwari-pos/resto/internal/service"
)

var kindStatus = map[service.ErrorKind]int{
	service.KindInvalidState:              http.StatusConflict,
	service.KindTableUnavailable:          http.StatusConflict,
	service.KindAmountInsufficient:        http.StatusUnprocessableEntity,
	service.KindInsufficientBatchQuantity: http.StatusConflict,
	service.KindNotFound:                  http.StatusNotFound,
	service.KindValidation:                http.StatusBadRequest,
	service.KindForbidden:                 http.StatusForbidden,
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeServiceError maps a service error onto its HTTP status. Anything
// outside the taxonomy is logged and hidden behind a generic 500.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	kind := service.Kind(err)
	status, ok := kindStatus[kind]
	if !ok {
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: "internal server error",
			Code:  string(service.KindInternal),
		})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Code: string(kind)})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg, Code: string(service.KindValidation)})
}
