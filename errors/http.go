package errors

import "net/http"

// HTTPStatus maps an error code to the HTTP status used by the API layer.
// Unknown codes (including plain errors) map to 500.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidPath, ErrCodePathOutsideRoot, ErrCodeInvalidInput, ErrCodeRootNotSet:
		return http.StatusBadRequest
	case ErrCodeFileNotFound, ErrCodeConfigNotFound:
		return http.StatusNotFound
	case ErrCodeNoPendingModification:
		return http.StatusConflict
	case ErrCodePermissionDenied:
		return http.StatusForbidden
	case ErrCodeGeneration:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
