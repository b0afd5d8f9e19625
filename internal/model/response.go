package model

// ErrorResponse is the structured body written for every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewErrorResponse builds the error body with the standard "Error" message.
func NewErrorResponse(errMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errMsg,
		Message: "Error",
	}
}
