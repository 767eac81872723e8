package response

// Response is the uniform JSON envelope for every API reply.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func Ok(message string) Response {
	return Response{
		Success: true,
		Message: message,
	}
}

func Error(message string) Response {
	return Response{
		Success: false,
		Message: message,
	}
}

func Data(data interface{}) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}
