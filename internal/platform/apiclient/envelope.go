package apiclient

// Envelope is the backend's response wrapper.
type Envelope[T any] struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       T      `json:"data"`
	Success    bool   `json:"success"`
}
