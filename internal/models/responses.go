package models

// AnnotationResponse wraps a single annotation in the API response.
type AnnotationResponse struct {
	Data Envelope `json:"data"`
}

// AnnotationsResponse wraps multiple annotations in the API response.
type AnnotationsResponse struct {
	Data []Envelope `json:"data"`
}

// SpotResponse wraps a single spot in the API response.
type SpotResponse struct {
	Data Spot `json:"data"`
}

// SpotsResponse wraps multiple spots in the API response.
type SpotsResponse struct {
	Data []Spot `json:"data"`
}

// ErrorResponse represents an error response from the API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
