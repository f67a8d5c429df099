package domain

import "errors"

var (
	ErrMissingAPIKey        = errors.New("gemini api key is not configured")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrEmptyInstruction     = errors.New("instruction is required")
	ErrNoImageSelected      = errors.New("no image selected")
	ErrOperationInFlight    = errors.New("operation already in flight")
	ErrInsufficientCredits  = errors.New("insufficient credits")
	ErrNoVideoOutput        = errors.New("generation completed with no output")
	ErrVideoPollTimeout     = errors.New("video generation timed out")
	ErrCredentialSelection  = errors.New("a valid paid api key must be selected")
	ErrNoRefundDue          = errors.New("no refundable attempt")
)
