package training

import "errors"

var (
	// ErrTrainerUnavailable is returned when the external AutoML trainer
	// is not installed or not configured.
	ErrTrainerUnavailable = errors.New("automl trainer is not available")

	// ErrInsufficientData is returned when the training dataset is empty.
	// The external trainer is never invoked on empty input.
	ErrInsufficientData = errors.New("not enough training data")

	// ErrUnsupportedModelType is returned for model types that have no
	// training path.
	ErrUnsupportedModelType = errors.New("unsupported model type")
)
