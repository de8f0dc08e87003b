package domain

// Forecasting method identifiers. Methods are registered and selected by
// name; orchestration never branches on these values.
const (
	MethodMLModel       = "ml_model"
	MethodMovingAverage = "moving_average"
	MethodCroston       = "croston"
	MethodSBA           = "sba"
	MethodMinMax        = "min_max"
)
