package saltderive

import "errors"

var (
	ErrConfiguration = errors.New("salt deriver is misconfigured")
	ErrEncoding      = errors.New("identity claims are malformed")
)

// ConfigurationError reports an absent or malformed master seed.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return "configuration: " + e.Reason + ": " + e.Err.Error()
	}
	return "configuration: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// EncodingError reports a claim value that cannot be fed to the derivation.
type EncodingError struct {
	Field  string
	Reason string
}

func (e *EncodingError) Error() string {
	if e.Field == "" {
		return "encoding: " + e.Reason
	}
	return "encoding: " + e.Field + ": " + e.Reason
}

func (e *EncodingError) Is(target error) bool {
	return target == ErrEncoding
}
