// internal/config/errors.go
package config

import "fmt"

// ErrorCodeConfiguration is the status-block code published for
// ConfigurationError.
const ErrorCodeConfiguration uint16 = 5

// ConfigurationError reports a rejected configuration. Field is the yaml
// path of the offending key, empty when the whole document is at fault.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("config: %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Code returns the status-block error code.
func (e *ConfigurationError) Code() uint16 { return ErrorCodeConfiguration }
