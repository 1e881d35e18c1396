package logger

import (
	"go.uber.org/zap"
)

// New builds the application logger. Development mode gets the human console
// encoder; anything else gets production JSON.
func New(environment string) (*zap.Logger, error) {
	if environment == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Must builds the logger or panics. For use in main only.
func Must(environment string) *zap.Logger {
	l, err := New(environment)
	if err != nil {
		panic(err)
	}
	return l
}
