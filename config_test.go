package max3100

import (
	"errors"
	"log/slog"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Crystal != X2 {
		t.Errorf("Expected Crystal X2, got %v", config.Crystal)
	}

	if config.BaudRate != 9600 {
		t.Errorf("Expected BaudRate 9600, got %d", config.BaudRate)
	}

	if config.MaxSpeedHz != 7800000 {
		t.Errorf("Expected MaxSpeedHz 7800000, got %d", config.MaxSpeedHz)
	}

	if config.MaxMisses != 10 {
		t.Errorf("Expected MaxMisses 10, got %d", config.MaxMisses)
	}

	if config.BufferSize != 8192 {
		t.Errorf("Expected BufferSize 8192, got %d", config.BufferSize)
	}

	if config.Logger == nil || config.Opener == nil {
		t.Error("Expected default Logger and Opener")
	}
}

func TestFunctionalOptions(t *testing.T) {
	config := DefaultConfig()

	// Test WithCrystal
	if err := WithCrystal(X1)(&config); err != nil {
		t.Errorf("WithCrystal failed: %v", err)
	}
	if config.Crystal != X1 {
		t.Errorf("Expected Crystal X1, got %v", config.Crystal)
	}

	// Test WithBaudRate accepts rates outside the table
	if err := WithBaudRate(123456)(&config); err != nil {
		t.Errorf("WithBaudRate failed: %v", err)
	}
	if config.BaudRate != 123456 {
		t.Errorf("Expected BaudRate 123456, got %d", config.BaudRate)
	}

	// Test WithMaxSpeedHz
	if err := WithMaxSpeedHz(1000000)(&config); err != nil {
		t.Errorf("WithMaxSpeedHz failed: %v", err)
	}
	if config.MaxSpeedHz != 1000000 {
		t.Errorf("Expected MaxSpeedHz 1000000, got %d", config.MaxSpeedHz)
	}

	// Test WithLogger
	logger := slog.Default()
	if err := WithLogger(logger)(&config); err != nil {
		t.Errorf("WithLogger failed: %v", err)
	}
	if config.Logger != logger {
		t.Error("Expected Logger to be replaced")
	}
}

func TestOptionValidation(t *testing.T) {
	tests := []struct {
		name    string
		opt     Option
		wantErr bool
	}{
		{"crystal 1", WithCrystal(1), false},
		{"crystal 2", WithCrystal(2), false},
		{"crystal 3", WithCrystal(3), true},
		{"crystal 0", WithCrystal(0), true},
		{"baud 300", WithBaudRate(300), false},
		{"baud 0", WithBaudRate(0), true},
		{"baud negative", WithBaudRate(-9600), true},
		{"speed 0", WithMaxSpeedHz(0), true},
		{"misses 1", WithMaxMisses(1), false},
		{"misses 0", WithMaxMisses(0), true},
		{"buffer 2", WithBufferSize(2), false},
		{"buffer 1", WithBufferSize(1), true},
		{"nil logger", WithLogger(nil), true},
		{"nil opener", WithOpener(nil), true},
		{"nil transport", WithTransport(nil), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			err := tt.opt(&config)
			if (err != nil) != tt.wantErr {
				t.Errorf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
