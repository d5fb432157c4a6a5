// Package config holds the run configuration of the command line tool. Values
// come from the defaults, then from a .env file and the environment, then
// from flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/scarv/xcsim/cosim"
)

// Environment variables.
const (
	EnvImage       = "XCSIM_IMAGE"
	EnvWave        = "XCSIM_WAVE"
	EnvTimeout     = "XCSIM_TIMEOUT"
	EnvPassAddress = "XCSIM_PASS_ADDRESS"
	EnvFailAddress = "XCSIM_FAIL_ADDRESS"
	EnvUARTAddress = "XCSIM_UART_ADDRESS"
	EnvResetSteps  = "XCSIM_RESET_STEPS"
)

// Keys lists every environment variable the configuration reads.
var Keys = []string{
	EnvImage,
	EnvWave,
	EnvTimeout,
	EnvPassAddress,
	EnvFailAddress,
	EnvUARTAddress,
	EnvResetSteps,
}

// DefaultEnvFile is read when no env file is named and it exists.
const DefaultEnvFile = ".env"

// Config is the configuration of a run.
type Config struct {
	Image       string
	Wave        string
	Timeout     uint64
	PassAddress uint32
	FailAddress uint32
	UARTAddress uint32
	ResetSteps  uint64
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	spec := cosim.Defaults()

	return Config{
		Timeout:     spec.MaxSteps,
		PassAddress: spec.PassAddress,
		FailAddress: spec.FailAddress,
		UARTAddress: 0x0000_1000,
		ResetSteps:  spec.ResetSteps,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.PassAddress == c.FailAddress {
		return fmt.Errorf("pass and fail addresses are both 0x%X", c.PassAddress)
	}

	if c.UARTAddress == c.PassAddress || c.UARTAddress == c.FailAddress {
		return fmt.Errorf("byte output address 0x%X is also a termination address",
			c.UARTAddress)
	}

	if c.UARTAddress%4 != 0 {
		return fmt.Errorf("byte output address 0x%X is not word aligned",
			c.UARTAddress)
	}

	return nil
}

// Spec returns the simulation parameters of the configuration.
func (c Config) Spec() cosim.Spec {
	spec := cosim.Defaults()
	spec.MaxSteps = c.Timeout
	spec.PassAddress = c.PassAddress
	spec.FailAddress = c.FailAddress
	spec.ResetSteps = c.ResetSteps

	return spec
}

// ReadEnv collects the configuration variables. Variables set in the process
// environment take precedence over the env file. An empty envFile reads
// DefaultEnvFile if it exists.
func ReadEnv(envFile string) (map[string]string, error) {
	vars := make(map[string]string)

	path := envFile
	if path == "" {
		path = DefaultEnvFile
	}

	fileVars, err := godotenv.Read(path)

	switch {
	case err == nil:
		for _, key := range Keys {
			if v, ok := fileVars[key]; ok {
				vars[key] = v
			}
		}
	case envFile == "" && errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}

	for _, key := range Keys {
		if v, ok := os.LookupEnv(key); ok {
			vars[key] = v
		}
	}

	return vars, nil
}

// ApplyEnv overrides the configuration with the variables.
func (c *Config) ApplyEnv(vars map[string]string) error {
	var err error

	for _, key := range Keys {
		v, ok := vars[key]
		if !ok {
			continue
		}

		switch key {
		case EnvImage:
			c.Image = v
		case EnvWave:
			c.Wave = v
		case EnvTimeout:
			c.Timeout, err = strconv.ParseUint(v, 0, 64)
		case EnvPassAddress:
			c.PassAddress, err = ParseAddress(v)
		case EnvFailAddress:
			c.FailAddress, err = ParseAddress(v)
		case EnvUARTAddress:
			c.UARTAddress, err = ParseAddress(v)
		case EnvResetSteps:
			c.ResetSteps, err = strconv.ParseUint(v, 0, 64)
		}

		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}

	return nil
}

// ParseAddress parses a 32-bit hexadecimal address. The 0x prefix is
// optional, so "1C", "001C" and "0x1C" are the same address.
func ParseAddress(s string) (uint32, error) {
	digits := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")

	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("address %q: %w", s, err)
	}

	return uint32(v), nil
}
