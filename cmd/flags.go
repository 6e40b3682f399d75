package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/pflag"
)

// optimizationValue validates the optimization tier at flag-parse time, so a
// bad value fails before any compilation starts.
type optimizationValue struct {
	level *int
}

func newOptimizationValue(level *int, def int) pflag.Value {
	*level = def
	return &optimizationValue{level: level}
}

func (v *optimizationValue) Set(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid optimization level %q", s)
	}
	if n < -1 || n > 3 {
		return fmt.Errorf("optimization level %d out of range, expected -1 to 3", n)
	}
	*v.level = n
	return nil
}

func (v *optimizationValue) Type() string { return "int" }

func (v *optimizationValue) String() string { return strconv.Itoa(*v.level) }
