// Package debug holds env-gated debug switches, set once at process
// start from XT_DEBUG_* variables.
package debug

import (
	"fmt"
	"os"
	"strconv"
)

type debug struct {
	Detect    bool
	Transcode bool
	Events    bool
}

var d *debug

func init() {
	d = &debug{}
	d.Detect = boolEnv("XT_DEBUG_DETECT")
	d.Transcode = boolEnv("XT_DEBUG_TRANSCODE")
	d.Events = boolEnv("XT_DEBUG_EVENTS")
}

func boolEnv(v string) bool {
	x := os.Getenv(v)
	if x == "" {
		return false
	}
	b, _ := strconv.ParseBool(x)
	return b
}

func Detect() bool {
	return d.Detect
}
func Transcode() bool {
	return d.Transcode
}
func Events() bool {
	return d.Events
}

func Logf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
