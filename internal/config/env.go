package config

import (
	"strconv"
	"strings"
	"time"
)

func cast(s string) (int, error) { return strconv.Atoi(strings.TrimSpace(s)) }

func envStr(k, d string) string {
	if v := vars().GetString(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch strings.ToLower(vars().GetString(k)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	if n, err := cast(vars().GetString(k)); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	if dur, err := time.ParseDuration(vars().GetString(k)); err == nil {
		return dur
	}
	return d
}
