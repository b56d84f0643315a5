package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	sim "github.com/inference-sim/service-sim/sim"
)

// promptConfig asks for the three core parameters on in, writing prompts to out.
// An empty answer keeps the value already in cfg. Durations accept Go syntax
// ("90s", "1m30s") or a plain number of seconds.
func promptConfig(in io.Reader, out io.Writer, cfg sim.Config) (sim.Config, error) {
	scanner := bufio.NewScanner(in)
	ask := func(label, current string) (string, error) {
		fmt.Fprintf(out, "%s [%s]: ", label, current)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}
		answer := strings.TrimSpace(scanner.Text())
		if answer == "" {
			return current, nil
		}
		return answer, nil
	}

	answer, err := ask("Simulation duration", cfg.Duration.String())
	if err != nil {
		return cfg, err
	}
	if cfg.Duration, err = parseSeconds(answer); err != nil {
		return cfg, fmt.Errorf("simulation duration %q: %w", answer, err)
	}

	answer, err = ask("Percentage of requests needing additional service", strconv.FormatFloat(cfg.SplitPercentage, 'f', -1, 64))
	if err != nil {
		return cfg, err
	}
	if cfg.SplitPercentage, err = strconv.ParseFloat(answer, 64); err != nil {
		return cfg, fmt.Errorf("split percentage %q: %w", answer, err)
	}

	answer, err = ask("Workers per stage", strconv.Itoa(cfg.PoolSize))
	if err != nil {
		return cfg, err
	}
	if cfg.PoolSize, err = strconv.Atoi(answer); err != nil {
		return cfg, fmt.Errorf("pool size %q: %w", answer, err)
	}
	return cfg, nil
}

// parseSeconds parses a Go duration, or a bare number as seconds.
func parseSeconds(s string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(s)
}
