package trace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/me/cpusched/pkg/model"
)

// Format selects the result file layout.
type Format string

const (
	// FormatText writes "name real_start real_end" per process in trace
	// order, times in the run's time unit, followed by the context-switch
	// count on its own line.
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts text, json or yaml (yml).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// WriteResult writes res to w in format f.
func WriteResult(w io.Writer, res *model.RunResult, f Format) error {
	switch f {
	case FormatText, "":
		return writeText(w, res)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown output format %q", f)
}

// WriteResultFile writes res to path, creating or truncating it.
func WriteResultFile(path string, res *model.RunResult, f Format) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create result file: %w", err)
	}
	if err := WriteResult(file, res, f); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func writeText(w io.Writer, res *model.RunResult) error {
	bw := bufio.NewWriter(w)
	unit := res.TimeUnit
	if unit <= 0 {
		unit = time.Second
	}
	for _, p := range res.Processes {
		fmt.Fprintf(bw, "%s %s %s\n", p.Name, inUnits(p.RealStart, unit), inUnits(p.RealEnd, unit))
	}
	fmt.Fprintf(bw, "%d\n", res.ContextSwitches)
	return bw.Flush()
}

// inUnits renders d as a number of units with microsecond precision.
func inUnits(d, unit time.Duration) string {
	return fmt.Sprintf("%.6f", float64(d)/float64(unit))
}
