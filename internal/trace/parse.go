// Package trace reads process traces and writes run results.
//
// A trace holds one process per line as four whitespace-separated fields:
//
//	name deadline start_time burst_time
//
// Blank lines and lines starting with '#' are ignored. Any other line with
// more or fewer than four fields is an error.
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/me/cpusched/pkg/model"
)

// Limits bounds the size of a trace.
type Limits struct {
	MaxProcesses  int
	MaxNameLength int
}

// DefaultLimits matches config.Default().
var DefaultLimits = Limits{MaxProcesses: 100, MaxNameLength: 16}

// maxLineSize caps a single trace line.
const maxLineSize = 200

var fieldNames = [...]string{"name", "deadline", "start_time", "burst_time"}

// ParseFile opens path and parses it.
func ParseFile(path string, limits Limits) ([]model.ProcessSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	defer f.Close()
	return Parse(f, limits)
}

// Parse reads a trace. Field errors are collected across the whole input and
// returned together as an INVALID_TRACE *model.ConfigError; exceeding a limit
// stops parsing immediately.
func Parse(r io.Reader, limits Limits) ([]model.ProcessSpec, error) {
	var (
		specs   []model.ProcessSpec
		details []model.FieldError
		lineNo  int
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, maxLineSize), maxLineSize)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != len(fieldNames) {
			details = append(details, model.FieldError{
				Line:    lineNo,
				Message: fmt.Sprintf("expected %d fields, got %d", len(fieldNames), len(fields)),
			})
			continue
		}

		if limits.MaxProcesses > 0 && len(specs) >= limits.MaxProcesses {
			return nil, model.NewConfigError(model.ErrTooManyProcesses,
				fmt.Sprintf("trace exceeds %d processes", limits.MaxProcesses),
				model.FieldError{Line: lineNo, Message: "first process over the limit"})
		}
		if limits.MaxNameLength > 0 && len(fields[0]) > limits.MaxNameLength {
			return nil, model.NewConfigError(model.ErrNameTooLong,
				fmt.Sprintf("process name '%s' exceeds %d bytes", fields[0], limits.MaxNameLength),
				model.FieldError{Line: lineNo, Field: "name", Message: "too long"})
		}

		spec := model.ProcessSpec{Name: fields[0]}
		targets := []*int{&spec.Deadline, &spec.StartTime, &spec.BurstTime}
		ok := true
		for i, dst := range targets {
			n, err := strconv.Atoi(fields[i+1])
			if err != nil {
				details = append(details, model.FieldError{Line: lineNo, Field: fieldNames[i+1], Message: "not an integer: " + fields[i+1]})
				ok = false
				continue
			}
			*dst = n
		}
		if ok {
			specs = append(specs, spec)
		}
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, model.NewConfigError(model.ErrInvalidTrace,
				fmt.Sprintf("line %d longer than %d bytes", lineNo+1, maxLineSize))
		}
		return nil, fmt.Errorf("read trace: %w", err)
	}

	if len(details) > 0 {
		return nil, model.NewConfigError(model.ErrInvalidTrace, "invalid trace", details...)
	}
	if len(specs) == 0 {
		return nil, model.NewConfigError(model.ErrNoProcesses, "no processes provided")
	}
	return specs, nil
}
