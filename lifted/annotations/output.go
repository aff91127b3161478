package annotations

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

// OutputFormatter formats events for human-readable display.
type OutputFormatter struct {
	useColor bool
	writer   io.Writer
	renderer *TableRenderer
}

// NewOutputFormatter creates a formatter with color support detection.
func NewOutputFormatter(w io.Writer) *OutputFormatter {
	if w == nil {
		w = os.Stdout
	}

	// fatih/color already checks whether stdout is a terminal
	useColor := false
	if f, ok := w.(*os.File); ok && (f == os.Stdout || f == os.Stderr) {
		useColor = !color.NoColor
	}

	return &OutputFormatter{
		useColor: useColor,
		writer:   w,
		renderer: NewTableRenderer(useColor),
	}
}

// NewPlainFormatter creates a formatter that never colors its output
func NewPlainFormatter(w io.Writer) *OutputFormatter {
	return &OutputFormatter{
		writer:   w,
		renderer: NewTableRenderer(false),
	}
}

// Handle implements Handler - prints events as they occur
func (f *OutputFormatter) Handle(event Event) {
	output := f.Format(event)
	if output != "" {
		fmt.Fprintln(f.writer, output)
	}
}

// Format converts an event to a human-readable string.
func (f *OutputFormatter) Format(event Event) string {
	latency := f.formatLatency(event.Latency)

	switch event.Name {
	case SearchInvoked:
		return fmt.Sprintf("%s %s Search: %s/%s (%s join order, %s heuristic)",
			latency,
			f.colorize("===", color.FgYellow),
			event.Data["domain"], event.Data["task"],
			event.Data["order"], event.Data["heuristic"])

	case SearchProgress:
		return fmt.Sprintf("%s h=%d g=%d after %s, %s",
			latency,
			event.Data["h"], event.Data["g"],
			f.colorizeCount("expanded", event.Data["explored"].(int)),
			f.colorizeCount("generated", event.Data["generated"].(int)))

	case SearchComplete:
		if errMsg, failed := event.Data["error"]; failed {
			return fmt.Sprintf("%s %s Search failed: %v",
				latency,
				f.colorize("✗", color.FgRed),
				errMsg)
		}
		status := event.Data["status"].(string)
		marker := f.colorize("===", color.FgGreen)
		if status != "solved" {
			marker = f.colorize("===", color.FgRed)
		}
		return fmt.Sprintf("%s %s Search %s with %s and %s.",
			latency,
			marker,
			status,
			f.colorizeCount("expanded", event.Data["explored"].(int)),
			f.colorizeCount("generated", event.Data["generated"].(int)))

	case PlanExtracted:
		return fmt.Sprintf("%s Plan with %d steps, cost %d",
			latency, event.Data["length"], event.Data["cost"])

	case GroundSchema:
		return fmt.Sprintf("%s Ground(%s) → %s",
			latency,
			f.colorize(fmt.Sprint(event.Data["schema"]), color.FgCyan),
			f.colorizeCount("actions", event.Data["action.count"].(int)))

	case JoinHash:
		left := event.Data["left.size"].(int)
		right := event.Data["right.size"].(int)
		result := event.Data["result.size"].(int)

		var leftAttrs, rightAttrs, resultAttrs []string
		if attrs, ok := event.Data["left.attrs"].([]string); ok {
			leftAttrs = attrs
		}
		if attrs, ok := event.Data["right.attrs"].([]string); ok {
			rightAttrs = attrs
		}
		if attrs, ok := event.Data["result.attrs"].([]string); ok {
			resultAttrs = attrs
		}
		joinStr := f.renderer.RenderJoin(leftAttrs, left, rightAttrs, right, resultAttrs, result)

		// Flag joins that grow faster than their inputs
		if result > left && result > right && result > 1000 {
			return fmt.Sprintf("%s %s %s", latency, f.colorize("⚠️", color.FgYellow), joinStr)
		}
		return fmt.Sprintf("%s %s", latency, joinStr)

	case JoinFilter:
		in := event.Data["input.size"].(int)
		out := event.Data["output.size"].(int)
		return fmt.Sprintf("%s Inequalities(%s) on %s → %s (filtered %d)",
			latency,
			event.Data["schema"],
			f.colorizeCount("tuples", in),
			f.colorizeCount("tuples", out),
			in-out)

	default:
		return fmt.Sprintf("%s %s %v", latency, event.Name, event.Data)
	}
}

// formatLatency formats a duration as [XXXms] or [XXXµs] with color coding.
func (f *OutputFormatter) formatLatency(d time.Duration) string {
	if d < time.Millisecond {
		s := fmt.Sprintf("[%dµs]", d.Microseconds())
		if !f.useColor {
			return s
		}
		return color.GreenString(s)
	}

	ms := float64(d.Microseconds()) / 1000.0
	s := fmt.Sprintf("[%.1fms]", ms)
	if !f.useColor {
		return s
	}

	switch {
	case ms < 50:
		return color.GreenString(s)
	case ms < 200:
		return color.YellowString(s)
	default:
		return color.RedString(s)
	}
}

// colorizeCount formats a count with a label, using color based on the label.
func (f *OutputFormatter) colorizeCount(label string, count int) string {
	text := fmt.Sprintf("%d %s", count, label)
	if !f.useColor {
		return text
	}

	switch strings.ToLower(label) {
	case "expanded":
		return color.CyanString(text)
	case "generated", "tuples":
		return color.MagentaString(text)
	case "actions":
		return color.BlueString(text)
	default:
		return text
	}
}

// colorize applies color if enabled.
func (f *OutputFormatter) colorize(text string, attrs ...color.Attribute) string {
	if !f.useColor {
		return text
	}
	return color.New(attrs...).Sprint(text)
}

// ConsoleHandler creates a handler that prints formatted events to stderr.
func ConsoleHandler() Handler {
	return NewOutputFormatter(os.Stderr).Handle
}
