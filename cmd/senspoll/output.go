package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/srg/senspoll/internal/central"
	"github.com/srg/senspoll/pkg/config"
	"golang.org/x/term"
)

// SampleWriter renders decoded samples
type SampleWriter interface {
	Write(s central.Sample) error
}

// NewSampleWriter creates the writer for an output format.
func NewSampleWriter(w io.Writer, format string, colorize bool) (SampleWriter, error) {
	switch format {
	case config.FormatText, "":
		return newTextWriter(w, colorize), nil
	case config.FormatJSON:
		return &jsonWriter{enc: json.NewEncoder(w)}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q (must be %s or %s)", format, config.FormatText, config.FormatJSON)
	}
}

// isTerminal reports whether w is a terminal; only *os.File can be one
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// FormatValue prints a decoded value the way the sensor reports it: colour
// intensities as integers, everything else with two decimals.
func FormatValue(k central.Kind, v float64) string {
	var s string
	switch k {
	case central.Red, central.Green, central.Blue:
		s = fmt.Sprintf("%d", int64(v))
	default:
		s = fmt.Sprintf("%.2f", v)
	}
	if unit := k.Unit(); unit != "" {
		s += " " + unit
	}
	return s
}

type textWriter struct {
	w     io.Writer
	role  *color.Color
	kinds map[central.Kind]*color.Color
	plain *color.Color
}

func newTextWriter(w io.Writer, colorize bool) *textWriter {
	tw := &textWriter{
		w:    w,
		role: color.New(color.FgCyan, color.Bold),
		kinds: map[central.Kind]*color.Color{
			central.Temperature: color.New(color.FgYellow),
			central.Humidity:    color.New(color.FgBlue),
			central.Pressure:    color.New(color.FgMagenta),
			central.Red:         color.New(color.FgRed),
			central.Green:       color.New(color.FgGreen),
			central.Blue:        color.New(color.FgBlue),
		},
		plain: color.New(color.Reset),
	}

	// Colors are set per writer so the global color.NoColor detection does not apply
	all := []*color.Color{tw.role, tw.plain}
	for _, c := range tw.kinds {
		all = append(all, c)
	}
	for _, c := range all {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return tw
}

func (t *textWriter) Write(s central.Sample) error {
	c, ok := t.kinds[s.Kind]
	if !ok {
		c = t.plain
	}
	_, err := fmt.Fprintf(t.w, "%s %s\n",
		t.role.Sprintf("[%s]", s.Role),
		c.Sprintf("%s: %s", s.Kind, FormatValue(s.Kind, s.Value)))
	return err
}

type jsonWriter struct {
	enc *json.Encoder
}

func (j *jsonWriter) Write(s central.Sample) error {
	return j.enc.Encode(s)
}

// writeSnapshot prints the latest value of every role and kind as a table
func writeSnapshot(w io.Writer, samples []central.Sample) error {
	if len(samples) == 0 {
		_, err := fmt.Fprintln(w, "No samples collected.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ROLE\tKIND\tVALUE\tADDRESS")
	for _, s := range samples {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Role, s.Kind, FormatValue(s.Kind, s.Value), s.Address)
	}
	return tw.Flush()
}

// writeHistory prints retained samples oldest first
func writeHistory(w io.Writer, samples []central.Sample) error {
	if len(samples) == 0 {
		_, err := fmt.Fprintln(w, "No history retained.")
		return err
	}
	fmt.Fprintf(w, "History (%d samples):\n", len(samples))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "AT\tROLE\tKIND\tVALUE")
	for _, s := range samples {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.At.Format("15:04:05.000"), s.Role, s.Kind, FormatValue(s.Kind, s.Value))
	}
	return tw.Flush()
}

// writePeers prints the allow-list in match order
func writePeers(w io.Writer, peers []*central.PeerSpec) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ROLE\tNAME\tADDRESS\tSERVICE\tKINDS")
	for _, p := range peers {
		kinds := make([]string, 0, 3)
		for _, k := range p.Kinds() {
			kinds = append(kinds, k.String())
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			p.Role, orDash(p.Name), orDash(string(p.Address)), p.Service, strings.Join(kinds, ","))
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
