package config

import (
	"fmt"
	"io"
	"strings"
)

// Encoder writes a Config back out in git config file format.
type Encoder struct {
	w io.Writer
}

// NewEncoder returns an Encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes cfg to the underlying writer.
func (e *Encoder) Encode(cfg *Config) error {
	for _, s := range cfg.Sections {
		if err := e.encodeSection(s); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) encodeSection(s *Section) error {
	if _, err := fmt.Fprintf(e.w, "[%s]\n", s.Name); err != nil {
		return err
	}
	if err := e.encodeOptions(s.Options); err != nil {
		return err
	}
	for _, ss := range s.Subsections {
		if err := e.encodeSubsection(s.Name, ss); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) encodeSubsection(section string, ss *Subsection) error {
	if _, err := fmt.Fprintf(e.w, "[%s %q]\n", section, ss.Name); err != nil {
		return err
	}
	return e.encodeOptions(ss.Options)
}

func (e *Encoder) encodeOptions(opts Options) error {
	for _, o := range opts {
		value := o.Value
		if needsQuote(value) {
			value = quote(value)
		}
		if _, err := fmt.Fprintf(e.w, "\t%s = %s\n", o.Key, value); err != nil {
			return err
		}
	}
	return nil
}

func needsQuote(value string) bool {
	if value == "" {
		return false
	}
	if strings.HasPrefix(value, " ") || strings.HasSuffix(value, " ") {
		return true
	}
	for _, r := range value {
		switch r {
		case '#', ';', '"', '\\':
			return true
		}
	}
	return false
}

func quote(value string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range value {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
