package config

import (
	"fmt"
	"strings"
)

// Section is a top-level [name] block in a config file.
type Section struct {
	Name        string
	Options     Options
	Subsections Subsections
}

// GoString implements fmt.GoStringer.
func (s *Section) GoString() string {
	return fmt.Sprintf("&config.Section{Name:%q, Options:%s, Subsections:%s}",
		s.Name, s.Options.GoString(), s.Subsections.GoString())
}

// IsName reports whether name matches s.Name, case-insensitively.
func (s *Section) IsName(name string) bool {
	return strings.EqualFold(s.Name, name)
}

// Subsection returns the subsection named name, creating and
// appending it if it doesn't already exist.
func (s *Section) Subsection(name string) *Subsection {
	for _, ss := range s.Subsections {
		if ss.IsName(name) {
			return ss
		}
	}
	ss := &Subsection{Name: name}
	s.Subsections = append(s.Subsections, ss)
	return ss
}

// HasSubsection reports whether a subsection named name exists.
func (s *Section) HasSubsection(name string) bool {
	for _, ss := range s.Subsections {
		if ss.IsName(name) {
			return true
		}
	}
	return false
}

// RemoveSubsection drops the subsection named name, if present.
func (s *Section) RemoveSubsection(name string) *Section {
	result := Subsections{}
	for _, ss := range s.Subsections {
		if !ss.IsName(name) {
			result = append(result, ss)
		}
	}
	s.Subsections = result
	return s
}

// Option returns the last value stored under key, or "" if absent.
func (s *Section) Option(key string) string {
	vals := s.Options.GetAll(key)
	if len(vals) == 0 {
		return ""
	}
	return vals[len(vals)-1]
}

// OptionAll returns every value stored under key.
func (s *Section) OptionAll(key string) []string {
	return s.Options.GetAll(key)
}

// HasOption reports whether key is present.
func (s *Section) HasOption(key string) bool {
	return s.Options.Has(key)
}

// AddOption appends a new key/value pair, keeping any existing
// entries for the same key.
func (s *Section) AddOption(key, value string) *Section {
	s.Options = append(s.Options, &Option{Key: key, Value: value})
	return s
}

// SetOption replaces every entry stored under key with the given
// values, appended at the end of the option list.
func (s *Section) SetOption(key string, values ...string) *Section {
	s.RemoveOption(key)
	for _, v := range values {
		s.AddOption(key, v)
	}
	return s
}

// RemoveOption drops every entry stored under key.
func (s *Section) RemoveOption(key string) *Section {
	result := Options{}
	for _, o := range s.Options {
		if !o.IsKey(key) {
			result = append(result, o)
		}
	}
	s.Options = result
	return s
}

// Sections is an ordered list of Section values.
type Sections []*Section

// GoString implements fmt.GoStringer.
func (s Sections) GoString() string {
	var parts []string
	for _, sec := range s {
		parts = append(parts, sec.GoString())
	}
	return strings.Join(parts, ", ")
}

// Subsection is a [name "subname"] block inside a Section.
type Subsection struct {
	Name    string
	Options Options
}

// GoString implements fmt.GoStringer.
func (s *Subsection) GoString() string {
	return fmt.Sprintf("&config.Subsection{Name:%q, Options:%s}", s.Name, s.Options.GoString())
}

// IsName reports whether name matches s.Name, case-sensitively.
func (s *Subsection) IsName(name string) bool {
	return s.Name == name
}

// Option returns the last value stored under key, or "" if absent.
func (s *Subsection) Option(key string) string {
	vals := s.Options.GetAll(key)
	if len(vals) == 0 {
		return ""
	}
	return vals[len(vals)-1]
}

// OptionAll returns every value stored under key.
func (s *Subsection) OptionAll(key string) []string {
	return s.Options.GetAll(key)
}

// HasOption reports whether key is present.
func (s *Subsection) HasOption(key string) bool {
	return s.Options.Has(key)
}

// AddOption appends a new key/value pair, keeping any existing
// entries for the same key.
func (s *Subsection) AddOption(key, value string) *Subsection {
	s.Options = append(s.Options, &Option{Key: key, Value: value})
	return s
}

// SetOption replaces every entry stored under key with the given
// values, appended at the end of the option list.
func (s *Subsection) SetOption(key string, values ...string) *Subsection {
	s.RemoveOption(key)
	for _, v := range values {
		s.AddOption(key, v)
	}
	return s
}

// RemoveOption drops every entry stored under key.
func (s *Subsection) RemoveOption(key string) *Subsection {
	result := Options{}
	for _, o := range s.Options {
		if !o.IsKey(key) {
			result = append(result, o)
		}
	}
	s.Options = result
	return s
}

// Subsections is an ordered list of Subsection values.
type Subsections []*Subsection

// GoString implements fmt.GoStringer.
func (s Subsections) GoString() string {
	var parts []string
	for _, ss := range s {
		parts = append(parts, ss.GoString())
	}
	return strings.Join(parts, ", ")
}
