// Package outcome records the result of an operation whose primary write
// succeeded but whose secondary effects (emails, account provisioning, CRM
// sync) may not have.
package outcome

import "strings"

type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

type SideEffect struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

type Outcome struct {
	Effects []SideEffect `json:"side_effects"`
}

func (o *Outcome) Record(name string, err error) {
	if err != nil {
		o.Effects = append(o.Effects, SideEffect{Name: name, Status: StatusFailed, Error: err.Error()})
		return
	}
	o.Effects = append(o.Effects, SideEffect{Name: name, Status: StatusOK})
}

func (o *Outcome) Skip(name, reason string) {
	o.Effects = append(o.Effects, SideEffect{Name: name, Status: StatusSkipped, Error: strings.TrimSpace(reason)})
}

// Partial reports whether any recorded effect failed.
func (o *Outcome) Partial() bool {
	if o == nil {
		return false
	}
	for _, e := range o.Effects {
		if e.Status == StatusFailed {
			return true
		}
	}
	return false
}

func (o *Outcome) Failed() []string {
	if o == nil {
		return nil
	}
	var out []string
	for _, e := range o.Effects {
		if e.Status == StatusFailed {
			out = append(out, e.Name)
		}
	}
	return out
}

func (o *Outcome) Get(name string) (SideEffect, bool) {
	if o == nil {
		return SideEffect{}, false
	}
	for _, e := range o.Effects {
		if e.Name == name {
			return e, true
		}
	}
	return SideEffect{}, false
}

// Merge appends the effects of other, prefixing their names.
func (o *Outcome) Merge(prefix string, other *Outcome) {
	if other == nil {
		return
	}
	for _, e := range other.Effects {
		if prefix != "" {
			e.Name = prefix + "." + e.Name
		}
		o.Effects = append(o.Effects, e)
	}
}
