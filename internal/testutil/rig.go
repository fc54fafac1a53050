// Package testutil provides shared rig fakes for package tests.
package testutil

import (
	"github.com/SaltyPakoda/computer-eyes/internal/rig"
)

// BaseRig implements rig.Rig with no input setter. Embed it to build
// fakes exposing a specific setter shape.
type BaseRig struct {
	ManifestNames []string
	InputNames    []string
	Machine       string
	LoadedCalls   []string
	Backgrounds   []string
	Ch            chan rig.Event
	destroyed     bool
}

func NewBaseRig() *BaseRig {
	return &BaseRig{
		ManifestNames: []string{"EyesMachine"},
		InputNames:    []string{"eyeState"},
		Ch:            make(chan rig.Event, 32),
	}
}

func (b *BaseRig) Manifest() []string { return b.ManifestNames }

func (b *BaseRig) LoadMachine(name string) error {
	b.LoadedCalls = append(b.LoadedCalls, name)
	b.Machine = name
	return nil
}

func (b *BaseRig) Inputs() []string         { return b.InputNames }
func (b *BaseRig) ActiveMachine() string    { return b.Machine }
func (b *BaseRig) Running() bool            { return !b.destroyed }
func (b *BaseRig) Resize(width, height int) {}
func (b *BaseRig) Events() <-chan rig.Event { return b.Ch }

func (b *BaseRig) SetBackground(color string) error {
	b.Backgrounds = append(b.Backgrounds, color)
	return nil
}

func (b *BaseRig) Destroy() {
	if b.destroyed {
		return
	}
	b.destroyed = true
	close(b.Ch)
}

func (b *BaseRig) Destroyed() bool { return b.destroyed }

// Emit pushes an event into the fake's stream.
func (b *BaseRig) Emit(ev rig.Event) { b.Ch <- ev }

// SetCall records one setter invocation.
type SetCall struct {
	Machine string
	Input   string
	Value   string
}

// FakeRig exposes the modern string-setter shape with scriptable
// results: Results is consumed one bool per call, an exhausted queue
// accepts, RejectAll always rejects, PanicMsg panics once.
type FakeRig struct {
	*BaseRig
	SetCalls  []SetCall
	Results   []bool
	RejectAll bool
	PanicMsg  string
}

func NewFakeRig() *FakeRig {
	return &FakeRig{BaseRig: NewBaseRig()}
}

func (f *FakeRig) SetStringInput(machine, input, value string) bool {
	f.SetCalls = append(f.SetCalls, SetCall{Machine: machine, Input: input, Value: value})
	if f.PanicMsg != "" {
		msg := f.PanicMsg
		f.PanicMsg = ""
		panic(msg)
	}
	if f.RejectAll {
		return false
	}
	if len(f.Results) > 0 {
		r := f.Results[0]
		f.Results = f.Results[1:]
		return r
	}
	return true
}
