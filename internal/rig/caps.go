package rig

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Historical runtime builds expose one of several input-setter shapes.
// Each shape is probed once when the instance is created, never per
// call.

// stringInputSetter is the current API: machine-scoped string inputs.
type stringInputSetter interface {
	SetStringInput(machine, input, value string) bool
}

// namedInputSetter hands out an input handle that is set separately.
type namedInputSetter interface {
	StateMachineInput(machine, input string) (Input, bool)
}

// legacyInputSetter is the oldest shape: a flat setter on the instance.
type legacyInputSetter interface {
	SetInput(input string, value any) bool
}

// Input is the handle returned by namedInputSetter runtimes.
type Input interface {
	Set(value any) bool
}

// Setter pushes one input value into the active state machine.
// ErrRejected means the runtime refused the value (usually transient,
// mid-transition); ErrFault means the runtime's memory faulted during
// the call.
type Setter func(input, value string) error

// ResolveSetter negotiates the input-setting capability of a runtime
// instance once and returns a single resolved function. Instances that
// expose none of the known shapes are unusable; the error lists the
// instance's methods to aid diagnosis.
func ResolveSetter(inst Rig) (Setter, error) {
	switch v := inst.(type) {
	case stringInputSetter:
		return func(input, value string) error {
			return guardFault(func() error {
				if !v.SetStringInput(inst.ActiveMachine(), input, value) {
					return ErrRejected
				}
				return nil
			})
		}, nil
	case namedInputSetter:
		return func(input, value string) error {
			return guardFault(func() error {
				in, ok := v.StateMachineInput(inst.ActiveMachine(), input)
				if !ok {
					return ErrRejected
				}
				if !in.Set(value) {
					return ErrRejected
				}
				return nil
			})
		}, nil
	case legacyInputSetter:
		return func(input, value string) error {
			return guardFault(func() error {
				if !v.SetInput(input, value) {
					return ErrRejected
				}
				return nil
			})
		}, nil
	}
	return nil, fmt.Errorf("%w: %T exposes [%s]", ErrUnsupported, inst, strings.Join(methodNames(inst), ", "))
}

// guardFault converts a panicking runtime call carrying the
// memory-access signature into ErrFault. Other panics propagate.
func guardFault(fn func() error) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		msg := fmt.Sprint(r)
		if strings.Contains(msg, faultSignature) {
			err = fmt.Errorf("%w: %s", ErrFault, msg)
			return
		}
		panic(r)
	}()
	return fn()
}

func methodNames(inst any) []string {
	t := reflect.TypeOf(inst)
	if t == nil {
		return nil
	}
	names := make([]string, 0, t.NumMethod())
	for i := 0; i < t.NumMethod(); i++ {
		names = append(names, t.Method(i).Name)
	}
	sort.Strings(names)
	return names
}
