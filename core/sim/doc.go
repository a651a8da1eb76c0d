// Package sim provides the simulation clock and the lifecycle contract shared
// by every stepped component.
//
// A run owns exactly one Clock. The clock holds an ordered list of components
// and a Context carrying the current time index. Components never change the
// index themselves; they read it from the Context passed to every hook.
package sim
