// Package logx wraps zerolog behind a small Logger value with live
// reconfiguration.
//
// Components receive a Logger (usually derived with With(comp=...)) and never
// touch sinks directly. The Service owns the console/file writers and can
// Apply() a new level or file target at runtime without invalidating loggers
// already handed out.
package logx
