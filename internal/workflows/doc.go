// Package workflows loads analysis workflow definitions and picks one for a
// task description.
//
// A workflow is a YAML document naming the sampling rate, agent count and
// analysis focus used for a video. Built-in definitions are embedded in the
// binary; a user directory can add more or replace a built-in by reusing its
// file name. Detection lowercases the task and returns the first workflow,
// in slug order, with a trigger keyword contained in it, falling back to
// generic-analysis.
package workflows
