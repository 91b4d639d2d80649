// Package tasks loads the app id list of a run and tracks which ids are
// still unfinished.
//
// The unfinished list is written once at the end of a run with one id per
// line, so it can be fed back as the task list of the next run.
package tasks
