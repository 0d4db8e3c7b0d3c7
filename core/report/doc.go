// Package report writes run artifacts: a detailed JSON form for machines
// and a condensed markdown summary for humans, both named by the run
// timestamp.
package report
