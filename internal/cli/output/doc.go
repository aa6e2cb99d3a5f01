// Package output renders minikv-cli results.
//
// Formats are table (aligned columns via text/tabwriter), json and yaml.
// ProgressBar reports benchmark progress on a terminal.
package output
