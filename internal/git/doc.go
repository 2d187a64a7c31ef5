// Package git records which source revision a run was produced from, so
// stored runs and reports can be traced back to the model and solver code.
package git
