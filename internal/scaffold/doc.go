// Package scaffold is the scaffold execution engine. It turns a project
// descriptor and a template set into a populated two-tier project: it
// creates directories, runs the package manager and the client generator
// through a runner.Runner, edits each tier's package.json and writes the
// rendered template files.
//
// Every operation works on absolute paths derived from the project root;
// the process working directory is never changed. Steps run strictly in
// order and the first failure stops the run, returned as a *StepError
// naming the tier and step. Nothing already written is rolled back.
package scaffold
