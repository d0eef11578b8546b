// Package templates is the template registry. A template set is a directory
// holding a set.yaml index and the payload files it names. The index
// describes, per tier, the commands that create and prepare the tier, the
// packages to install, the manifest edits to apply, the directory layout,
// and the files to write or remove.
//
// Payload files ending in .tmpl are parameterized and rendered with
// text/template against Data; all other payload files are static and
// copied byte for byte. Parameterized payloads embed the project name
// through an escaping function chosen for the consumer: html for markup,
// js for JavaScript string literals and dotenv for .env values.
//
// The mern set is embedded in the binary and used unless a directory is
// supplied with LoadDir.
package templates
