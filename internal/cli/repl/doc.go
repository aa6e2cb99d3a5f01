// Package repl provides the interactive mode of minikv-cli.
//
// Lines are split like redis-cli does (double quotes with escapes such as
// \r\n and \xHH, single quotes taken literally), sent to the server, and
// the reply is printed in redis-cli style. History is kept in a file.
package repl
