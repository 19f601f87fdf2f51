// Package baton provides directive-sequencing machinery for a
// cloud-connected client.
//
// The core code is in package 'processor', and some command-line tools
// are in `cmd`.
//
// See https://github.com/Comcast/baton/blob/master/README.md for more.
package baton
