// Command birdhouse is the wildlife camera CLI: it runs the capture daemon
// in the foreground and provides status, one-shot capture, digest, and
// configuration utilities.
package main
