// Command gymcut builds captioned gym edits from a speaker clip and a
// background clip. Each stage (transcribe, captions, composite, mux) is its
// own subcommand; edit runs them all.
package main
