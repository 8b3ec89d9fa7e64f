// Package pyenv manages the isolated Python runtime environment.
//
// It wraps the venv module and pip of the base interpreter to create the
// environment, upgrade its packaging tooling, and install the compiled
// pjsua2 binding, and it owns the one piece of persisted state the
// pipeline writes outside its own directories: the marker-delimited
// LD_LIBRARY_PATH export block appended to the environment's bin/activate
// script so interactive shells can load the locally installed pjproject
// shared libraries.
//
// All pip operations address the environment's own pip binary by path;
// the environment is never "activated" by this tool; activation is a
// shell concept, and the equivalent library path is passed explicitly
// when the venv interpreter is executed.
package pyenv
