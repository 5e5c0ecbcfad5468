// Package provision makes sure a Miniconda installation exists for the build.
//
// The installation lives in <buildpath>/conda unless that path contains a
// space, which conda cannot cope with, in which case ~/_temp_conda is used.
// An existing installation is reused as is; otherwise the installer is
// downloaded once into the build path and run in batch mode.
package provision
