package main

import "github.com/oshokin/osx-bundler/cmd/osx-bundler/cmd"

func main() {
	cmd.Execute()
}
