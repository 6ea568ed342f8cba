package main

import "github.com/astarte-platform/sdkbuild/cmd/sdkbuild/internal"

func main() {
	internal.Execute()
}
