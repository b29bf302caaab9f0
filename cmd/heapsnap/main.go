// ABOUTME: Entry point for the heapsnap CLI binary

package main

import "github.com/prateek/heapsnap/cmd/heapsnap/cmd"

func main() {
	cmd.Execute()
}
