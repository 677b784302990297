/*
	Copyright 2023 Markus Papenbrock
*/

package main

import "github.com/mpapenbr/speedview-sync/cmd"

func main() {
	cmd.Execute()
}
