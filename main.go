package main

import "github.com/klytics/countboard/cmd"

func main() {
	cmd.Execute()
}
