package main

import "github.com/Shaftdog/Appraisermod-sub001/cmd"

func main() {
	cmd.Execute()
}
