package main

import "github.com/RyanBlaney/sonido-mfcc/cmd"

func main() {
	cmd.Execute()
}
