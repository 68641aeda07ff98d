package main

import "golang-physiobackend/cmd"

func main() {
	cmd.Execute()
}
