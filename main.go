package main

import "photobooth-backend/cmd"

func main() {
	cmd.Run()
}
