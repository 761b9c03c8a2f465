package main

import "github.com/RUBclim/bike-pic-renamer/cmd/bike-pic-renamer/cmd"

func main() {
	cmd.Execute()
}
