package main

import "github.com/bthaas/intelifit/cmd/intelifit"

func main() {
	intelifit.Execute()
}
