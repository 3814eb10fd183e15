//go:build tinygo

package main

import (
	"busscope/app"
	"busscope/hal"
)

func main() {
	app.Run(hal.New())
}
