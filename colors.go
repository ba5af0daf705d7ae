package main

import "log"

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
)

func colorLog(color string, msg string) {
	log.Printf("%s%s%s", color, msg, colorReset)
}
