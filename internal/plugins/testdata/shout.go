package main

import "strings"

func Name() string {
	return "Shout"
}

func Description() string {
	return "Uppercases every response"
}

func ProcessOutput(output string) string {
	return strings.ToUpper(output)
}
