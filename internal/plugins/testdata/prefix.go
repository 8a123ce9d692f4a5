package main

func Name() string {
	return "Prefix"
}

func Description() string {
	return "Prepends a marker to user input"
}

func ProcessInput(input string) string {
	return "[ext] " + input
}
