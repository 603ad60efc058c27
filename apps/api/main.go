// Command api serves the Relawan HTTP API.
package main

func main() {
	startWithDig()
}
