// Command dnadb stores DNA sequences under sequence identifiers in a
// single packed file and answers insert, remove, search and print
// commands from a script or an interactive shell.
package main

func main() {
	execute()
}
