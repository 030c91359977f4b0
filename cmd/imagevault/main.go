// Command imagevault inspects preserved disk and optical images without
// mounting them: identify a format, print its metadata, or hex-dump a
// single sector.
package main

func main() {
	Execute()
}
