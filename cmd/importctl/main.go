// Command importctl runs spreadsheet imports against the configured database
// without going through the HTTP API.
package main

func main() {
	execute()
}
