// Command eventstored boots the event store as a standalone HTTP
// service: pick a Storage backend, a Publisher backend, and serve.
package main

func main() {
	execute()
}
