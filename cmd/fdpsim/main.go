// Command fdpsim simulates memory-access traces through an L2 with a
// feedback-directed stream prefetcher.
package main

func main() {
	Execute()
}
