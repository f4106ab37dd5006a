// Command creatorjoy serves and runs Instagram reel and YouTube channel
// crawls.
package main

func main() {
	Execute()
}
